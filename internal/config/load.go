package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// GRPCEnv points the recognizer at another endpoint without editing the file.
const GRPCEnv = "HARK_ASR_GRPC"

// Loaded is a resolved configuration plus where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config at explicitPath (or the XDG default), layers it over
// Default, applies environment overrides, and validates the result.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Exists: true}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Exists = false
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, err := layer(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	if endpoint := strings.TrimSpace(os.Getenv(GRPCEnv)); endpoint != "" {
		cfg.ASR.GRPC = endpoint
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("asr.grpc overridden by %s=%s", GRPCEnv, endpoint),
		})
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("config %q: %w", path, err)
	}
	loaded.Config = cfg
	loaded.Warnings = append(loaded.Warnings, warnings...)
	return loaded, nil
}
