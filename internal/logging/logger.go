// Package logging writes hark's JSONL log under the XDG state directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelEnv overrides the configured level, e.g. HARK_LOG_LEVEL=debug.
const LevelEnv = "HARK_LOG_LEVEL"

// DefaultMaxBytes is the size at which the log rotates on open.
const DefaultMaxBytes int64 = 4 << 20

type Options struct {
	// Level is debug, info, warn, or error; empty means info.
	Level string
	// MaxBytes rotates an existing log to log.jsonl.1 once it reaches this
	// size. Zero uses DefaultMaxBytes; negative disables rotation.
	MaxBytes int64
}

// Runtime holds the logger and the file behind it.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	Level  slog.Level
	closer io.Closer
}

func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func New(opts Options) (Runtime, error) {
	raw := opts.Level
	if env := strings.TrimSpace(os.Getenv(LevelEnv)); env != "" {
		raw = env
	}
	level, err := ParseLevel(raw)
	if err != nil {
		return Runtime{}, err
	}

	path, err := resolveLogPath()
	if err != nil {
		return Runtime{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, err
	}

	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxBytes > 0 {
		if err := rotate(path, maxBytes); err != nil {
			return Runtime{}, err
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, err
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return Runtime{Logger: logger, Path: path, Level: level, closer: f}, nil
}

// ParseLevel accepts slog level names case-insensitively.
func ParseLevel(raw string) (slog.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// rotate keeps a single previous generation.
func rotate(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() < maxBytes {
		return nil
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log: %w", err)
	}
	return nil
}

// resolveLogPath prefers XDG_STATE_HOME and falls back to ~/.local/state.
func resolveLogPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "hark", "log.jsonl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "hark", "log.jsonl"), nil
}
