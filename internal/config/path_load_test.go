package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "hark", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "hark", "config.jsonc"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  // local recognizer
  "asr": {
    "grpc": "127.0.0.1:50052",
    "max_listen_ms": 8000,
  },
  "tts": {
    "command": "espeak-ng --stdout -a 80",
    "voice": "zh",
  },
  "gesture": { "long_press_ms": 650 },
  "history": { "enable": false },
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, "127.0.0.1:50052", loaded.Config.ASR.GRPC)
	require.Equal(t, 8000, loaded.Config.ASR.MaxListenMS)
	require.Equal(t, []string{"espeak-ng", "--stdout", "-a", "80"}, loaded.Config.TTS.Command.Argv)
	require.Equal(t, "zh", loaded.Config.TTS.Voice)
	require.Equal(t, 650, loaded.Config.Gesture.LongPressMS)
	require.False(t, loaded.Config.History.Enable)
	require.Equal(t, 200, loaded.Config.History.MaxEntries)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestLoadAppliesGRPCOverride(t *testing.T) {
	t.Setenv(GRPCEnv, " 10.0.0.5:50051 ")

	loaded, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5:50051", loaded.Config.ASR.GRPC)
	require.Len(t, loaded.Warnings, 2)
	require.Contains(t, loaded.Warnings[1].Message, GRPCEnv)
}

func TestLoadRejectsInvalidValuesWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"level": "loud"}}`), 0o600))

	_, err := Load(path)
	require.ErrorContains(t, err, "log.level")
	require.ErrorContains(t, err, path)
}

func TestLoadReadsLogSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"level": "debug", "max_bytes": 1024}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, LogConfig{Level: "debug", MaxBytes: 1024}, loaded.Config.Log)
}
