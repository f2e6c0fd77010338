package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pio-layer", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tasks.SettleDelay.Std() != 500*time.Millisecond {
		t.Fatalf("expected default settle delay, got %s", cfg.Tasks.SettleDelay)
	}
	if cfg.Toolchain.MinVersion != "3.4.1-a.6" {
		t.Fatalf("expected default min version, got %s", cfg.Toolchain.MinVersion)
	}
	if cfg.Tasks.ForceUploadAndMonitor {
		t.Fatalf("expected force_upload_and_monitor off by default")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[tasks]
force_upload_and_monitor = true
settle_delay = "750ms"

[toolchain]
install_command = ["pipx", "upgrade", "platformio"]

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Tasks.ForceUploadAndMonitor)
	require.Equal(t, 750*time.Millisecond, cfg.Tasks.SettleDelay.Std())
	require.Equal(t, DefaultTerminateTimeout, cfg.Tasks.TerminateTimeout.Std())
	require.Equal(t, []string{"pipx", "upgrade", "platformio"}, cfg.Toolchain.InstallCommand)
	require.Equal(t, DefaultExecutable, cfg.Toolchain.Executable)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, DefaultStaleAfter, cfg.Lock.StaleAfter.Std())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[tasks]\nforce_upload = true\n"), "config.toml")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfigValidation))
	require.Contains(t, err.Error(), "unrecognized")
}

func TestParseSyntaxErrorIsNotValidation(t *testing.T) {
	_, err := Parse([]byte("[tasks\n"), "config.toml")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrConfigValidation))
}

func TestParseBadDuration(t *testing.T) {
	_, err := Parse([]byte("[tasks]\nsettle_delay = \"soon\"\n"), "config.toml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "soon")
}

func TestParseValidationFailure(t *testing.T) {
	_, err := Parse([]byte("[log]\nlevel = \"loud\"\n"), "config.toml")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfigValidation))
	require.Contains(t, err.Error(), "log.level")
}

func TestLoadLenientSkipsValidation(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"loud\"\n")
	cfg, err := LoadLenient(path)
	require.NoError(t, err)
	require.Equal(t, "loud", cfg.Log.Level)

	_, err = LoadLenient(writeConfig(t, "[log\n"))
	require.Error(t, err)

	cfg, err = LoadLenient(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
	require.False(t, strings.Contains(err.Error(), ErrConfigValidation.Error()))
}

func TestDurationText(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1.5s", string(text))

	var back Duration
	require.NoError(t, back.UnmarshalText(text))
	require.Equal(t, d, back)
	require.Error(t, back.UnmarshalText([]byte("fast")))
}
