// Package config loads pio-layer settings from .pio-layer/config.toml and
// resolves PlatformIO paths.
package config

import (
	"fmt"
	"time"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// Default values applied when a key is absent.
const (
	DefaultSettleDelay      = 500 * time.Millisecond
	DefaultTerminateTimeout = 5 * time.Second
	DefaultMinVersion       = "3.4.1-a.6"
	DefaultExecutable       = "platformio"
	DefaultStaleAfter       = 10 * time.Minute
	DefaultHeartbeatEvery   = 30 * time.Second
	DefaultLogLevel         = "info"
)

// Config is the parsed .pio-layer/config.toml.
type Config struct {
	Tasks     TasksConfig     `toml:"tasks"`
	Toolchain ToolchainConfig `toml:"toolchain"`
	Lock      LockConfig      `toml:"lock"`
	Log       LogConfig       `toml:"log"`
}

// TasksConfig controls task dispatch.
type TasksConfig struct {
	ForceUploadAndMonitor bool     `toml:"force_upload_and_monitor"`
	SettleDelay           Duration `toml:"settle_delay"`
	TerminateTimeout      Duration `toml:"terminate_timeout"`
}

// ToolchainConfig controls the PlatformIO Core check and install.
type ToolchainConfig struct {
	MinVersion string `toml:"min_version"`
	// InstallCommand overrides the default pip-based install.
	InstallCommand []string `toml:"install_command"`
	Executable     string   `toml:"executable"`
}

// LockConfig controls the installation lock.
type LockConfig struct {
	StaleAfter     Duration `toml:"stale_after"`
	HeartbeatEvery Duration `toml:"heartbeat_every"`
}

// LogConfig controls the session log.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Tasks: TasksConfig{
			SettleDelay:      Duration(DefaultSettleDelay),
			TerminateTimeout: Duration(DefaultTerminateTimeout),
		},
		Toolchain: ToolchainConfig{
			MinVersion: DefaultMinVersion,
			Executable: DefaultExecutable,
		},
		Lock: LockConfig{
			StaleAfter:     Duration(DefaultStaleAfter),
			HeartbeatEvery: Duration(DefaultHeartbeatEvery),
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Duration is a time.Duration written as a string such as "500ms" or "5s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf(messages.ConfigInvalidDurationFmt, string(text), err)
	}
	*d = Duration(parsed)
	return nil
}
