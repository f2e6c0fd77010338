package config

import (
	"fmt"
	"strings"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/version"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	if c.Tasks.SettleDelay < 0 {
		return fmt.Errorf(messages.ConfigSettleDelayNegativeFmt, path)
	}
	if c.Tasks.TerminateTimeout <= 0 {
		return fmt.Errorf(messages.ConfigTerminateTimeoutInvalidFmt, path)
	}
	if _, err := version.Parse(c.Toolchain.MinVersion); err != nil {
		return fmt.Errorf(messages.ConfigMinVersionInvalidFmt, path, c.Toolchain.MinVersion)
	}
	if strings.TrimSpace(c.Toolchain.Executable) == "" {
		return fmt.Errorf(messages.ConfigExecutableRequiredFmt, path)
	}
	for _, arg := range c.Toolchain.InstallCommand {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf(messages.ConfigInstallCommandEmptyFmt, path)
		}
	}
	if c.Lock.StaleAfter <= 0 {
		return fmt.Errorf(messages.ConfigStaleAfterInvalidFmt, path)
	}
	if c.Lock.HeartbeatEvery <= 0 || c.Lock.HeartbeatEvery >= c.Lock.StaleAfter {
		return fmt.Errorf(messages.ConfigHeartbeatInvalidFmt, path)
	}
	if !isValidOption("log.level", c.Log.Level) {
		return fmt.Errorf(messages.ConfigLogLevelInvalidFmt, path)
	}
	return nil
}

// isValidOption checks value against the field catalog.
func isValidOption(key string, value string) bool {
	for _, opt := range FieldOptionValues(key) {
		if opt == value {
			return true
		}
	}
	return false
}
