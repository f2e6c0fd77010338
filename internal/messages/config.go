package messages

// Config messages for configuration loading and validation.
const (
	// ConfigInvalidConfigFmt formats TOML syntax errors.
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigReadFailedFmt       = "read config %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized config keys: %v"
	ConfigValidationGuidance  = "(run `pl doctor` for a full report)"
	ConfigHomeDirFmt          = "resolve home directory: %w"
	ConfigInvalidDurationFmt  = "invalid duration %q: %w"

	ConfigSettleDelayNegativeFmt     = "%s: tasks.settle_delay must not be negative"
	ConfigTerminateTimeoutInvalidFmt = "%s: tasks.terminate_timeout must be positive"
	ConfigMinVersionInvalidFmt       = "%s: toolchain.min_version %q is not a valid version"
	ConfigExecutableRequiredFmt      = "%s: toolchain.executable is required"
	ConfigInstallCommandEmptyFmt     = "%s: toolchain.install_command must not contain empty entries"
	ConfigStaleAfterInvalidFmt       = "%s: lock.stale_after must be positive"
	ConfigHeartbeatInvalidFmt        = "%s: lock.heartbeat_every must be positive and shorter than lock.stale_after"
	ConfigLogLevelInvalidFmt         = "%s: log.level must be one of debug, info, warn, error"

	// ConfigWatchFailedFmt formats watcher setup errors.
	ConfigWatchFailedFmt  = "watch config %s: %w"
	ConfigReloadFailedFmt = "reload config %s: %w"

	// ConfigFieldForceUploadAndMonitor documents tasks.force_upload_and_monitor.
	ConfigFieldForceUploadAndMonitor = "Run \"Upload and Monitor\" instead of \"Upload\""
	ConfigFieldSettleDelay           = "Pause after stopping a monitor before the next task starts"
	ConfigFieldTerminateTimeout      = "How long to wait for a monitor to stop"
	ConfigFieldMinVersion            = "Minimum PlatformIO Core version"
	ConfigFieldInstallCommand        = "Command that installs or upgrades PlatformIO Core"
	ConfigFieldExecutable            = "PlatformIO Core executable name"
	ConfigFieldStaleAfter            = "Age after which an unrefreshed installation lock is abandoned"
	ConfigFieldHeartbeatEvery        = "How often an installing session refreshes the lock"
	ConfigFieldLogLevel              = "Minimum level written to the session log"
	ConfigLogLevelDebug              = "Verbose diagnostics"
	ConfigLogLevelInfo               = "Normal operation (default)"
	ConfigLogLevelWarn               = "Warnings and errors only"
	ConfigLogLevelError              = "Errors only"
)
