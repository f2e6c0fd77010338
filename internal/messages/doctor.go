package messages

// Doctor messages for the doctor command.
const (
	// DoctorUse is the doctor command name.
	DoctorUse   = "doctor"
	DoctorShort = "Check the PlatformIO toolchain, installation lock, and configuration"

	DoctorHealthCheckFmt = "🏥 Checking PlatformIO session health in %s...\n"

	DoctorCheckNameConfig    = "Config"
	DoctorCheckNameToolchain = "Toolchain"
	DoctorCheckNameLock      = "Lock"
	DoctorCheckNameWorkspace = "Workspace"

	DoctorConfigLoadFailedFmt        = "Failed to load configuration: %v"
	DoctorConfigLoadRecommend        = "Check .pio-layer/config.toml for syntax errors."
	DoctorConfigLoadLenientRecommend = "Fix the invalid keys; defaults are used for the remaining checks."
	DoctorConfigLoaded               = "Configuration loaded successfully"
	DoctorConfigDefaultFmt           = "No configuration at %s; using defaults"

	DoctorToolchainSatisfiedFmt     = "PlatformIO Core %s installed (minimum %s)"
	DoctorToolchainAbsent           = "PlatformIO Core is not installed"
	DoctorToolchainOutOfDateFmt     = "PlatformIO Core %s is older than the minimum %s"
	DoctorToolchainInstallRecommend = "Run `pl install` or start a session to install it."
	DoctorToolchainCheckFailedFmt   = "Failed to check PlatformIO Core: %v"
	DoctorToolchainCheckRecommend   = "Verify toolchain.executable in the configuration."

	DoctorLockFreeFmt        = "No installation in progress (%s)"
	DoctorLockHeldFmt        = "Installation in progress by %s (pid %d on %s, heartbeat %s)"
	DoctorLockHeldRecommend  = "Wait for the other session to finish installing."
	DoctorLockStaleFmt       = "Abandoned installation lock left by %s (pid %d on %s)"
	DoctorLockStaleRecommend = "Run `pl lock clear-stale` to remove it."
	DoctorLockReadFailedFmt  = "Failed to read installation lock: %v"
	DoctorLockReadRecommend  = "Remove the lock with `pl lock destroy` if it is corrupt."

	DoctorWorkspaceNone         = "No workspace; PlatformIO tasks are disabled"
	DoctorWorkspaceRecommend    = "Pass --workspace or run from a PlatformIO project directory."
	DoctorWorkspaceNoProjectFmt = "%s has no platformio.ini"
	DoctorWorkspaceProjectFmt   = "PlatformIO project: %s"

	DoctorFailureSummary = "❌ Some checks failed or triggered warnings. Please address the items above."
	DoctorFailureError   = "doctor checks failed"
	DoctorSuccessSummary = "✅ All systems go. PlatformIO tasks are ready."

	DoctorStatusOKLabel        = "[OK]  "
	DoctorStatusWarnLabel      = "[WARN]"
	DoctorStatusFailLabel      = "[FAIL]"
	DoctorResultLineFmt        = "%s %-10s %s\n"
	DoctorRecommendationPrefix = "       💡 "
	DoctorRecommendationIndent = "         "
)
