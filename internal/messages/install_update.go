package messages

// Toolchain and installation messages.
const (
	// ToolchainExecutableRequired indicates the probe needs an executable name.
	ToolchainExecutableRequired      = "toolchain executable is required"
	ToolchainNotFound                = "platformio core not found"
	ToolchainVersionCommandFailedFmt = "run %s --version: %w"
	ToolchainVersionUnparsableFmt    = "unrecognized version output %q"
	ToolchainInstallCommandRequired  = "install command is required"
	ToolchainInstallStartFailedFmt   = "start install command %q: %w"
	ToolchainInstallFailedFmt        = "install command %q failed: %w"
	ToolchainInstallStreamFailedFmt  = "read install output: %w"

	// VersionRequired indicates an empty version string.
	VersionRequired   = "version is required"
	VersionInvalidFmt = "invalid version %q: %w"
	VersionCompareFmt = "compare versions %q and %q: %w"

	// InstallerStoreRequired indicates the manager needs a lock store.
	InstallerStoreRequired      = "installer lock store is required"
	InstallerProbeRequired      = "installer probe is required"
	InstallerOwnerRequired      = "installer owner id is required"
	InstallerMinVersionRequired = "installer minimum version is required"
	InstallerLockNotHeld        = "install requires the installation lock"
	InstallerLockHeldByOtherFmt = "installation lock is held by another session (%s)"
	InstallerToolNotFound       = "platformio core is not installed"
	InstallerVersionBelowMinFmt = "platformio core %s is below the minimum %s"
	InstallerProcedureFailedFmt = "platformio core installation failed: %v"
	InstallerStillBelowMinFmt   = "installed platformio core %s is still below the minimum %s"
	InstallerAcquireFailedFmt   = "acquire installation lock: %w"
	InstallerReleaseFailedFmt   = "release installation lock: %w"
	InstallerDestroyFailedFmt   = "destroy installation lock: %w"
	InstallerStateReadFailedFmt = "read installation lock: %w"
	InstallerCheckFailedFmt     = "check platformio core: %w"

	// InstallerProgressChecking is reported before probing the toolchain.
	InstallerProgressChecking   = "Verifying PlatformIO Core installation..."
	InstallerProgressInstalling = "Installing PlatformIO IDE..."
	InstallerProgressVerifying  = "Verifying installed PlatformIO Core..."
	InstallerProgressDone       = "PlatformIO Core is ready."
)
