package messages

// System messages for lock store and process-level operations.
const (
	// LockstorePathRequired indicates a lock path is required.
	LockstorePathRequired  = "lock path is required"
	LockstoreOwnerRequired = "lock owner is required"

	LockstoreOpenGuardFmt    = "open lock guard %s: %w"
	LockstoreGuardFmt        = "lock guard %s: %w"
	LockstoreGuardTimeoutFmt = "timed out waiting for lock guard after %s"
	LockstoreCreateDirFmt    = "create lock dir %s: %w"
	LockstoreCreateFmt       = "create lock %s: %w"
	LockstoreReadFmt         = "read lock %s: %w"
	LockstoreEncodeFmt       = "encode lock record: %w"
	LockstoreWriteFmt        = "write lock %s: %w"
	LockstoreRemoveFmt       = "remove lock %s: %w"

	// FsutilCreateTempFileFmt formats temp file creation errors.
	FsutilCreateTempFileFmt = "create temp file for %s: %w"
	FsutilWriteTempFileFmt  = "write temp file for %s: %w"
	FsutilSyncTempFileFmt   = "sync temp file for %s: %w"
	FsutilCloseTempFileFmt  = "close temp file for %s: %w"
	FsutilRenameTempFileFmt = "rename temp file for %s: %w"

	// LoggingCreateDirFmt formats log directory errors.
	LoggingCreateDirFmt = "create log dir %s: %w"
	LoggingOpenFileFmt  = "open log file %s: %w"

	// TerminalShellFallback is used when $SHELL is unset.
	TerminalShellFallback = "/bin/sh"
	TerminalRunFailedFmt  = "terminal command %q failed: %w"
	TerminalClosed        = "terminal is closed"
)
