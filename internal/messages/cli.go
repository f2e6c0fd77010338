package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse = "pl"
	// RootShort is the short description for the root command.
	RootShort               = "PlatformIO session coordinator"
	RootVersionFlag         = "Print version and exit"
	RootWorkspaceFlag       = "PlatformIO project directory (defaults to the nearest platformio.ini above the working directory)"
	RootVerboseFlag         = "Echo log records to stderr"
	RootStartPathRequired   = "start path is required"
	RootProjectFileIsDirFmt = "%s is a directory, expected a file"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	// SessionUse is the session command name.
	SessionUse               = "session"
	SessionShort             = "Activate PlatformIO in a workspace and run actions until quit"
	SessionLong              = "Checks and installs PlatformIO Core when needed, then offers build, upload, clean, monitor and terminal actions. Reads one action per line from stdin when it is not a terminal."
	SessionStartedFmt        = "Session %s started in %s\n"
	SessionConfigReloadedFmt = "Configuration reloaded from %s\n"

	// InstallUse is the install command name.
	InstallUse   = "install"
	InstallShort = "Install or upgrade PlatformIO Core under the cross-session lock"

	// CheckUse is the check command name.
	CheckUse       = "check"
	CheckShort     = "Report the installed PlatformIO Core version against the minimum"
	CheckResultFmt = "%s (installed %q, minimum %s)\n"

	// LockUse is the lock command name.
	LockUse             = "lock"
	LockShort           = "Inspect or clear the installation lock"
	LockStatusUse       = "status"
	LockStatusShort     = "Show the installation lock record"
	LockClearStaleUse   = "clear-stale"
	LockClearStaleShort = "Remove the lock when its owner is gone or its heartbeat expired"
	LockDestroyUse      = "destroy"
	LockDestroyShort    = "Remove the lock unconditionally"
	LockNoneFmt         = "No installation lock at %s\n"
	LockRecordFmt       = "owner=%s pid=%d host=%s created=%s heartbeat=%s stale=%t\n"
	LockClearedFmt      = "Removed abandoned lock %s\n"
	LockNotStaleFmt     = "Lock %s is held by a live session; left in place\n"
	LockDestroyedFmt    = "Removed lock %s\n"

	// TaskShortFmt describes the one-shot task commands.
	TaskShortFmt       = "Run the PlatformIO %s task in the current project"
	TaskMonitorWaiting = "Monitor running; press Ctrl-C to stop."

	// McpTasksUse is the mcp-tasks command name.
	McpTasksUse   = "mcp-tasks"
	McpTasksShort = "Serve PlatformIO task tools over MCP stdio"
)
