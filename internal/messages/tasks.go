package messages

// Task gate and host task messages.
const (
	// TaskgateTasksRequired indicates the gate needs a host task system.
	TaskgateTasksRequired       = "task system is required"
	TaskgateUnknownKindFmt      = "unknown task %q"
	TaskgateDispatchFailedFmt   = "dispatch %s: %w"
	TaskgateNoActiveTask        = "no active task"
	TaskgateTerminateTimeoutFmt = "monitor termination not acknowledged after %s"

	// HostUnknownTaskFmt indicates a task name with no command mapping.
	HostUnknownTaskFmt     = "no command for task %q"
	HostStartTaskFailedFmt = "start %q: %w"
	HostTaskFailedFmt      = "%q failed: %w"
	HostStartPTYFailedFmt  = "start %q under a pseudo-terminal: %w"
	HostSignalFailedFmt    = "signal %q: %w"
	HostExecutableRequired = "task executable is required"

	// NotifierModalHeader frames modal errors.
	NotifierModalHeader      = "──── PlatformIO ────"
	NotifierModalFooter      = "────────────────────"
	NotifierStatusFmt        = "PlatformIO: %s"
	NotifierChannelHeaderFmt = "=== %s ==="
	NotifierChannelLineFmt   = "[%s] %s"

	// OrchestratorInstallerRequired indicates a missing collaborator.
	OrchestratorInstallerRequired = "installer is required"
	OrchestratorGateRequired      = "task gate is required"
	OrchestratorNotifierRequired  = "notifier is required"
	OrchestratorNotReady          = "platformio tasks are not available in this session"
	OrchestratorUnknownActionFmt  = "unknown action %q"

	// OrchestratorInstallChannel names the output channel used during installation.
	OrchestratorInstallChannel   = "PlatformIO Installation"
	OrchestratorInstallIntro1    = "Installing PlatformIO Core..."
	OrchestratorInstallIntro2    = "Please don't close this session and don't open other projects until this process is completed."
	OrchestratorInstallSucceeded = "PlatformIO IDE installed successfully."
	OrchestratorInstallFailed    = "Failed to install PlatformIO IDE."
	OrchestratorLockedByOther    = "PlatformIO IDE installation has been suspended, because PlatformIO IDE Installer is already started in another window."
	OrchestratorNoWorkspace      = "No project is open; PlatformIO tasks are disabled."

	// TerminalLibraryManager is the command typed for the library manager.
	TerminalLibraryManager = "pio lib"
	TerminalUpdateCore     = "pio update"
	TerminalUpgradeCore    = "pio upgrade"
)

// Session messages.
const (
	// SessionRequiresTerminal indicates the menu needs an interactive terminal.
	SessionRequiresTerminal = "the action menu requires an interactive terminal"
	SessionInvalidInput     = "invalid input"
	SessionPickTitle        = "PlatformIO: choose an action"
	SessionActionFailedFmt  = "%s: %v"
)

// MCP task server messages.
const (
	// McpRunTaskServerFailedFmt wraps a task server run failure.
	McpRunTaskServerFailedFmt = "run task server: %w"
	McpRunnerRequired         = "task server runner is required"
	McpTaskToolDescriptionFmt = "Run the PlatformIO %s task in the current session"
	McpStatusToolDescription  = "Report whether PlatformIO tasks are available and whether a monitor is active"
	McpTaskDispatchedFmt      = "%s dispatched"
)
