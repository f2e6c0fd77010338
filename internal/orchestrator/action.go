package orchestrator

import (
	"fmt"
	"strings"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/taskgate"
)

// Action is a user-invoked command.
type Action string

// Actions available in a session.
const (
	ActionBuild          Action = "build"
	ActionUpload         Action = "upload"
	ActionClean          Action = "clean"
	ActionMonitor        Action = "monitor"
	ActionTest           Action = "test"
	ActionProgram        Action = "program"
	ActionLibraryManager Action = "library-manager"
	ActionNewTerminal    Action = "new-terminal"
	ActionUpdateCore     Action = "update-core"
	ActionUpgradeCore    Action = "upgrade-core"
)

var taskActions = map[Action]taskgate.Kind{
	ActionBuild:   taskgate.Build,
	ActionUpload:  taskgate.Upload,
	ActionClean:   taskgate.Clean,
	ActionMonitor: taskgate.Monitor,
	ActionTest:    taskgate.Test,
	ActionProgram: taskgate.Program,
}

var terminalCommands = map[Action]string{
	ActionLibraryManager: messages.TerminalLibraryManager,
	ActionUpdateCore:     messages.TerminalUpdateCore,
	ActionUpgradeCore:    messages.TerminalUpgradeCore,
}

// Actions returns every action in menu order.
func Actions() []Action {
	return []Action{
		ActionBuild,
		ActionUpload,
		ActionClean,
		ActionMonitor,
		ActionTest,
		ActionProgram,
		ActionLibraryManager,
		ActionNewTerminal,
		ActionUpdateCore,
		ActionUpgradeCore,
	}
}

// IsTask reports whether a dispatches through the task gate.
func (a Action) IsTask() bool {
	_, ok := taskActions[a]
	return ok
}

// ParseAction accepts an action name case-insensitively.
func ParseAction(s string) (Action, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions() {
		if string(a) == needle {
			return a, nil
		}
	}
	return "", fmt.Errorf(messages.OrchestratorUnknownActionFmt, s)
}
