// Package orchestrator wires user actions to the installation manager and
// the task gate for one session.
//
// Activate runs the install sequence once. Task actions stay disabled until
// it succeeds and a workspace is open; terminal actions are always available.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conn-castle/pio-layer/internal/installer"
	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/taskgate"
	"github.com/conn-castle/pio-layer/internal/toolchain"
)

// ErrNotReady is returned by task actions before a successful activation.
var ErrNotReady = errors.New(messages.OrchestratorNotReady)

// Installer runs the installation sequence.
type Installer interface {
	Ensure(ctx context.Context, reporter toolchain.Reporter) (installer.Outcome, error)
	Destroy() error
	Acquired() bool
}

// Gate dispatches tasks.
type Gate interface {
	Dispatch(ctx context.Context, kind taskgate.Kind) error
	Terminate(ctx context.Context) error
	IsMonitorActive() bool
}

// Channel is a named output pane.
type Channel interface {
	AppendLine(line string)
	Show()
}

// Notifier shows messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string, modal bool)
	Status(msg string)
	OutputChannel(name string) Channel
}

// Settings exposes live user settings.
type Settings interface {
	ForceUploadAndMonitor() bool
}

// Terminal runs commands in the PlatformIO terminal.
type Terminal interface {
	SendText(ctx context.Context, text string) error
	Open(ctx context.Context) error
	Close() error
}

// Deps are the collaborators of an Orchestrator. Settings and Terminal are
// optional; WorkspaceRoot empty disables task actions.
type Deps struct {
	Installer     Installer
	Gate          Gate
	Notifier      Notifier
	Settings      Settings
	Terminal      Terminal
	WorkspaceRoot string
	Logger        *slog.Logger
}

// Status is a snapshot of the session.
type Status struct {
	Activated     bool   `json:"activated"`
	Ready         bool   `json:"ready"`
	Outcome       string `json:"outcome,omitempty"`
	MonitorActive bool   `json:"monitor_active"`
	Workspace     string `json:"workspace,omitempty"`
}

// Orchestrator is the activation-time controller of a session.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger

	mu        sync.Mutex
	activated bool
	ready     bool
	outcome   installer.Outcome
}

// New validates deps and returns an inactive Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Installer == nil {
		return nil, errors.New(messages.OrchestratorInstallerRequired)
	}
	if deps.Gate == nil {
		return nil, errors.New(messages.OrchestratorGateRequired)
	}
	if deps.Notifier == nil {
		return nil, errors.New(messages.OrchestratorNotifierRequired)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{deps: deps, logger: logger.With("component", "orchestrator")}, nil
}

// Activate runs the install sequence and enables task actions when the
// toolchain is usable and a workspace is open. Install failures are shown to
// the user, never returned; only context errors are.
func (o *Orchestrator) Activate(ctx context.Context) error {
	notifier := o.deps.Notifier
	var channel Channel
	reporter := toolchain.ReporterFunc(func(p toolchain.Progress) {
		switch p.Stage {
		case toolchain.StageInstalling:
			notifier.Status(p.Message)
			channel = notifier.OutputChannel(messages.OrchestratorInstallChannel)
			channel.Show()
			channel.AppendLine(messages.OrchestratorInstallIntro1)
			channel.AppendLine(messages.OrchestratorInstallIntro2)
		case toolchain.StageOutput:
			if channel != nil {
				channel.AppendLine(p.Message)
			}
		default:
			notifier.Status(p.Message)
		}
	})

	outcome, err := o.deps.Installer.Ensure(ctx, reporter)
	if ctxErr := ctx.Err(); ctxErr != nil {
		o.logger.Warn("activation interrupted", "error", ctxErr)
		return ctxErr
	}
	o.logger.Info("install sequence finished", "outcome", outcome.String())

	usable := false
	switch outcome {
	case installer.OutcomeSatisfied:
		usable = true
	case installer.OutcomeInstalled:
		if channel != nil {
			channel.AppendLine(messages.OrchestratorInstallSucceeded)
		}
		usable = true
	case installer.OutcomeLockedByOther:
		notifier.Info(messages.OrchestratorLockedByOther)
	default:
		o.logger.Error("install sequence failed", "error", err)
		if err != nil {
			notifier.Error(err.Error(), true)
		}
		if channel != nil {
			channel.AppendLine(messages.OrchestratorInstallFailed)
		}
	}
	// Only a session that took the lock owns the record.
	if o.deps.Installer.Acquired() {
		if err := o.deps.Installer.Destroy(); err != nil {
			o.logger.Warn("destroy installation lock", "error", err)
		}
	}

	ready := usable && o.deps.WorkspaceRoot != ""
	if usable && !ready {
		o.logger.Info("no workspace, task actions disabled")
		notifier.Info(messages.OrchestratorNoWorkspace)
	}
	o.mu.Lock()
	o.activated = true
	o.ready = ready
	o.outcome = outcome
	o.mu.Unlock()
	return nil
}

// Ready reports whether task actions are enabled.
func (o *Orchestrator) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

// Status returns a snapshot of the session.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{
		Activated:     o.activated,
		Ready:         o.ready,
		MonitorActive: o.deps.Gate.IsMonitorActive(),
		Workspace:     o.deps.WorkspaceRoot,
	}
	if o.activated {
		st.Outcome = o.outcome.String()
	}
	return st
}

// Run performs action.
func (o *Orchestrator) Run(ctx context.Context, action Action) error {
	if kind, ok := taskActions[action]; ok {
		if !o.Ready() {
			return ErrNotReady
		}
		if kind == taskgate.Upload && o.deps.Settings != nil && o.deps.Settings.ForceUploadAndMonitor() {
			kind = taskgate.UploadAndMonitor
		}
		o.logger.Info("run action", "action", string(action), "task", kind.TaskName())
		return o.deps.Gate.Dispatch(ctx, kind)
	}

	if o.deps.Terminal == nil {
		return ErrNotReady
	}
	if text, ok := terminalCommands[action]; ok {
		o.logger.Info("run action", "action", string(action), "command", text)
		return o.deps.Terminal.SendText(ctx, text)
	}
	if action == ActionNewTerminal {
		return o.deps.Terminal.Open(ctx)
	}
	return fmt.Errorf(messages.OrchestratorUnknownActionFmt, string(action))
}

// Build dispatches the build task.
func (o *Orchestrator) Build(ctx context.Context) error { return o.Run(ctx, ActionBuild) }

// Upload dispatches upload, or upload-and-monitor when forced by settings.
func (o *Orchestrator) Upload(ctx context.Context) error { return o.Run(ctx, ActionUpload) }

// Clean dispatches the clean task.
func (o *Orchestrator) Clean(ctx context.Context) error { return o.Run(ctx, ActionClean) }

// SerialMonitor dispatches the serial monitor.
func (o *Orchestrator) SerialMonitor(ctx context.Context) error { return o.Run(ctx, ActionMonitor) }

// Deactivate stops an active monitor and closes the terminal.
func (o *Orchestrator) Deactivate(ctx context.Context) error {
	var errs []error
	if err := o.deps.Gate.Terminate(ctx); err != nil {
		errs = append(errs, err)
	}
	if o.deps.Terminal != nil {
		if err := o.deps.Terminal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	o.mu.Lock()
	o.ready = false
	o.mu.Unlock()
	return errors.Join(errs...)
}
