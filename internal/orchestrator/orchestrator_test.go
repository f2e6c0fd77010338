package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/pio-layer/internal/installer"
	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/taskgate"
	"github.com/conn-castle/pio-layer/internal/toolchain"
)

type fakeInstaller struct {
	outcome  installer.Outcome
	err      error
	progress []toolchain.Progress
	acquired bool
	destroys int
}

func (f *fakeInstaller) Ensure(ctx context.Context, reporter toolchain.Reporter) (installer.Outcome, error) {
	for _, p := range f.progress {
		reporter.Report(p)
	}
	return f.outcome, f.err
}

func (f *fakeInstaller) Destroy() error {
	f.destroys++
	return nil
}

func (f *fakeInstaller) Acquired() bool { return f.acquired }

type fakeGate struct {
	mu         sync.Mutex
	dispatched []taskgate.Kind
	terminates int
	monitor    bool
	err        error
}

func (g *fakeGate) Dispatch(_ context.Context, kind taskgate.Kind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dispatched = append(g.dispatched, kind)
	if kind.IsMonitor() {
		g.monitor = true
	}
	return g.err
}

func (g *fakeGate) Terminate(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.terminates++
	g.monitor = false
	return nil
}

func (g *fakeGate) IsMonitorActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.monitor
}

type fakeChannel struct {
	name  string
	lines []string
	shown bool
}

func (c *fakeChannel) AppendLine(line string) { c.lines = append(c.lines, line) }

func (c *fakeChannel) Show() { c.shown = true }

type fakeNotifier struct {
	infos    []string
	errors   []string
	modal    []bool
	statuses []string
	channels []*fakeChannel
}

func (n *fakeNotifier) Info(msg string) { n.infos = append(n.infos, msg) }

func (n *fakeNotifier) Error(msg string, modal bool) {
	n.errors = append(n.errors, msg)
	n.modal = append(n.modal, modal)
}

func (n *fakeNotifier) Status(msg string) { n.statuses = append(n.statuses, msg) }

func (n *fakeNotifier) OutputChannel(name string) Channel {
	ch := &fakeChannel{name: name}
	n.channels = append(n.channels, ch)
	return ch
}

type fakeSettings struct{ force bool }

func (s fakeSettings) ForceUploadAndMonitor() bool { return s.force }

type fakeTerminal struct {
	sent   []string
	opened int
	closed bool
}

func (t *fakeTerminal) SendText(_ context.Context, text string) error {
	t.sent = append(t.sent, text)
	return nil
}

func (t *fakeTerminal) Open(context.Context) error {
	t.opened++
	return nil
}

func (t *fakeTerminal) Close() error {
	t.closed = true
	return nil
}

type harness struct {
	inst     *fakeInstaller
	gate     *fakeGate
	notifier *fakeNotifier
	terminal *fakeTerminal
	orch     *Orchestrator
}

func newHarness(t *testing.T, inst *fakeInstaller, workspace string, settings Settings) harness {
	t.Helper()
	h := harness{inst: inst, gate: &fakeGate{}, notifier: &fakeNotifier{}, terminal: &fakeTerminal{}}
	orch, err := New(Deps{
		Installer:     inst,
		Gate:          h.gate,
		Notifier:      h.notifier,
		Settings:      settings,
		Terminal:      h.terminal,
		WorkspaceRoot: workspace,
	})
	require.NoError(t, err)
	h.orch = orch
	return h
}

var installProgress = []toolchain.Progress{
	{Stage: toolchain.StageChecking, Message: messages.InstallerProgressChecking},
	{Stage: toolchain.StageInstalling, Message: messages.InstallerProgressInstalling},
	{Stage: toolchain.StageOutput, Message: "Collecting platformio"},
	{Stage: toolchain.StageVerifying, Message: messages.InstallerProgressVerifying},
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{Gate: &fakeGate{}, Notifier: &fakeNotifier{}})
	require.Error(t, err)
	_, err = New(Deps{Installer: &fakeInstaller{}, Notifier: &fakeNotifier{}})
	require.Error(t, err)
	_, err = New(Deps{Installer: &fakeInstaller{}, Gate: &fakeGate{}})
	require.Error(t, err)
}

func TestActivateSatisfiedEnablesTasks(t *testing.T) {
	inst := &fakeInstaller{
		outcome:  installer.OutcomeSatisfied,
		progress: []toolchain.Progress{{Stage: toolchain.StageChecking, Message: messages.InstallerProgressChecking}},
	}
	h := newHarness(t, inst, "/work/blink", nil)

	require.False(t, h.orch.Ready())
	require.ErrorIs(t, h.orch.Build(context.Background()), ErrNotReady)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.True(t, h.orch.Ready())
	require.Empty(t, h.notifier.channels)
	require.Equal(t, 0, inst.destroys)
	require.Equal(t, []string{messages.InstallerProgressChecking}, h.notifier.statuses)

	require.NoError(t, h.orch.Build(context.Background()))
	require.Equal(t, []taskgate.Kind{taskgate.Build}, h.gate.dispatched)

	st := h.orch.Status()
	require.True(t, st.Activated)
	require.Equal(t, "satisfied", st.Outcome)
}

func TestActivateInstalledStreamsOutputAndDestroys(t *testing.T) {
	inst := &fakeInstaller{outcome: installer.OutcomeInstalled, progress: installProgress, acquired: true}
	h := newHarness(t, inst, "/work/blink", nil)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.True(t, h.orch.Ready())
	require.Equal(t, 1, inst.destroys)

	require.Len(t, h.notifier.channels, 1)
	ch := h.notifier.channels[0]
	require.Equal(t, messages.OrchestratorInstallChannel, ch.name)
	require.True(t, ch.shown)
	require.Equal(t, []string{
		messages.OrchestratorInstallIntro1,
		messages.OrchestratorInstallIntro2,
		"Collecting platformio",
		messages.OrchestratorInstallSucceeded,
	}, ch.lines)
}

func TestActivateInstallFailureIsModalAndDegraded(t *testing.T) {
	inst := &fakeInstaller{
		outcome:  installer.OutcomeFailed,
		err:      &installer.InstallProcedureError{Err: errors.New("pip exploded")},
		progress: installProgress,
		acquired: true,
	}
	h := newHarness(t, inst, "/work/blink", nil)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.False(t, h.orch.Ready())
	require.Len(t, h.notifier.errors, 1)
	require.Contains(t, h.notifier.errors[0], "pip exploded")
	require.Equal(t, []bool{true}, h.notifier.modal)
	require.Equal(t, messages.OrchestratorInstallFailed, h.notifier.channels[0].lines[len(h.notifier.channels[0].lines)-1])
	require.Equal(t, 1, inst.destroys)

	require.ErrorIs(t, h.orch.Upload(context.Background()), ErrNotReady)
	require.Empty(t, h.gate.dispatched)
}

func TestActivateLockedByOtherIsInformational(t *testing.T) {
	inst := &fakeInstaller{
		outcome: installer.OutcomeLockedByOther,
		err:     &installer.LockHeldByOtherError{Path: "/pio/.cache-ide/install.lock"},
	}
	h := newHarness(t, inst, "/work/blink", nil)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.False(t, h.orch.Ready())
	require.Equal(t, []string{messages.OrchestratorLockedByOther}, h.notifier.infos)
	require.Empty(t, h.notifier.errors)
	require.Equal(t, 0, inst.destroys, "the other session owns the lock")
}

func TestActivateCheckFailureDoesNotDestroy(t *testing.T) {
	inst := &fakeInstaller{outcome: installer.OutcomeFailed, err: errors.New("exec format error")}
	h := newHarness(t, inst, "/work/blink", nil)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.False(t, h.orch.Ready())
	require.Len(t, h.notifier.errors, 1)
	require.Equal(t, 0, inst.destroys)
}

func TestActivateFailureAfterAcquireDestroys(t *testing.T) {
	inst := &fakeInstaller{
		outcome:  installer.OutcomeFailed,
		err:      errors.New("read installation lock: guard timeout"),
		progress: []toolchain.Progress{{Stage: toolchain.StageChecking, Message: messages.InstallerProgressChecking}},
		acquired: true,
	}
	h := newHarness(t, inst, "/work/blink", nil)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.False(t, h.orch.Ready())
	require.Empty(t, h.notifier.channels)
	require.Len(t, h.notifier.errors, 1)
	require.Equal(t, 1, inst.destroys)
}

func TestActivateWithoutWorkspaceKeepsTasksDisabled(t *testing.T) {
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeSatisfied}, "", nil)

	require.NoError(t, h.orch.Activate(context.Background()))
	require.False(t, h.orch.Ready())
	require.Equal(t, []string{messages.OrchestratorNoWorkspace}, h.notifier.infos)
	require.ErrorIs(t, h.orch.SerialMonitor(context.Background()), ErrNotReady)

	require.NoError(t, h.orch.Run(context.Background(), ActionUpdateCore))
	require.Equal(t, []string{"pio update"}, h.terminal.sent)
}

func TestActivateReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeFailed, err: context.Canceled}, "/w", nil)

	require.ErrorIs(t, h.orch.Activate(ctx), context.Canceled)
	require.Empty(t, h.notifier.errors)
	require.False(t, h.orch.Ready())
}

func TestUploadHonorsForceUploadAndMonitor(t *testing.T) {
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeSatisfied}, "/w", fakeSettings{force: true})
	require.NoError(t, h.orch.Activate(context.Background()))

	require.NoError(t, h.orch.Upload(context.Background()))
	require.Equal(t, []taskgate.Kind{taskgate.UploadAndMonitor}, h.gate.dispatched)
	require.True(t, h.orch.Status().MonitorActive)
}

func TestUploadWithoutForce(t *testing.T) {
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeSatisfied}, "/w", fakeSettings{})
	require.NoError(t, h.orch.Activate(context.Background()))

	require.NoError(t, h.orch.Upload(context.Background()))
	require.NoError(t, h.orch.Clean(context.Background()))
	require.NoError(t, h.orch.Run(context.Background(), ActionTest))
	require.NoError(t, h.orch.Run(context.Background(), ActionProgram))
	require.Equal(t, []taskgate.Kind{taskgate.Upload, taskgate.Clean, taskgate.Test, taskgate.Program}, h.gate.dispatched)
}

func TestDispatchErrorsPropagate(t *testing.T) {
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeSatisfied}, "/w", nil)
	require.NoError(t, h.orch.Activate(context.Background()))
	h.gate.err = errors.New("host refused")

	require.EqualError(t, h.orch.Build(context.Background()), "host refused")
}

func TestTerminalActions(t *testing.T) {
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeSatisfied}, "/w", nil)
	ctx := context.Background()

	require.NoError(t, h.orch.Run(ctx, ActionLibraryManager))
	require.NoError(t, h.orch.Run(ctx, ActionUpgradeCore))
	require.NoError(t, h.orch.Run(ctx, ActionNewTerminal))
	require.Equal(t, []string{"pio lib", "pio upgrade"}, h.terminal.sent)
	require.Equal(t, 1, h.terminal.opened)
	require.Error(t, h.orch.Run(ctx, Action("dance")))
}

func TestTerminalActionsWithoutTerminal(t *testing.T) {
	orch, err := New(Deps{Installer: &fakeInstaller{}, Gate: &fakeGate{}, Notifier: &fakeNotifier{}})
	require.NoError(t, err)
	require.ErrorIs(t, orch.Run(context.Background(), ActionLibraryManager), ErrNotReady)
}

func TestDeactivate(t *testing.T) {
	h := newHarness(t, &fakeInstaller{outcome: installer.OutcomeSatisfied}, "/w", nil)
	ctx := context.Background()
	require.NoError(t, h.orch.Activate(ctx))
	require.NoError(t, h.orch.SerialMonitor(ctx))

	require.NoError(t, h.orch.Deactivate(ctx))
	require.Equal(t, 1, h.gate.terminates)
	require.True(t, h.terminal.closed)
	require.False(t, h.orch.Ready())
	require.False(t, h.orch.Status().MonitorActive)
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions() {
		got, err := ParseAction(" " + string(a) + " ")
		require.NoError(t, err)
		require.Equal(t, a, got)
	}
	got, err := ParseAction("BUILD")
	require.NoError(t, err)
	require.Equal(t, ActionBuild, got)
	_, err = ParseAction("flash")
	require.Error(t, err)

	require.True(t, ActionMonitor.IsTask())
	require.False(t, ActionNewTerminal.IsTask())
}
