// Package installer implements the PlatformIO Core installation state machine.
//
// A Manager checks the installed version, takes the cross-session lock, runs
// the install procedure and always releases the lock afterwards. Only one
// session on a host installs at a time; the others observe LockedByOther and
// back off.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conn-castle/pio-layer/internal/lockstore"
	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/toolchain"
	"github.com/conn-castle/pio-layer/internal/version"
)

// DefaultHeartbeatEvery is how often an installing session refreshes the lock.
const DefaultHeartbeatEvery = 30 * time.Second

// LockStore is the cross-session installation lock.
type LockStore interface {
	Path() string
	Acquire(owner string) (bool, error)
	Release(owner string) error
	State(owner string) (lockstore.State, error)
	Heartbeat(owner string) error
	DestroyStaleIfOrphaned() (bool, error)
	Destroy() error
}

// Probe queries and installs the toolchain.
type Probe interface {
	InstalledVersion(ctx context.Context) (string, error)
	Install(ctx context.Context, reporter toolchain.Reporter) error
}

// Options configures a Manager.
type Options struct {
	Store          LockStore
	Probe          Probe
	Owner          string
	MinVersion     string
	HeartbeatEvery time.Duration
	Logger         *slog.Logger
	// OnTransition observes every state change.
	OnTransition func(from State, to State)
}

// Manager drives one session's installation attempt.
type Manager struct {
	store          LockStore
	probe          Probe
	owner          string
	minVersion     string
	heartbeatEvery time.Duration
	logger         *slog.Logger
	onTransition   func(from State, to State)

	mu       sync.Mutex
	state    State
	acquired bool
}

// New validates opts and returns an idle Manager.
func New(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf(messages.InstallerStoreRequired)
	}
	if opts.Probe == nil {
		return nil, fmt.Errorf(messages.InstallerProbeRequired)
	}
	if opts.Owner == "" {
		return nil, fmt.Errorf(messages.InstallerOwnerRequired)
	}
	if _, err := version.Parse(opts.MinVersion); err != nil {
		return nil, fmt.Errorf("%s: %w", messages.InstallerMinVersionRequired, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	heartbeatEvery := opts.HeartbeatEvery
	if heartbeatEvery <= 0 {
		heartbeatEvery = DefaultHeartbeatEvery
	}
	return &Manager{
		store:          opts.Store,
		probe:          opts.Probe,
		owner:          opts.Owner,
		minVersion:     opts.MinVersion,
		heartbeatEvery: heartbeatEvery,
		logger:         logger.With("component", "installer"),
		onTransition:   opts.OnTransition,
		state:          StateIdle,
	}, nil
}

// Owner returns the session id used as lock owner.
func (m *Manager) Owner() string {
	return m.owner
}

// MinVersion returns the minimum acceptable toolchain version.
func (m *Manager) MinVersion() string {
	return m.minVersion
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.mu.Unlock()
	if from == to {
		return
	}
	m.logger.Debug("state transition", "from", from.String(), "to", to.String())
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
}

// Check compares the installed toolchain against the minimum version.
// An absent toolchain is a Status, not an error.
func (m *Manager) Check(ctx context.Context) (Status, error) {
	m.setState(StateChecking)
	installed, err := m.probe.InstalledVersion(ctx)
	if errors.Is(err, toolchain.ErrNotFound) {
		m.setState(StateNeedsInstall)
		return Status{Kind: StatusAbsent, Minimum: m.minVersion}, nil
	}
	if err != nil {
		m.setState(StateIdle)
		return Status{}, fmt.Errorf(messages.InstallerCheckFailedFmt, err)
	}
	ok, err := version.AtLeast(installed, m.minVersion)
	if err != nil {
		m.setState(StateIdle)
		return Status{}, fmt.Errorf(messages.InstallerCheckFailedFmt, err)
	}
	if !ok {
		m.setState(StateNeedsInstall)
		return Status{Kind: StatusOutOfDate, Installed: installed, Minimum: m.minVersion}, nil
	}
	m.setState(StateSatisfied)
	return Status{Kind: StatusSatisfied, Installed: installed, Minimum: m.minVersion}, nil
}

// Locked reports whether another session holds the lock. A store read error
// is logged and treated as unlocked; Acquire remains the real arbiter.
func (m *Manager) Locked() bool {
	state, err := m.store.State(m.owner)
	if err != nil {
		m.logger.Warn("read installation lock", "error", err)
		return false
	}
	return state == lockstore.LockedByOther
}

// Acquire takes the lock for this session.
func (m *Manager) Acquire() error {
	ok, err := m.store.Acquire(m.owner)
	if err != nil {
		return fmt.Errorf(messages.InstallerAcquireFailedFmt, err)
	}
	if !ok {
		return &LockHeldByOtherError{Path: m.store.Path()}
	}
	m.mu.Lock()
	m.acquired = true
	m.mu.Unlock()
	return nil
}

// Acquired reports whether this session has ever taken the lock, and so
// owns the record's cleanup.
func (m *Manager) Acquired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Install runs the install procedure. The lock must already be held by this
// session; it is released on every exit path, including panics.
func (m *Manager) Install(ctx context.Context, reporter toolchain.Reporter) (err error) {
	if reporter == nil {
		reporter = toolchain.Discard
	}
	state, err := m.store.State(m.owner)
	if err != nil {
		if relErr := m.store.Release(m.owner); relErr != nil {
			m.logger.Error("release installation lock", "error", relErr)
		}
		return fmt.Errorf(messages.InstallerStateReadFailedFmt, err)
	}
	if state != lockstore.LockedBySelf {
		return ErrLockNotHeld
	}

	m.setState(StateInstalling)
	stopHeartbeat := m.startHeartbeat()
	completed := false
	defer func() {
		stopHeartbeat()
		if relErr := m.store.Release(m.owner); relErr != nil {
			m.logger.Error("release installation lock", "error", relErr)
			if err == nil {
				err = fmt.Errorf(messages.InstallerReleaseFailedFmt, relErr)
			}
		}
		if err != nil || !completed {
			m.setState(StateFailed)
		} else {
			m.setState(StateInstalled)
		}
		m.setState(StateIdle)
	}()

	reporter.Report(toolchain.Progress{Stage: toolchain.StageInstalling, Message: messages.InstallerProgressInstalling})
	if err := m.probe.Install(ctx, reporter); err != nil {
		m.logger.Error("install procedure failed", "error", err)
		return &InstallProcedureError{Err: err}
	}

	reporter.Report(toolchain.Progress{Stage: toolchain.StageVerifying, Message: messages.InstallerProgressVerifying})
	installed, err := m.probe.InstalledVersion(ctx)
	if err != nil {
		return &InstallProcedureError{Err: err}
	}
	ok, err := version.AtLeast(installed, m.minVersion)
	if err != nil {
		return &InstallProcedureError{Err: err}
	}
	if !ok {
		return &InstallProcedureError{Err: fmt.Errorf(messages.InstallerStillBelowMinFmt, installed, m.minVersion)}
	}

	completed = true
	m.logger.Info("platformio core installed", "version", installed)
	reporter.Report(toolchain.Progress{Stage: toolchain.StageDone, Message: messages.InstallerProgressDone})
	return nil
}

// Destroy unconditionally removes the lock record. It is called once by the
// lock's own owner after a completed attempt and is safe to repeat.
func (m *Manager) Destroy() error {
	if err := m.store.Destroy(); err != nil {
		return fmt.Errorf(messages.InstallerDestroyFailedFmt, err)
	}
	return nil
}

// Ensure runs the full check → acquire → install sequence and always ends Idle.
// When another session holds the lock it returns OutcomeLockedByOther with a
// *LockHeldByOtherError and leaves the state untouched.
func (m *Manager) Ensure(ctx context.Context, reporter toolchain.Reporter) (Outcome, error) {
	if reporter == nil {
		reporter = toolchain.Discard
	}
	if removed, err := m.store.DestroyStaleIfOrphaned(); err != nil {
		m.logger.Warn("clear stale installation lock", "error", err)
	} else if removed {
		m.logger.Info("removed stale installation lock", "path", m.store.Path())
	}
	if m.Locked() {
		m.logger.Info("installation suspended, lock held by another session", "path", m.store.Path())
		return OutcomeLockedByOther, &LockHeldByOtherError{Path: m.store.Path()}
	}

	defer m.setState(StateIdle)
	reporter.Report(toolchain.Progress{Stage: toolchain.StageChecking, Message: messages.InstallerProgressChecking})
	status, err := m.Check(ctx)
	if err != nil {
		return OutcomeFailed, err
	}
	if status.Satisfied() {
		return OutcomeSatisfied, nil
	}
	m.logger.Info("install required", "reason", status.Err().Error())

	if err := m.Acquire(); err != nil {
		if IsLockHeldByOther(err) {
			return OutcomeLockedByOther, err
		}
		return OutcomeFailed, err
	}
	if err := m.Install(ctx, reporter); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeInstalled, nil
}

// startHeartbeat refreshes the lock until the returned stop func is called.
func (m *Manager) startHeartbeat() func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(m.heartbeatEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := m.store.Heartbeat(m.owner); err != nil {
					m.logger.Warn("refresh installation lock", "error", err)
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
		})
	}
}
