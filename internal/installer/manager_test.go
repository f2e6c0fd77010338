package installer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/pio-layer/internal/lockstore"
	"github.com/conn-castle/pio-layer/internal/toolchain"
)

const minVersion = "3.4.1-a.6"

// fakeProbe is a toolchain whose installed version changes after Install.
type fakeProbe struct {
	mu             sync.Mutex
	version        string
	versionErr     error
	installErr     error
	installVersion string
	installs       int
	onInstall      func(ctx context.Context)
	lines          []string
}

func (p *fakeProbe) InstalledVersion(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.versionErr != nil {
		return "", p.versionErr
	}
	if p.version == "" {
		return "", toolchain.ErrNotFound
	}
	return p.version, nil
}

func (p *fakeProbe) Install(ctx context.Context, reporter toolchain.Reporter) error {
	p.mu.Lock()
	p.installs++
	hook := p.onInstall
	lines := p.lines
	p.mu.Unlock()
	for _, line := range lines {
		reporter.Report(toolchain.Progress{Stage: toolchain.StageOutput, Message: line})
	}
	if hook != nil {
		hook(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.installErr != nil {
		return p.installErr
	}
	if p.installVersion != "" {
		p.version = p.installVersion
	}
	return nil
}

func (p *fakeProbe) installCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installs
}

type countingStore struct {
	*lockstore.Store
	heartbeats atomic.Int32
}

func (s *countingStore) Heartbeat(owner string) error {
	s.heartbeats.Add(1)
	return s.Store.Heartbeat(owner)
}

// flakyStateStore fails State reads once this session holds the lock.
type flakyStateStore struct {
	*lockstore.Store
	held atomic.Bool
}

func (s *flakyStateStore) Acquire(owner string) (bool, error) {
	ok, err := s.Store.Acquire(owner)
	if ok {
		s.held.Store(true)
	}
	return ok, err
}

func (s *flakyStateStore) State(owner string) (lockstore.State, error) {
	if s.held.Load() {
		return lockstore.Unlocked, errors.New("guard timeout")
	}
	return s.Store.State(owner)
}

func newStore(t *testing.T, path string) *lockstore.Store {
	t.Helper()
	store, err := lockstore.New(path, lockstore.Options{})
	require.NoError(t, err)
	return store
}

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".cache-ide", "install.lock")
}

type transitionLog struct {
	mu     sync.Mutex
	states []State
}

func (l *transitionLog) record(_ State, to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, to)
}

func (l *transitionLog) get() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func newManager(t *testing.T, store LockStore, probe Probe, owner string, log *transitionLog) *Manager {
	t.Helper()
	opts := Options{Store: store, Probe: probe, Owner: owner, MinVersion: minVersion}
	if log != nil {
		opts.OnTransition = log.record
	}
	m, err := New(opts)
	require.NoError(t, err)
	return m
}

func TestNewValidatesOptions(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{}

	_, err := New(Options{Probe: probe, Owner: "a", MinVersion: minVersion})
	require.Error(t, err)
	_, err = New(Options{Store: store, Owner: "a", MinVersion: minVersion})
	require.Error(t, err)
	_, err = New(Options{Store: store, Probe: probe, MinVersion: minVersion})
	require.Error(t, err)
	_, err = New(Options{Store: store, Probe: probe, Owner: "a", MinVersion: "nope"})
	require.Error(t, err)
}

func TestCheckStatuses(t *testing.T) {
	cases := []struct {
		name      string
		installed string
		want      StatusKind
		wantState State
		wantErr   error
	}{
		{"release above pre-release minimum", "3.4.1", StatusSatisfied, StateSatisfied, nil},
		{"newer release", "6.1.11", StatusSatisfied, StateSatisfied, nil},
		{"older release", "3.4.0", StatusOutOfDate, StateNeedsInstall, &VersionBelowMinimumError{}},
		{"older pre-release", "3.4.1-a.5", StatusOutOfDate, StateNeedsInstall, &VersionBelowMinimumError{}},
		{"absent", "", StatusAbsent, StateNeedsInstall, &ToolNotFoundError{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newManager(t, newStore(t, lockPath(t)), &fakeProbe{version: tc.installed}, "a", nil)
			status, err := m.Check(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.want, status.Kind)
			require.Equal(t, tc.wantState, m.State())
			require.Equal(t, tc.installed, status.Installed)
			if tc.wantErr == nil {
				require.NoError(t, status.Err())
				require.True(t, status.Satisfied())
			} else {
				require.IsType(t, tc.wantErr, status.Err())
				require.False(t, status.Satisfied())
			}
		})
	}
}

func TestCheckProbeError(t *testing.T) {
	m := newManager(t, newStore(t, lockPath(t)), &fakeProbe{versionErr: errors.New("exec format error")}, "a", nil)
	_, err := m.Check(context.Background())
	require.Error(t, err)
	require.Equal(t, StateIdle, m.State())
}

func TestInstallRequiresLock(t *testing.T) {
	probe := &fakeProbe{installVersion: "6.1.11"}
	m := newManager(t, newStore(t, lockPath(t)), probe, "a", nil)

	err := m.Install(context.Background(), nil)
	require.ErrorIs(t, err, ErrLockNotHeld)
	require.Equal(t, 0, probe.installCount())
}

func TestInstallSuccessReleasesLock(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{installVersion: "6.1.11", lines: []string{"Collecting platformio"}}
	log := &transitionLog{}
	m := newManager(t, store, probe, "a", log)

	require.NoError(t, m.Acquire())
	var events []toolchain.Progress
	err := m.Install(context.Background(), toolchain.ReporterFunc(func(p toolchain.Progress) {
		events = append(events, p)
	}))
	require.NoError(t, err)

	state, err := store.State("a")
	require.NoError(t, err)
	require.Equal(t, lockstore.Unlocked, state)
	require.Equal(t, []State{StateInstalling, StateInstalled, StateIdle}, log.get())

	stages := make([]toolchain.Stage, 0, len(events))
	for _, e := range events {
		stages = append(stages, e.Stage)
	}
	require.Equal(t, []toolchain.Stage{
		toolchain.StageInstalling,
		toolchain.StageOutput,
		toolchain.StageVerifying,
		toolchain.StageDone,
	}, stages)
}

func TestInstallFailureReleasesLock(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{installErr: errors.New("pip exploded")}
	log := &transitionLog{}
	m := newManager(t, store, probe, "a", log)

	require.NoError(t, m.Acquire())
	err := m.Install(context.Background(), nil)
	require.Error(t, err)
	require.True(t, IsInstallProcedure(err))
	require.Contains(t, err.Error(), "pip exploded")

	state, err := store.State("b")
	require.NoError(t, err)
	require.Equal(t, lockstore.Unlocked, state)
	require.Equal(t, []State{StateInstalling, StateFailed, StateIdle}, log.get())
	require.Equal(t, StateIdle, m.State())
}

func TestInstallStateReadFailureReleasesLock(t *testing.T) {
	store := &flakyStateStore{Store: newStore(t, lockPath(t))}
	probe := &fakeProbe{installVersion: "6.1.11"}
	m := newManager(t, store, probe, "a", nil)

	require.NoError(t, m.Acquire())
	err := m.Install(context.Background(), nil)
	require.ErrorContains(t, err, "guard timeout")
	require.Equal(t, 0, probe.installCount())

	_, found, err := store.Read()
	require.NoError(t, err)
	require.False(t, found, "lock must not outlive a failed install")
}

func TestEnsureStateReadFailureAfterAcquire(t *testing.T) {
	store := &flakyStateStore{Store: newStore(t, lockPath(t))}
	probe := &fakeProbe{}
	m := newManager(t, store, probe, "a", nil)

	outcome, err := m.Ensure(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, outcome)
	require.True(t, m.Acquired())

	_, found, err := store.Read()
	require.NoError(t, err)
	require.False(t, found)
}

func TestInstallStillBelowMinimumFails(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{installVersion: "3.0.0"}
	m := newManager(t, store, probe, "a", nil)

	require.NoError(t, m.Acquire())
	err := m.Install(context.Background(), nil)
	require.True(t, IsInstallProcedure(err))
	require.Contains(t, err.Error(), "still below the minimum")

	state, err := store.State("a")
	require.NoError(t, err)
	require.Equal(t, lockstore.Unlocked, state)
}

func TestInstallPanicReleasesLock(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{onInstall: func(context.Context) { panic("boom") }}
	m := newManager(t, store, probe, "a", nil)
	require.NoError(t, m.Acquire())

	require.PanicsWithValue(t, "boom", func() {
		_ = m.Install(context.Background(), nil)
	})

	state, err := store.State("a")
	require.NoError(t, err)
	require.Equal(t, lockstore.Unlocked, state)
	require.Equal(t, StateIdle, m.State())
}

func TestInstallRefreshesHeartbeat(t *testing.T) {
	store := &countingStore{Store: newStore(t, lockPath(t))}
	probe := &fakeProbe{
		installVersion: "6.1.11",
		onInstall:      func(context.Context) { time.Sleep(80 * time.Millisecond) },
	}
	m, err := New(Options{Store: store, Probe: probe, Owner: "a", MinVersion: minVersion, HeartbeatEvery: 10 * time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, m.Acquire())
	require.NoError(t, m.Install(context.Background(), nil))
	require.Greater(t, store.heartbeats.Load(), int32(0))
}

func TestDestroyTwiceIsSafe(t *testing.T) {
	store := newStore(t, lockPath(t))
	m := newManager(t, store, &fakeProbe{}, "a", nil)
	require.NoError(t, m.Acquire())

	require.NoError(t, m.Destroy())
	require.NoError(t, m.Destroy())

	_, found, err := store.Read()
	require.NoError(t, err)
	require.False(t, found)
}

func TestEnsureSatisfiedSkipsLock(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{version: "3.4.1"}
	m := newManager(t, store, probe, "a", nil)

	outcome, err := m.Ensure(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSatisfied, outcome)
	require.Equal(t, 0, probe.installCount())
	require.Equal(t, StateIdle, m.State())
	require.False(t, m.Acquired())
}

func TestEnsureInstallsWhenOutOfDate(t *testing.T) {
	store := newStore(t, lockPath(t))
	probe := &fakeProbe{version: "3.4.0", installVersion: "6.1.11"}
	log := &transitionLog{}
	m := newManager(t, store, probe, "a", log)

	outcome, err := m.Ensure(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeInstalled, outcome)
	require.Equal(t, 1, probe.installCount())
	require.True(t, m.Acquired())
	require.Equal(t, []State{
		StateChecking,
		StateNeedsInstall,
		StateInstalling,
		StateInstalled,
		StateIdle,
	}, log.get())

	state, err := store.State("a")
	require.NoError(t, err)
	require.Equal(t, lockstore.Unlocked, state)
}

func TestEnsureLockedByOtherDoesNotMutate(t *testing.T) {
	path := lockPath(t)
	other := newStore(t, path)
	ok, err := other.Acquire("other-window")
	require.NoError(t, err)
	require.True(t, ok)

	probe := &fakeProbe{}
	log := &transitionLog{}
	m := newManager(t, newStore(t, path), probe, "a", log)

	require.True(t, m.Locked())
	outcome, err := m.Ensure(context.Background(), nil)
	require.Equal(t, OutcomeLockedByOther, outcome)
	require.True(t, IsLockHeldByOther(err))
	require.Empty(t, log.get())
	require.Equal(t, 0, probe.installCount())
	require.False(t, m.Acquired())

	state, err := other.State("other-window")
	require.NoError(t, err)
	require.Equal(t, lockstore.LockedBySelf, state, "the other session keeps its lock")
}

func TestEnsureClearsOrphanedLock(t *testing.T) {
	path := lockPath(t)
	crashed := newStore(t, path)
	ok, err := crashed.Acquire("crashed-window")
	require.NoError(t, err)
	require.True(t, ok)
	// Rewrite the record as if a dead process on this host owned it.
	store, err := lockstore.New(path, lockstore.Options{System: deadOwnerSystem{}})
	require.NoError(t, err)

	probe := &fakeProbe{installVersion: "6.1.11"}
	m := newManager(t, store, probe, "a", nil)
	outcome, err := m.Ensure(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeInstalled, outcome)
}

type deadOwnerSystem struct {
	lockstore.RealSystem
}

func (deadOwnerSystem) ProcessAlive(int) bool { return false }

func TestConcurrentSessionsExactlyOneInstalls(t *testing.T) {
	path := lockPath(t)
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var mu sync.Mutex
	installed := false
	shared := func(ctx context.Context) {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		mu.Lock()
		installed = true
		mu.Unlock()
	}
	probeA := &fakeProbe{installVersion: "6.1.11", onInstall: shared}
	probeB := &fakeProbe{installVersion: "6.1.11", onInstall: shared}
	a := newManager(t, newStore(t, path), probeA, "window-a", nil)
	b := newManager(t, newStore(t, path), probeB, "window-b", nil)

	type result struct {
		outcome Outcome
		err     error
	}
	results := make(chan result, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, m := range []*Manager{a, b} {
		go func(m *Manager) {
			outcome, err := m.Ensure(ctx, nil)
			results <- result{outcome, err}
		}(m)
	}

	first := <-results
	assert.Equal(t, OutcomeLockedByOther, first.outcome)
	assert.True(t, IsLockHeldByOther(first.err))

	<-started
	close(release)
	second := <-results
	require.NoError(t, second.err)
	require.Equal(t, OutcomeInstalled, second.outcome)

	require.Equal(t, 1, probeA.installCount()+probeB.installCount())
	mu.Lock()
	require.True(t, installed)
	mu.Unlock()
}
