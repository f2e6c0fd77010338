// Package taskgate serializes PlatformIO task dispatch.
//
// Monitor tasks hold the serial port until they are stopped, so before any
// new task starts the gate terminates the active monitor, waits for the port
// to settle and only then dispatches.
package taskgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// Default timings.
const (
	DefaultSettleDelay      = 500 * time.Millisecond
	DefaultTerminateTimeout = 5 * time.Second
)

// ErrNoActiveTask is returned by a TaskSystem when there is nothing to terminate.
var ErrNoActiveTask = errors.New(messages.TaskgateNoActiveTask)

// TaskSystem runs and terminates host tasks.
type TaskSystem interface {
	RunTask(ctx context.Context, name string) error
	TerminateActiveTask(ctx context.Context) error
}

// MonitorHandle records the monitor-class task started by the gate.
type MonitorHandle struct {
	Kind      Kind
	TaskName  string
	StartedAt time.Time
}

// Options configures a Gate. A zero SettleDelay selects the default; a
// negative one disables settling.
type Options struct {
	Tasks            TaskSystem
	SettleDelay      time.Duration
	TerminateTimeout time.Duration
	Logger           *slog.Logger
	// Sleep waits for the settle delay; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Gate owns the single monitor handle of a session.
type Gate struct {
	tasks            TaskSystem
	settleDelay      time.Duration
	terminateTimeout time.Duration
	logger           *slog.Logger
	sleep            func(ctx context.Context, d time.Duration) error
	now              func() time.Time

	// sem serializes terminate → settle → clear → dispatch sequences.
	sem chan struct{}

	mu     sync.Mutex
	active *MonitorHandle
}

// New returns a Gate with no active monitor.
func New(opts Options) (*Gate, error) {
	if opts.Tasks == nil {
		return nil, fmt.Errorf(messages.TaskgateTasksRequired)
	}
	g := &Gate{
		tasks:            opts.Tasks,
		settleDelay:      opts.SettleDelay,
		terminateTimeout: opts.TerminateTimeout,
		logger:           opts.Logger,
		sleep:            opts.Sleep,
		now:              opts.Now,
		sem:              make(chan struct{}, 1),
	}
	switch {
	case g.settleDelay == 0:
		g.settleDelay = DefaultSettleDelay
	case g.settleDelay < 0:
		g.settleDelay = 0
	}
	if g.terminateTimeout <= 0 {
		g.terminateTimeout = DefaultTerminateTimeout
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	g.logger = g.logger.With("component", "taskgate")
	if g.sleep == nil {
		g.sleep = sleepContext
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

// IsMonitorActive reports whether a monitor-class task is believed to be running.
func (g *Gate) IsMonitorActive() bool {
	_, ok := g.ActiveMonitor()
	return ok
}

// ActiveMonitor returns the active monitor handle, if any.
func (g *Gate) ActiveMonitor() (MonitorHandle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return MonitorHandle{}, false
	}
	return *g.active, true
}

// Dispatch terminates any active monitor and then starts kind. Termination
// failures are logged and never returned; a RunTask failure is returned and
// leaves no monitor handle behind.
func (g *Gate) Dispatch(ctx context.Context, kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf(messages.TaskgateUnknownKindFmt, kind.String())
	}
	if err := g.lock(ctx); err != nil {
		return err
	}
	defer g.unlock()

	if err := g.terminateLocked(ctx); err != nil {
		return err
	}
	name := kind.TaskName()
	g.logger.Info("dispatch task", "task", name)
	if err := g.tasks.RunTask(ctx, name); err != nil {
		g.logger.Error("dispatch task failed", "task", name, "error", err)
		return fmt.Errorf(messages.TaskgateDispatchFailedFmt, name, err)
	}
	if kind.IsMonitor() {
		g.mu.Lock()
		g.active = &MonitorHandle{Kind: kind, TaskName: name, StartedAt: g.now()}
		g.mu.Unlock()
	}
	return nil
}

// Terminate stops the active monitor, if any, and waits for the settle delay.
// It returns only context errors.
func (g *Gate) Terminate(ctx context.Context) error {
	if err := g.lock(ctx); err != nil {
		return err
	}
	defer g.unlock()
	return g.terminateLocked(ctx)
}

func (g *Gate) lock(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) unlock() {
	<-g.sem
}

// terminateLocked issues exactly one termination request for the active
// monitor. The handle is cleared even when the request fails or times out.
func (g *Gate) terminateLocked(ctx context.Context) error {
	handle, ok := g.ActiveMonitor()
	if !ok {
		return nil
	}
	g.logger.Info("terminate monitor", "task", handle.TaskName)

	termCtx, cancel := context.WithTimeout(ctx, g.terminateTimeout)
	done := make(chan error, 1)
	go func() {
		done <- g.tasks.TerminateActiveTask(termCtx)
	}()
	select {
	case err := <-done:
		switch {
		case err == nil:
		case errors.Is(err, ErrNoActiveTask):
			g.logger.Debug("monitor already stopped", "task", handle.TaskName)
		default:
			g.logger.Warn("terminate monitor failed", "task", handle.TaskName, "error", err)
		}
	case <-termCtx.Done():
		g.logger.Warn("terminate monitor", "task", handle.TaskName,
			"error", fmt.Sprintf(messages.TaskgateTerminateTimeoutFmt, g.terminateTimeout))
	}
	cancel()

	err := g.sleep(ctx, g.settleDelay)
	g.mu.Lock()
	g.active = nil
	g.mu.Unlock()
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
