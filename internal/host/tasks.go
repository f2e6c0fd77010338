// Package host provides the process-backed host environment: a task system
// that runs PlatformIO targets, a colored notifier and a shell terminal.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/taskgate"
)

// waitDelay bounds how long Wait keeps copying output after a background
// task exits.
const waitDelay = 2 * time.Second

var taskArgs = map[taskgate.Kind][]string{
	taskgate.Build:            {"run"},
	taskgate.Upload:           {"run", "-t", "upload"},
	taskgate.UploadAndMonitor: {"run", "-t", "upload", "-t", "monitor"},
	taskgate.Clean:            {"run", "-t", "clean"},
	taskgate.Monitor:          {"device", "monitor"},
	taskgate.Test:             {"test"},
	taskgate.Program:          {"run", "-t", "program"},
}

// TaskArgs returns the PlatformIO arguments for a host task name.
func TaskArgs(name string) ([]string, error) {
	kind, ok := taskgate.KindForTaskName(name)
	if !ok {
		return nil, fmt.Errorf(messages.HostUnknownTaskFmt, name)
	}
	return append([]string(nil), taskArgs[kind]...), nil
}

// TaskOptions configures ProcessTasks.
type TaskOptions struct {
	// Executable is the PlatformIO CLI, usually "pio" from the penv bin dir.
	Executable string
	// GlobalArgs precede every task's arguments, e.g. {"-f", "-c", "pio-layer"}.
	GlobalArgs []string
	Dir        string
	Env        []string
	// Stdout and Stderr receive task output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	// UsePTY runs monitor-class tasks under a pseudo-terminal.
	UsePTY bool
	Logger *slog.Logger
}

// ProcessTasks runs PlatformIO tasks as child processes. Finite tasks run to
// completion inside RunTask; monitor-class tasks keep running in the
// background until TerminateActiveTask.
type ProcessTasks struct {
	opts   TaskOptions
	logger *slog.Logger

	mu     sync.Mutex
	active *runningTask
}

type runningTask struct {
	name string
	cmd  *exec.Cmd
	tty  *os.File
	done chan struct{}
}

// NewProcessTasks returns a task system for opts.
func NewProcessTasks(opts TaskOptions) (*ProcessTasks, error) {
	if opts.Executable == "" {
		return nil, errors.New(messages.HostExecutableRequired)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProcessTasks{opts: opts, logger: logger.With("component", "host")}, nil
}

// RunTask starts the task called name.
func (p *ProcessTasks) RunTask(ctx context.Context, name string) error {
	args, err := TaskArgs(name)
	if err != nil {
		return err
	}
	args = append(append([]string(nil), p.opts.GlobalArgs...), args...)
	kind, _ := taskgate.KindForTaskName(name)
	if kind.IsMonitor() {
		return p.startBackground(name, args)
	}

	cmd := exec.CommandContext(ctx, p.opts.Executable, args...)
	p.prepare(cmd)
	cmd.Stdout = p.opts.Stdout
	cmd.Stderr = p.opts.Stderr
	p.logger.Debug("run task", "task", name, "args", args)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(messages.HostTaskFailedFmt, name, err)
	}
	return nil
}

// TerminateActiveTask stops the background task with SIGTERM and waits for
// it to exit, escalating to SIGKILL when ctx ends first.
func (p *ProcessTasks) TerminateActiveTask(ctx context.Context) error {
	p.mu.Lock()
	task := p.active
	p.active = nil
	p.mu.Unlock()
	if task == nil || task.exited() {
		return taskgate.ErrNoActiveTask
	}

	if err := task.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return taskgate.ErrNoActiveTask
		}
		return fmt.Errorf(messages.HostSignalFailedFmt, task.name, err)
	}
	select {
	case <-task.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("task ignored SIGTERM, killing", "task", task.name)
		_ = task.cmd.Process.Kill()
		<-task.done
		return ctx.Err()
	}
}

// Active reports the name of the running background task, if any.
func (p *ProcessTasks) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil || p.active.exited() {
		return "", false
	}
	return p.active.name, true
}

// WaitActive blocks until the background task exits or ctx is done. It
// returns immediately when nothing runs in the background.
func (p *ProcessTasks) WaitActive(ctx context.Context) error {
	p.mu.Lock()
	task := p.active
	p.mu.Unlock()
	if task == nil {
		return nil
	}
	select {
	case <-task.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ProcessTasks) startBackground(name string, args []string) error {
	cmd := exec.Command(p.opts.Executable, args...)
	p.prepare(cmd)
	cmd.WaitDelay = waitDelay
	task := &runningTask{name: name, cmd: cmd, done: make(chan struct{})}

	if p.opts.UsePTY {
		tty, err := pty.Start(cmd)
		if err != nil {
			return fmt.Errorf(messages.HostStartPTYFailedFmt, name, err)
		}
		task.tty = tty
		out := p.opts.Stdout
		if out == nil {
			out = io.Discard
		}
		go func() {
			_, _ = io.Copy(out, tty)
		}()
	} else {
		cmd.Stdout = p.opts.Stdout
		cmd.Stderr = p.opts.Stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf(messages.HostStartTaskFailedFmt, name, err)
		}
	}
	p.logger.Debug("started background task", "task", name, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		if task.tty != nil {
			_ = task.tty.Close()
		}
		p.logger.Debug("background task exited", "task", name, "error", err)
		close(task.done)
	}()

	p.mu.Lock()
	p.active = task
	p.mu.Unlock()
	return nil
}

func (p *ProcessTasks) prepare(cmd *exec.Cmd) {
	cmd.Dir = p.opts.Dir
	if p.opts.Env != nil {
		cmd.Env = p.opts.Env
	}
}

func (t *runningTask) exited() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
