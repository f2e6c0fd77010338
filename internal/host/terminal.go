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

	"github.com/conn-castle/pio-layer/internal/messages"
)

// TerminalOptions configures a Terminal.
type TerminalOptions struct {
	Dir    string
	Env    []string
	Shell  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Terminal runs commands typed into the PlatformIO terminal, with the
// PlatformIO virtualenv on PATH.
type Terminal struct {
	opts   TerminalOptions
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewTerminal returns a Terminal. The shell defaults to $SHELL, then /bin/sh.
func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Shell == "" {
		opts.Shell = os.Getenv("SHELL")
	}
	if opts.Shell == "" {
		opts.Shell = messages.TerminalShellFallback
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Terminal{opts: opts, logger: logger.With("component", "terminal")}
}

// SendText runs text with the terminal's shell (`<shell> -c text`) and waits
// for it to finish.
func (t *Terminal) SendText(ctx context.Context, text string) error {
	if t.isClosed() {
		return errors.New(messages.TerminalClosed)
	}
	cmd := exec.CommandContext(ctx, t.opts.Shell, "-c", text)
	t.prepare(cmd)
	t.logger.Debug("terminal command", "text", text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(messages.TerminalRunFailedFmt, text, err)
	}
	return nil
}

// Open starts an interactive shell and waits for it to exit.
func (t *Terminal) Open(ctx context.Context) error {
	if t.isClosed() {
		return errors.New(messages.TerminalClosed)
	}
	cmd := exec.CommandContext(ctx, t.opts.Shell)
	t.prepare(cmd)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(messages.TerminalRunFailedFmt, t.opts.Shell, err)
	}
	return nil
}

// Close disposes the terminal; later commands fail.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *Terminal) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Terminal) prepare(cmd *exec.Cmd) {
	cmd.Dir = t.opts.Dir
	if t.opts.Env != nil {
		cmd.Env = t.opts.Env
	}
	cmd.Stdin = t.opts.Stdin
	cmd.Stdout = t.opts.Stdout
	cmd.Stderr = t.opts.Stderr
}
