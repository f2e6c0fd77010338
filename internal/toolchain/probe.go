// Package toolchain locates, versions and installs PlatformIO Core.
package toolchain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/version"
)

// ErrNotFound reports that PlatformIO Core is not installed.
var ErrNotFound = errors.New(messages.ToolchainNotFound)

// Options configures a Probe.
type Options struct {
	// Executable is the command name, "platformio" by default.
	Executable string
	// BinDir is searched before PATH (the PlatformIO virtualenv bin dir).
	BinDir string
	// InstallCommand is run by Install; output lines are reported as StageOutput.
	InstallCommand []string
	// Env is appended to the process environment for every command.
	Env    []string
	System System
}

// Probe queries and installs PlatformIO Core through external commands.
type Probe struct {
	executable     string
	binDir         string
	installCommand []string
	env            []string
	sys            System
}

// NewProbe returns a Probe for opts.
func NewProbe(opts Options) (*Probe, error) {
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		return nil, fmt.Errorf(messages.ToolchainExecutableRequired)
	}
	sys := opts.System
	if sys == nil {
		sys = RealSystem{}
	}
	return &Probe{
		executable:     executable,
		binDir:         opts.BinDir,
		installCommand: append([]string(nil), opts.InstallCommand...),
		env:            append([]string(nil), opts.Env...),
		sys:            sys,
	}, nil
}

// Locate returns the executable path, preferring BinDir over PATH.
func (p *Probe) Locate() (string, error) {
	if p.binDir != "" {
		candidate := filepath.Join(p.binDir, p.executable)
		if info, err := p.sys.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := p.sys.LookPath(p.executable)
	if err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// InstalledVersion runs "<executable> --version" and returns the normalized version.
func (p *Probe) InstalledVersion(ctx context.Context) (string, error) {
	path, err := p.Locate()
	if err != nil {
		return "", err
	}
	cmd := p.sys.Command(ctx, path, "--version")
	cmd.Env = p.environ()
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf(messages.ToolchainVersionCommandFailedFmt, path, err)
	}
	raw, ok := version.Extract(string(out))
	if !ok {
		return "", fmt.Errorf(messages.ToolchainVersionUnparsableFmt, strings.TrimSpace(string(out)))
	}
	return version.Normalize(raw)
}

// Install runs the install command, reporting each output line.
func (p *Probe) Install(ctx context.Context, reporter Reporter) error {
	if len(p.installCommand) == 0 {
		return fmt.Errorf(messages.ToolchainInstallCommandRequired)
	}
	if reporter == nil {
		reporter = Discard
	}
	display := strings.Join(p.installCommand, " ")
	cmd := p.sys.Command(ctx, p.installCommand[0], p.installCommand[1:]...)
	cmd.Env = p.environ()

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return fmt.Errorf(messages.ToolchainInstallStartFailedFmt, display, err)
	}

	streamErr := make(chan error, 1)
	go func() {
		streamErr <- streamLines(pr, reporter)
	}()

	waitErr := cmd.Wait()
	_ = pw.Close()
	readErr := <-streamErr
	_ = pr.Close()

	if waitErr != nil {
		return fmt.Errorf(messages.ToolchainInstallFailedFmt, display, waitErr)
	}
	if readErr != nil {
		return fmt.Errorf(messages.ToolchainInstallStreamFailedFmt, readErr)
	}
	return nil
}

func (p *Probe) environ() []string {
	return append(p.sys.Environ(), p.env...)
}

func streamLines(r io.Reader, reporter Reporter) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		reporter.Report(Progress{Stage: StageOutput, Message: line})
	}
	if err := scanner.Err(); err != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}
