package toolchain

import (
	"context"
	"os"
	"os/exec"
)

// System abstracts process execution for the probe.
type System interface {
	LookPath(file string) (string, error)
	Stat(name string) (os.FileInfo, error)
	Command(ctx context.Context, name string, args ...string) *exec.Cmd
	Environ() []string
}

// RealSystem implements System using os/exec.
type RealSystem struct{}

// LookPath searches PATH for file.
func (RealSystem) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Command returns a context-bound command.
func (RealSystem) Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Environ returns a copy of the process environment.
func (RealSystem) Environ() []string {
	return os.Environ()
}
