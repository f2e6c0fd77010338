package lockstore

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// System abstracts the process facts the lock store records and checks.
// Tests substitute it to simulate crashed owners on the same host.
type System interface {
	Getpid() int
	Hostname() (string, error)
	ProcessAlive(pid int) bool
	Now() time.Time
}

// RealSystem implements System using the running OS.
type RealSystem struct{}

// Getpid returns the process id of the caller.
func (RealSystem) Getpid() int {
	return os.Getpid()
}

// Hostname returns the host name reported by the kernel.
func (RealSystem) Hostname() (string, error) {
	return os.Hostname()
}

// ProcessAlive probes pid with signal 0. EPERM means the process exists but
// belongs to another user.
func (RealSystem) ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Now returns the current time.
func (RealSystem) Now() time.Time {
	return time.Now()
}
