package installer

import (
	"errors"
	"fmt"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// ErrLockNotHeld is returned by Install when the caller has not acquired the lock.
var ErrLockNotHeld = errors.New(messages.InstallerLockNotHeld)

// LockHeldByOtherError reports that another session is installing.
// Callers treat it as informational: no retry, abort for this session only.
type LockHeldByOtherError struct {
	Path string
}

func (e *LockHeldByOtherError) Error() string {
	return fmt.Sprintf(messages.InstallerLockHeldByOtherFmt, e.Path)
}

// ToolNotFoundError reports that PlatformIO Core is absent. It selects the
// install path and is never shown to the user directly.
type ToolNotFoundError struct{}

func (e *ToolNotFoundError) Error() string {
	return messages.InstallerToolNotFound
}

// VersionBelowMinimumError reports an out-of-date PlatformIO Core.
type VersionBelowMinimumError struct {
	Installed string
	Minimum   string
}

func (e *VersionBelowMinimumError) Error() string {
	return fmt.Sprintf(messages.InstallerVersionBelowMinFmt, e.Installed, e.Minimum)
}

// InstallProcedureError wraps a failed install attempt. It is fatal for the
// attempt; the lock has already been released when it is returned.
type InstallProcedureError struct {
	Err error
}

func (e *InstallProcedureError) Error() string {
	return fmt.Sprintf(messages.InstallerProcedureFailedFmt, e.Err)
}

func (e *InstallProcedureError) Unwrap() error {
	return e.Err
}

// IsLockHeldByOther reports whether err represents lock contention.
func IsLockHeldByOther(err error) bool {
	var target *LockHeldByOtherError
	return errors.As(err, &target)
}

// IsInstallProcedure reports whether err represents a failed install attempt.
func IsInstallProcedure(err error) bool {
	var target *InstallProcedureError
	return errors.As(err, &target)
}
