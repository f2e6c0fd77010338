package lockstore

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/pio-layer/internal/messages"
)

type guard struct {
	file *os.File
}

var lockFileFn = lockFile
var unlockFileFn = unlockFile
var flockFn = unix.Flock
var guardSleep = time.Sleep

var (
	guardWaitTimeout = 30 * time.Second
	guardPollEvery   = 50 * time.Millisecond
)

// withGuard holds the exclusive guard lock at path while fn runs.
func withGuard(path string, fn func() error) error {
	g, err := acquireGuard(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = g.release()
	}()
	return fn()
}

// acquireGuard opens or creates path and acquires an exclusive advisory lock.
func acquireGuard(path string) (*guard, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.LockstoreOpenGuardFmt, path, err)
	}
	if err := lockFileFn(file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf(messages.LockstoreGuardFmt, path, err)
	}
	return &guard{file: file}, nil
}

func (g *guard) release() error {
	if g == nil || g.file == nil {
		return nil
	}
	if err := unlockFileFn(g.file); err != nil {
		_ = g.file.Close()
		return err
	}
	return g.file.Close()
}

// lockFile polls for the exclusive lock until guardWaitTimeout elapses.
func lockFile(file *os.File) error {
	deadline := time.Now().Add(guardWaitTimeout)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf(messages.LockstoreGuardTimeoutFmt, guardWaitTimeout)
		}
		guardSleep(guardPollEvery)
	}
}

func unlockFile(file *os.File) error {
	return flockFn(int(file.Fd()), unix.LOCK_UN)
}
