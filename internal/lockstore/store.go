// Package lockstore persists the cross-session installation lock.
//
// The lock is a small TOML record created with O_EXCL next to a guard file.
// Every read-check-write sequence runs under an advisory flock on the guard so
// that stale-lock takeover cannot race between processes.
package lockstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// State is the installation lock as observed by one owner.
type State int

// Observed lock states.
const (
	Unlocked State = iota
	LockedByOther
	LockedBySelf
)

func (s State) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case LockedByOther:
		return "locked-by-other"
	case LockedBySelf:
		return "locked-by-self"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultStaleAfter is how long a record may go without a heartbeat before it
// is considered abandoned.
const DefaultStaleAfter = 10 * time.Minute

// Record is the persisted lock token.
type Record struct {
	Owner       string    `toml:"owner"`
	PID         int       `toml:"pid"`
	Host        string    `toml:"host"`
	CreatedAt   time.Time `toml:"created_at"`
	HeartbeatAt time.Time `toml:"heartbeat_at"`
}

// Options configures a Store.
type Options struct {
	StaleAfter time.Duration
	System     System
}

// Store is a file-backed installation lock shared by every session on the host.
type Store struct {
	path       string
	guardPath  string
	staleAfter time.Duration
	sys        System
}

// New returns a Store for the lock record at path.
func New(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf(messages.LockstorePathRequired)
	}
	sys := opts.System
	if sys == nil {
		sys = RealSystem{}
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Store{
		path:       path,
		guardPath:  path + ".guard",
		staleAfter: staleAfter,
		sys:        sys,
	}, nil
}

// Path returns the lock record path.
func (s *Store) Path() string {
	return s.path
}

// Acquire takes the lock for owner. It returns false when a different, live
// owner already holds it. Re-acquiring an owned lock succeeds.
func (s *Store) Acquire(owner string) (bool, error) {
	if owner == "" {
		return false, fmt.Errorf(messages.LockstoreOwnerRequired)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, fmt.Errorf(messages.LockstoreCreateDirFmt, filepath.Dir(s.path), err)
	}
	acquired := false
	err := withGuard(s.guardPath, func() error {
		rec, ok, err := s.read()
		if err != nil {
			return err
		}
		if ok {
			if rec.Owner == owner {
				acquired = true
				return nil
			}
			if !s.isStale(rec) {
				return nil
			}
			if err := s.remove(); err != nil {
				return err
			}
		}
		created, err := s.create(owner)
		if err != nil {
			return err
		}
		acquired = created
		return nil
	})
	return acquired, err
}

// Release removes the lock when it is held by owner and is a no-op otherwise.
func (s *Store) Release(owner string) error {
	return s.guarded(func() error {
		rec, ok, err := s.read()
		if err != nil || !ok || rec.Owner != owner {
			return err
		}
		return s.remove()
	})
}

// State reports how owner observes the lock. Stale records read as Unlocked.
func (s *Store) State(owner string) (State, error) {
	state := Unlocked
	err := s.guarded(func() error {
		rec, ok, err := s.read()
		if err != nil || !ok {
			return err
		}
		switch {
		case rec.Owner == owner && owner != "":
			state = LockedBySelf
		case s.isStale(rec):
			state = Unlocked
		default:
			state = LockedByOther
		}
		return nil
	})
	return state, err
}

// Heartbeat refreshes the record timestamp when owner holds the lock.
func (s *Store) Heartbeat(owner string) error {
	return s.guarded(func() error {
		rec, ok, err := s.read()
		if err != nil || !ok || rec.Owner != owner {
			return err
		}
		rec.HeartbeatAt = s.sys.Now().UTC()
		data, err := toml.Marshal(rec)
		if err != nil {
			return fmt.Errorf(messages.LockstoreEncodeFmt, err)
		}
		return writeFileAtomic(s.path, data, 0o644)
	})
}

// Read returns the current record, if any, for diagnostics.
func (s *Store) Read() (Record, bool, error) {
	var rec Record
	var found bool
	err := s.guarded(func() error {
		var err error
		rec, found, err = s.read()
		return err
	})
	return rec, found, err
}

// IsStale reports whether rec would be treated as abandoned.
func (s *Store) IsStale(rec Record) bool {
	return s.isStale(rec)
}

// DestroyStaleIfOrphaned removes the record when its owner is gone or its
// heartbeat expired. It reports whether a record was removed.
func (s *Store) DestroyStaleIfOrphaned() (bool, error) {
	removed := false
	err := s.guarded(func() error {
		rec, ok, err := s.read()
		if err != nil || !ok || !s.isStale(rec) {
			return err
		}
		if err := s.remove(); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

// Destroy unconditionally removes the record. Calling it repeatedly is safe.
func (s *Store) Destroy() error {
	return s.guarded(s.remove)
}

// guarded runs fn under the guard, skipping it when the lock dir does not exist.
func (s *Store) guarded(fn func() error) error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return withGuard(s.guardPath, fn)
}

func (s *Store) isStale(rec Record) bool {
	if rec.Owner == "" {
		return true
	}
	last := rec.HeartbeatAt
	if last.IsZero() {
		last = rec.CreatedAt
	}
	if s.sys.Now().Sub(last) > s.staleAfter {
		return true
	}
	host, err := s.sys.Hostname()
	if err == nil && host == rec.Host && !s.sys.ProcessAlive(rec.PID) {
		return true
	}
	return false
}

// read loads the record. A corrupt record is returned as ownerless, which
// isStale treats as abandoned.
func (s *Store) read() (Record, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf(messages.LockstoreReadFmt, s.path, err)
	}
	var rec Record
	if err := toml.Unmarshal(data, &rec); err != nil {
		return Record{}, true, nil
	}
	return rec, true, nil
}

// create writes a new record with O_EXCL. It returns false if the file appeared
// concurrently, which only happens when a writer bypassed the guard.
func (s *Store) create(owner string) (bool, error) {
	now := s.sys.Now().UTC()
	host, _ := s.sys.Hostname()
	rec := Record{
		Owner:       owner,
		PID:         s.sys.Getpid(),
		Host:        host,
		CreatedAt:   now,
		HeartbeatAt: now,
	}
	data, err := toml.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf(messages.LockstoreEncodeFmt, err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf(messages.LockstoreCreateFmt, s.path, err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(s.path)
		return false, fmt.Errorf(messages.LockstoreWriteFmt, s.path, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(s.path)
		return false, fmt.Errorf(messages.LockstoreWriteFmt, s.path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(s.path)
		return false, fmt.Errorf(messages.LockstoreWriteFmt, s.path, err)
	}
	return true, nil
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(messages.LockstoreRemoveFmt, s.path, err)
	}
	return nil
}
