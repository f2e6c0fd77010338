package installer

import "fmt"

// StatusKind classifies the installed toolchain against the minimum version.
type StatusKind int

// Toolchain status kinds.
const (
	StatusAbsent StatusKind = iota
	StatusOutOfDate
	StatusSatisfied
)

func (k StatusKind) String() string {
	switch k {
	case StatusAbsent:
		return "absent"
	case StatusOutOfDate:
		return "out-of-date"
	case StatusSatisfied:
		return "satisfied"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// Status is the outcome of Check.
type Status struct {
	Kind      StatusKind
	Installed string
	Minimum   string
}

// Satisfied reports whether no install is needed.
func (s Status) Satisfied() bool {
	return s.Kind == StatusSatisfied
}

// Err returns the reason an install is needed, or nil when satisfied.
func (s Status) Err() error {
	switch s.Kind {
	case StatusAbsent:
		return &ToolNotFoundError{}
	case StatusOutOfDate:
		return &VersionBelowMinimumError{Installed: s.Installed, Minimum: s.Minimum}
	default:
		return nil
	}
}

// State is a step of the installation state machine.
type State int

// Manager states. Idle → Checking → (Satisfied | NeedsInstall) → Installing →
// (Installed | Failed) → Idle.
const (
	StateIdle State = iota
	StateChecking
	StateSatisfied
	StateNeedsInstall
	StateInstalling
	StateInstalled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateSatisfied:
		return "satisfied"
	case StateNeedsInstall:
		return "needs-install"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome summarizes an Ensure run.
type Outcome int

// Ensure outcomes.
const (
	OutcomeSatisfied Outcome = iota
	OutcomeInstalled
	OutcomeLockedByOther
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSatisfied:
		return "satisfied"
	case OutcomeInstalled:
		return "installed"
	case OutcomeLockedByOther:
		return "locked-by-other"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
