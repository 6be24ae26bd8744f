package domain

// State is the lifecycle state of the refresh loop.
type State string

const (
	StateIdle            State = "IDLE"
	StateRunning         State = "RUNNING"
	StateStoppedByUser   State = "STOPPED_BY_USER"
	StateStoppedByErrors State = "STOPPED_BY_ERRORS"
)

// String returns the string representation of State.
func (s State) String() string {
	return string(s)
}

// MaxConsecutiveErrors is the number of consecutive fetch failures that stops the loop.
const MaxConsecutiveErrors = 3

// Session is the run state threaded through every cycle.
type Session struct {
	State      State `json:"state"`
	ErrorCount int   `json:"errorCount"` // consecutive fetch failures
}

// NewSession returns an idle session.
func NewSession() Session {
	return Session{State: StateIdle}
}

// Running reports whether the loop should keep cycling.
func (s Session) Running() bool {
	return s.State == StateRunning
}

// Started returns the session after an explicit start command.
// The error count always resets.
func (s Session) Started() Session {
	return Session{State: StateRunning}
}

// Stopped returns the session after an explicit stop command.
func (s Session) Stopped() Session {
	return Session{State: StateStoppedByUser, ErrorCount: s.ErrorCount}
}
