package values

import "fmt"

// SessionState is the lifecycle state of a script interpreter session.
type SessionState string

const (
	// SessionCreated means the interpreter exists but nothing was compiled yet
	SessionCreated SessionState = "created"
	// SessionCompiled means the source parsed successfully
	SessionCompiled SessionState = "compiled"
	// SessionRunning means the session has been resumed at least once
	SessionRunning SessionState = "running"
	// SessionDone means the main chunk and all timers finished
	SessionDone SessionState = "done"
	// SessionErrored means compilation or execution failed
	SessionErrored SessionState = "errored"
	// SessionStopped means an external stop request was honored
	SessionStopped SessionState = "stopped"
)

// IsTerminal returns true once the session can no longer be resumed.
func (s SessionState) IsTerminal() bool {
	return s == SessionDone || s == SessionErrored || s == SessionStopped
}

// IsSuccess returns true if the session completed normally
func (s SessionState) IsSuccess() bool {
	return s == SessionDone
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	switch s {
	case SessionCreated:
		return next == SessionCompiled || next == SessionErrored || next == SessionStopped
	case SessionCompiled:
		return next == SessionRunning || next == SessionStopped || next == SessionErrored
	case SessionRunning:
		return next == SessionDone || next == SessionErrored || next == SessionStopped
	default:
		return false
	}
}

// Validate returns an error if the state value is invalid
func (s SessionState) Validate() error {
	switch s {
	case SessionCreated, SessionCompiled, SessionRunning, SessionDone, SessionErrored, SessionStopped:
		return nil
	default:
		return fmt.Errorf("invalid session state: %s", s)
	}
}
