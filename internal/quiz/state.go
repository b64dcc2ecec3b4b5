package quiz

import "errors"

// State is the orchestrator's position in the quiz lifecycle.
type State int

const (
	// StateIdle is before any quiz has started, or after Reset.
	StateIdle State = iota

	// StateWelcome is the window between starting a quiz and the first
	// question arriving.
	StateWelcome

	// StateAwaitingAnswer means a question is on screen and the orchestrator
	// accepts Submit calls.
	StateAwaitingAnswer

	// StateComplete means the recommendation has been served.
	StateComplete
)

// String returns the state's name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWelcome:
		return "welcome"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when Start or Submit is called while another call is
// still in flight. The orchestrator allows at most one in-flight operation.
var ErrBusy = errors.New("quiz: operation already in flight")

// ErrNotAwaitingAnswer is returned by Submit outside [StateAwaitingAnswer].
var ErrNotAwaitingAnswer = errors.New("quiz: no question awaiting an answer")
