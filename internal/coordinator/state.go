package coordinator

import "fmt"

// State is the process-level watch state.
type State int32

const (
	StateStarting State = iota
	StateWatching
	StateSuspended
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateWatching:
		return "watching"
	case StateSuspended:
		return "suspended"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
