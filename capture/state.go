package capture

import (
	"fmt"
	"sync/atomic"
)

// Recording session states.
const (
	StateIdle           State = 0 // No capture; feed intervals do nothing
	StateStartRequested State = 1 // Host started recording; next interval begins capture
	StateRecording      State = 2 // Channels active, buffers alternating
)

// State represents the recording session state.
type State uint32

// String returns a human-readable state description.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStartRequested:
		return "StartRequested"
	case StateRecording:
		return "Recording"
	default:
		return fmt.Sprintf("Unknown State (%d)", uint32(s))
	}
}

// recorder holds the session state. Every transition is a compare-and-swap
// from the one state it is legal in, so the control and feed contexts never
// overwrite each other's transitions.
type recorder struct {
	state atomic.Uint32
}

func (r *recorder) load() State {
	return State(r.state.Load())
}

func (r *recorder) transition(from, to State) bool {
	return r.state.CompareAndSwap(uint32(from), uint32(to))
}

// requestStart moves Idle to StartRequested.
func (r *recorder) requestStart() bool {
	return r.transition(StateIdle, StateStartRequested)
}

// begin moves StartRequested to Recording.
func (r *recorder) begin() bool {
	return r.transition(StateStartRequested, StateRecording)
}

// stop moves Recording to Idle.
func (r *recorder) stop() bool {
	return r.transition(StateRecording, StateIdle)
}

// reset moves any state to Idle and returns the state it left.
func (r *recorder) reset() State {
	for {
		from := r.load()
		if from == StateIdle || r.transition(from, StateIdle) {
			return from
		}
	}
}
