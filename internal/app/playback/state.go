// Package playback provides the per-guild playback engine and its queue.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // Nothing playing; the queue is empty
	StatePlaying              // Front track is streaming to the sink
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
