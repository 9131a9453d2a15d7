package playback

import (
	"time"

	"github.com/osa030/guildbox/internal/domain/track"
)

// Queue is an ordered list of tracks. Index 0 is the current (or next) track.
// Queue is not synchronized; the owning Engine serializes access.
type Queue struct {
	tracks []track.Track
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{tracks: make([]track.Track, 0)}
}

// Append adds t to the back.
func (q *Queue) Append(t track.Track) {
	q.tracks = append(q.tracks, t)
}

// Advance removes the front track and returns it.
func (q *Queue) Advance() (track.Track, bool) {
	if len(q.tracks) == 0 {
		return track.Track{}, false
	}
	front := q.tracks[0]
	q.tracks[0] = track.Track{}
	q.tracks = q.tracks[1:]
	return front, true
}

// PeekFront returns the front track without removing it.
func (q *Queue) PeekFront() (track.Track, bool) {
	if len(q.tracks) == 0 {
		return track.Track{}, false
	}
	return q.tracks[0], true
}

// Clear removes every track and returns how many were removed.
func (q *Queue) Clear() int {
	n := len(q.tracks)
	q.tracks = make([]track.Track, 0)
	return n
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Snapshot returns a copy of the tracks in order.
func (q *Queue) Snapshot() []track.Track {
	out := make([]track.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// TotalDuration returns the summed known duration of all tracks.
func (q *Queue) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range q.tracks {
		total += t.Duration
	}
	return total
}
