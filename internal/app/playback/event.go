package playback

import (
	"time"

	"github.com/osa030/guildbox/internal/domain/track"
)

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted EventType = iota // Track started streaming
	EventTrackEnded                    // Track finished playing
	EventTrackSkipped                  // Track was skipped
	EventTrackFailed                   // Track could not be played
	EventQueueEmpty                    // Queue ran out; engine is idle
	EventStopped                       // Playback stopped and queue cleared
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackSkipped:
		return "track_skipped"
	case EventTrackFailed:
		return "track_failed"
	case EventQueueEmpty:
		return "queue_empty"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	GuildID string
	Track   *track.Track // Track concerned (nil for queue_empty and stopped)
	State   State        // Engine state after the event
	Err     error        // Set for track_failed
	Cleared int          // Tracks removed by stop
	At      time.Time
}
