// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"time"
)

// Track represents a resolved, playable audio unit.
// A Track is a value: copies are handed around and nothing mutates one in place.
type Track struct {
	Title        string        // Title reported by the streaming provider
	PlayableURL  string        // Handle the sink streams from
	Duration     time.Duration // Zero when unknown
	ThumbnailURL string        // Optional
	Source       string        // Provenance label, e.g. "YouTube" or "Spotify → YouTube"
	Requester    Requester     // Who asked for it

	// Set only for cross-service tracks.
	OriginalTitle  string
	OriginalArtist string
	OriginalURL    string

	AddedAt time.Time // Time when added to a queue
}

// Requester represents the person who requested the track.
type Requester struct {
	ID   string // Opaque identity (e.g. chat user ID)
	Name string // Display name
}

// String returns the display name, falling back to the ID.
func (r Requester) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// WithRequester returns a copy of the track attributed to r.
func (t Track) WithRequester(r Requester) Track {
	t.Requester = r
	return t
}

// WithAddedAt returns a copy of the track stamped with the enqueue time.
func (t Track) WithAddedAt(at time.Time) Track {
	t.AddedAt = at
	return t
}

// IsCrossService reports whether the track was matched from another provider's metadata.
func (t Track) IsCrossService() bool {
	return t.OriginalTitle != ""
}

// DisplayDuration returns the formatted duration.
func (t Track) DisplayDuration() string {
	return FormatDuration(t.Duration)
}

// FormatDuration renders d as m:ss or h:mm:ss. Unknown (zero or negative) renders as 0:00.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
