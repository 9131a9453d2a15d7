package playback

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/osa030/guildbox/internal/domain/track"
)

// Errors
var (
	ErrNoActivePlayback = errors.New("no active playback")
	ErrEngineClosed     = errors.New("engine closed")
)

// SinkError is a playback failure attributed to a track.
// It is logged and reported as an event; callers never receive it.
type SinkError struct {
	Track track.Track
	Err   error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("playback of %q failed: %v", e.Track.Title, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
