package guild

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/osa030/guildbox/internal/app/playback"
	"github.com/osa030/guildbox/internal/app/resolver"
)

var (
	ErrNoPlayableTracks  = errors.New("no playable tracks")
	ErrNotConnected      = errors.New("not connected")
	ErrAdmissionRejected = errors.New("admission rejected")
)

// RejectedError reports the filter code a track was rejected with.
// Returned errors are marked with ErrAdmissionRejected.
type RejectedError struct {
	Code  string
	Title string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("track %q rejected: %s", e.Title, e.Code)
}

func rejected(code, title string) error {
	return errors.Mark(&RejectedError{Code: code, Title: title}, ErrAdmissionRejected)
}

// Code returns a short machine-readable code for an error returned by Manager.
func Code(err error) string {
	if err == nil {
		return ""
	}

	var rej *RejectedError
	switch {
	case errors.As(err, &rej):
		return rej.Code
	case errors.Is(err, ErrNoPlayableTracks):
		return "no_playable_tracks"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, playback.ErrNoActivePlayback):
		return "no_active_playback"
	}

	if code := resolver.Code(err); code != "" {
		return code
	}
	return "internal"
}
