package resolver

import "github.com/cockroachdb/errors"

// Resolution errors. Returned errors are marked with one of these and keep their cause;
// match them with errors.Is.
var (
	ErrInvalidLink            = errors.New("invalid link")
	ErrNoResults              = errors.New("no results")
	ErrCrossServiceResolution = errors.New("cross-service resolution failed")
	ErrUnsupportedSource      = errors.New("unsupported source")
	ErrPlaylistFetch          = errors.New("playlist fetch failed")
)

// mark wraps cause with msg and tags it with the sentinel kind.
func mark(cause error, kind error, msg string) error {
	if cause == nil {
		return errors.Wrap(kind, msg)
	}
	return errors.Mark(errors.Wrap(cause, msg), kind)
}

// Code returns a short machine-readable code for a resolution error.
func Code(err error) string {
	// Outer kinds first: a cross-service failure also carries the inner search kind.
	switch {
	case errors.Is(err, ErrCrossServiceResolution):
		return "cross_service_resolution"
	case errors.Is(err, ErrPlaylistFetch):
		return "playlist_fetch"
	case errors.Is(err, ErrUnsupportedSource):
		return "unsupported_source"
	case errors.Is(err, ErrInvalidLink):
		return "invalid_link"
	case errors.Is(err, ErrNoResults):
		return "no_results"
	default:
		return ""
	}
}
