package resolver

import (
	"regexp"
	"strings"

	"github.com/osa030/guildbox/internal/domain/playlist"
)

// Kind is the syntactic class of a query.
type Kind int

const (
	KindSearch Kind = iota
	KindDirectStream
	KindCrossServiceTrack
	KindCrossServicePlaylist
	KindUnsupported
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindDirectStream:
		return "direct_stream"
	case KindCrossServiceTrack:
		return "cross_service_track"
	case KindCrossServicePlaylist:
		return "cross_service_playlist"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Hosts of music services that are recognized but not integrated.
var unsupportedHosts = []string{
	"music.apple.com",
	"soundcloud.com",
	"deezer.com",
	"tidal.com",
}

var spotifyIDPattern = regexp.MustCompile(`(?i:(track|playlist|album))[/:]([A-Za-z0-9]+)`)

// Classify determines how a query should be resolved.
func Classify(query string) Kind {
	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case strings.Contains(q, "open.spotify.com"):
		if strings.Contains(q, "/track/") {
			return KindCrossServiceTrack
		}
		if strings.Contains(q, "/playlist/") || strings.Contains(q, "/album/") {
			return KindCrossServicePlaylist
		}
		return KindUnsupported
	case strings.HasPrefix(q, "spotify:track:"):
		return KindCrossServiceTrack
	case strings.HasPrefix(q, "spotify:playlist:"), strings.HasPrefix(q, "spotify:album:"):
		return KindCrossServicePlaylist
	case strings.Contains(q, "youtube.com"), strings.Contains(q, "youtu.be"):
		// Streaming-provider playlists are not integrated.
		if strings.Contains(q, "list=") {
			return KindUnsupported
		}
		return KindDirectStream
	}

	for _, host := range unsupportedHosts {
		if strings.Contains(q, host) {
			return KindUnsupported
		}
	}
	return KindSearch
}

// ExtractTrackID returns the metadata provider track ID from a link or URI.
func ExtractTrackID(query string) string {
	if Classify(query) != KindCrossServiceTrack {
		return ""
	}
	_, id := extractID(query)
	return id
}

// ExtractPlaylistRef returns the collection referenced by a playlist or album link.
func ExtractPlaylistRef(query string) (playlist.Ref, bool) {
	if Classify(query) != KindCrossServicePlaylist {
		return playlist.Ref{}, false
	}
	segment, id := extractID(query)
	if id == "" {
		return playlist.Ref{}, false
	}
	kind := playlist.KindPlaylist
	if strings.EqualFold(segment, "album") {
		kind = playlist.KindAlbum
	}
	return playlist.Ref{Kind: kind, ID: id}, true
}

// extractID returns the path segment (track, playlist, album) and the ID that follows it.
func extractID(query string) (string, string) {
	m := spotifyIDPattern.FindStringSubmatch(strings.TrimSpace(query))
	if len(m) < 3 {
		return "", ""
	}
	return m[1], m[2]
}
