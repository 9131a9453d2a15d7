// Package source provides the provider-side descriptions consumed by the resolver.
package source

import "time"

// MediaTypeVideo is the media type of a playable video search result.
const MediaTypeVideo = "video"

// SearchResult is a candidate returned by a search provider.
type SearchResult struct {
	ID          string // Provider ID (e.g. YouTube video ID)
	URL         string // Canonical watch URL
	Title       string
	MediaType   string // "video", "playlist", "channel", ...
	HasDuration bool   // False for live streams and non-track content
}

// IsPlayable reports whether the candidate looks like a playable track.
func (r SearchResult) IsPlayable() bool {
	return r.MediaType == MediaTypeVideo && r.HasDuration
}

// TrackMetadata is canonical track metadata from a metadata provider.
type TrackMetadata struct {
	Title       string
	Artist      string // Primary artist
	ExternalURL string
}

// SearchQuery returns the free-text query used to find a playable equivalent.
func (m TrackMetadata) SearchQuery() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " " + m.Title
}

// StreamMetadata is native metadata from the streaming provider.
type StreamMetadata struct {
	Title        string
	Duration     time.Duration // Zero when unknown
	ThumbnailURL string
	PlayableURL  string
}
