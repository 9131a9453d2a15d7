// Package resolver turns user queries into playable tracks.
package resolver

import (
	"context"

	"github.com/osa030/guildbox/internal/domain/playlist"
	"github.com/osa030/guildbox/internal/domain/source"
)

// SearchProvider finds candidate streams for free text.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]source.SearchResult, error)
}

// MetadataProvider supplies canonical metadata for cross-service links.
type MetadataProvider interface {
	// Name returns the provider name used in source labels.
	Name() string
	GetTrackMetadata(ctx context.Context, id string) (source.TrackMetadata, error)
	GetPlaylistMetadata(ctx context.Context, ref playlist.Ref) (*playlist.Playlist, error)
}

// StreamingProvider is the native provider the sink can play from.
type StreamingProvider interface {
	// Name returns the provider name used in source labels.
	Name() string
	ValidateLink(url string) bool
	GetStreamMetadata(ctx context.Context, url string) (source.StreamMetadata, error)
}
