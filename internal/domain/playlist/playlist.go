// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/guildbox/internal/domain/source"

// Kind distinguishes track collections a metadata provider can expand.
type Kind int

const (
	KindPlaylist Kind = iota
	KindAlbum
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPlaylist:
		return "playlist"
	case KindAlbum:
		return "album"
	default:
		return "unknown"
	}
}

// Ref identifies a collection on the metadata provider.
type Ref struct {
	Kind Kind
	ID   string
}

// Playlist represents an ordered collection of member tracks.
type Playlist struct {
	Title   string                 // Playlist or album name
	Total   int                    // Size reported by the provider
	Members []source.TrackMetadata // Ordered members (may be fewer than Total)
}

// Head returns at most n members, preserving order.
func (p *Playlist) Head(n int) []source.TrackMetadata {
	if n < 0 || n >= len(p.Members) {
		return p.Members
	}
	return p.Members[:n]
}
