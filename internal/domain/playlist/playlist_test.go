package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/guildbox/internal/domain/source"
)

func members(n int) []source.TrackMetadata {
	out := make([]source.TrackMetadata, n)
	for i := range out {
		out[i] = source.TrackMetadata{Title: string(rune('a' + i))}
	}
	return out
}

func TestPlaylist_Head(t *testing.T) {
	tests := []struct {
		name     string
		members  int
		n        int
		expected int
	}{
		{name: "fewer members than cap", members: 3, n: 50, expected: 3},
		{name: "more members than cap", members: 10, n: 5, expected: 5},
		{name: "exact", members: 5, n: 5, expected: 5},
		{name: "zero cap", members: 5, n: 0, expected: 0},
		{name: "negative cap means unbounded", members: 4, n: -1, expected: 4},
		{name: "empty playlist", members: 0, n: 50, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{Members: members(tt.members)}
			head := p.Head(tt.n)
			assert.Len(t, head, tt.expected)
			for i := range head {
				assert.Equal(t, p.Members[i], head[i], "order must be preserved")
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "playlist", KindPlaylist.String())
	assert.Equal(t, "album", KindAlbum.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
