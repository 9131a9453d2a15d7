package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/guildbox/internal/domain/source"
	"github.com/osa030/guildbox/internal/domain/track"
)

var alice = track.Requester{ID: "u1", Name: "Alice"}

func newTestResolver() (*Resolver, *fakeSearch, *fakeMetadata, *fakeStreaming) {
	search := &fakeSearch{results: map[string][]source.SearchResult{}}
	metadata := &fakeMetadata{tracks: map[string]source.TrackMetadata{}}
	streaming := &fakeStreaming{streams: map[string]source.StreamMetadata{}}
	return New(search, metadata, streaming, Config{}), search, metadata, streaming
}

func TestResolver_Resolve_DirectLink(t *testing.T) {
	r, _, _, streaming := newTestResolver()
	url := "https://www.youtube.com/watch?v=abc"
	streaming.streams[url] = source.StreamMetadata{
		Title:        "Song A",
		Duration:     200 * time.Second,
		ThumbnailURL: "https://i.ytimg.com/vi/abc/hq.jpg",
	}

	got, err := r.Resolve(context.Background(), url, alice)
	require.NoError(t, err)

	assert.Equal(t, "Song A", got.Title)
	assert.Equal(t, url, got.PlayableURL)
	assert.Equal(t, "3:20", got.DisplayDuration())
	assert.Equal(t, "YouTube", got.Source)
	assert.Equal(t, alice, got.Requester)
	assert.Empty(t, got.OriginalTitle)
	assert.False(t, got.IsCrossService())
}

func TestResolver_Resolve_DirectLinkUnknownDuration(t *testing.T) {
	r, _, _, streaming := newTestResolver()
	url := "https://youtu.be/live"
	streaming.streams[url] = source.StreamMetadata{Title: "Live"}

	got, err := r.Resolve(context.Background(), url, alice)
	require.NoError(t, err)
	assert.Equal(t, "0:00", got.DisplayDuration())
}

func TestResolver_Resolve_DirectLinkErrors(t *testing.T) {
	r, _, _, _ := newTestResolver()

	t.Run("link fails validation", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "https://www.youtube.com/channel/xyz", alice)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidLink))
		assert.Equal(t, "invalid_link", Code(err))
	})

	t.Run("metadata unavailable", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=gone", alice)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidLink))
	})
}

func TestResolver_Resolve_Search(t *testing.T) {
	r, search, _, streaming := newTestResolver()
	search.results["lofi beats"] = []source.SearchResult{
		{ID: "chan", URL: "https://www.youtube.com/channel/chan", MediaType: "channel"},
		video("live", false),
		video("v1", true),
		video("v2", true),
	}
	streaming.streams["https://www.youtube.com/watch?v=v1"] = source.StreamMetadata{Title: "Lofi 1", Duration: time.Minute}
	streaming.streams["https://www.youtube.com/watch?v=v2"] = source.StreamMetadata{Title: "Lofi 2", Duration: time.Minute}

	got, err := r.Resolve(context.Background(), "lofi beats", alice)
	require.NoError(t, err)

	assert.Equal(t, "Lofi 1", got.Title, "first playable candidate wins")
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", got.PlayableURL)
	assert.Equal(t, alice, got.Requester)
}

func TestResolver_Resolve_SearchNoResults(t *testing.T) {
	tests := []struct {
		name    string
		results []source.SearchResult
		err     error
	}{
		{name: "empty result list"},
		{name: "only non-playable candidates", results: []source.SearchResult{video("live", false)}},
		{name: "search provider failure", err: errors.New("quota exceeded")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, search, _, _ := newTestResolver()
			search.results["x"] = tt.results
			search.err = tt.err

			_, err := r.Resolve(context.Background(), "x", alice)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoResults))
			assert.Equal(t, "no_results", Code(err))
		})
	}
}

func TestResolver_Resolve_CrossServiceTrack(t *testing.T) {
	r, search, metadata, streaming := newTestResolver()
	metadata.tracks["4uLU6hMCjMI75M1A2tKUQC"] = source.TrackMetadata{
		Title:       "Never Gonna Give You Up",
		Artist:      "Rick Astley",
		ExternalURL: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
	}
	search.results["Rick Astley Never Gonna Give You Up"] = []source.SearchResult{video("dQw4w9WgXcQ", true)}
	streaming.streams["https://www.youtube.com/watch?v=dQw4w9WgXcQ"] = source.StreamMetadata{
		Title:    "Rick Astley - Never Gonna Give You Up (Official Video)",
		Duration: 213 * time.Second,
	}

	got, err := r.Resolve(context.Background(), "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc", alice)
	require.NoError(t, err)

	assert.Equal(t, "Rick Astley - Never Gonna Give You Up (Official Video)", got.Title)
	assert.Equal(t, "Spotify → YouTube", got.Source)
	assert.Equal(t, "Never Gonna Give You Up", got.OriginalTitle)
	assert.Equal(t, "Rick Astley", got.OriginalArtist)
	assert.Equal(t, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", got.OriginalURL)
	assert.True(t, got.IsCrossService())
	assert.Equal(t, alice, got.Requester)
}

func TestResolver_Resolve_CrossServiceErrors(t *testing.T) {
	t.Run("metadata lookup fails", func(t *testing.T) {
		r, _, _, _ := newTestResolver()
		_, err := r.Resolve(context.Background(), "spotify:track:missing", alice)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCrossServiceResolution))
		assert.Equal(t, "cross_service_resolution", Code(err))
	})

	t.Run("no equivalent found", func(t *testing.T) {
		r, _, metadata, _ := newTestResolver()
		metadata.tracks["abc"] = source.TrackMetadata{Title: "Obscure", Artist: "Nobody"}
		_, err := r.Resolve(context.Background(), "spotify:track:abc", alice)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCrossServiceResolution))
		assert.Equal(t, "cross_service_resolution", Code(err))
	})

	t.Run("no metadata provider", func(t *testing.T) {
		r := New(&fakeSearch{}, nil, &fakeStreaming{}, Config{})
		_, err := r.Resolve(context.Background(), "spotify:track:abc", alice)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedSource))
	})
}

func TestResolver_Resolve_Unsupported(t *testing.T) {
	r, _, _, _ := newTestResolver()

	for _, q := range []string{
		"https://soundcloud.com/artist/song",
		"https://open.spotify.com/artist/xyz",
		"https://www.youtube.com/playlist?list=PL1",
		"https://open.spotify.com/playlist/abc",
	} {
		_, err := r.Resolve(context.Background(), q, alice)
		require.Error(t, err, q)
		assert.True(t, errors.Is(err, ErrUnsupportedSource), q)
		assert.Equal(t, "unsupported_source", Code(err), q)
	}
}

func TestResolver_ProviderTimeout(t *testing.T) {
	search := &fakeSearch{}
	streaming := &fakeStreaming{
		streams: map[string]source.StreamMetadata{"https://youtu.be/slow": {Title: "Slow"}},
		delay:   time.Second,
	}
	r := New(search, nil, streaming, Config{ProviderTimeout: 10 * time.Millisecond})

	_, err := r.Resolve(context.Background(), "https://youtu.be/slow", alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, ErrInvalidLink))
}

func TestResolver_SearchLimit(t *testing.T) {
	search := &fakeSearch{results: map[string][]source.SearchResult{
		"q": {video("a", false), video("b", false), video("c", true)},
	}}
	streaming := &fakeStreaming{streams: map[string]source.StreamMetadata{
		"https://www.youtube.com/watch?v=c": {Title: "C"},
	}}

	limited := New(search, nil, streaming, Config{SearchLimit: 2})
	_, err := limited.Resolve(context.Background(), "q", alice)
	assert.True(t, errors.Is(err, ErrNoResults))

	wide := New(search, nil, streaming, Config{SearchLimit: 3})
	got, err := wide.Resolve(context.Background(), "q", alice)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Title)
}
