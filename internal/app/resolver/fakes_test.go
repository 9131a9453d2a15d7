package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/guildbox/internal/domain/playlist"
	"github.com/osa030/guildbox/internal/domain/source"
)

type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]source.SearchResult
	err     error
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, limit int) ([]source.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	res := f.results[query]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

type fakeMetadata struct {
	tracks    map[string]source.TrackMetadata
	playlists map[string]*playlist.Playlist
	err       error
}

func (f *fakeMetadata) Name() string { return "Spotify" }

func (f *fakeMetadata) GetTrackMetadata(ctx context.Context, id string) (source.TrackMetadata, error) {
	if f.err != nil {
		return source.TrackMetadata{}, f.err
	}
	m, ok := f.tracks[id]
	if !ok {
		return source.TrackMetadata{}, errors.Newf("track %s not found", id)
	}
	return m, nil
}

func (f *fakeMetadata) GetPlaylistMetadata(ctx context.Context, ref playlist.Ref) (*playlist.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.playlists[ref.ID]
	if !ok {
		return nil, errors.Newf("%s %s not found", ref.Kind, ref.ID)
	}
	return p, nil
}

type fakeStreaming struct {
	streams map[string]source.StreamMetadata
	delay   time.Duration
}

func (f *fakeStreaming) Name() string { return "YouTube" }

func (f *fakeStreaming) ValidateLink(url string) bool {
	return strings.Contains(url, "watch?v=") || strings.Contains(url, "youtu.be/")
}

func (f *fakeStreaming) GetStreamMetadata(ctx context.Context, url string) (source.StreamMetadata, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return source.StreamMetadata{}, ctx.Err()
		}
	}
	m, ok := f.streams[url]
	if !ok {
		return source.StreamMetadata{}, errors.Newf("video unavailable: %s", url)
	}
	return m, nil
}

func video(id string, hasDuration bool) source.SearchResult {
	return source.SearchResult{
		ID:          id,
		URL:         "https://www.youtube.com/watch?v=" + id,
		MediaType:   source.MediaTypeVideo,
		HasDuration: hasDuration,
	}
}
