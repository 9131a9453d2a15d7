package youtube

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"

	"github.com/osa030/guildbox/internal/domain/source"
)

// Search backend names.
const (
	BackendYouTube = "youtube"
	BackendYTMusic = "ytmusic"
)

// Searcher finds candidate videos for free text.
type Searcher struct {
	backend string
	search  func(ctx context.Context, query string) ([]source.SearchResult, error)
}

// NewSearcher creates a searcher for the named backend.
func NewSearcher(backend string) (*Searcher, error) {
	switch backend {
	case BackendYouTube, "":
		client := ytsearch.NewClient(nil)
		return &Searcher{
			backend: BackendYouTube,
			search: func(ctx context.Context, query string) ([]source.SearchResult, error) {
				res, err := client.Search(ctx, query)
				if err != nil {
					return nil, err
				}
				results := make([]source.SearchResult, 0, len(res.Results))
				for _, v := range res.Results {
					results = append(results, videoResult(v.VideoID, v.Title, parseClock(v.Duration)))
				}
				return results, nil
			},
		}, nil
	case BackendYTMusic:
		return &Searcher{backend: BackendYTMusic, search: searchMusic}, nil
	default:
		return nil, errors.Newf("unknown search backend: %s", backend)
	}
}

// Backend returns the backend name.
func (s *Searcher) Backend() string {
	return s.backend
}

// Search returns at most limit candidates in relevance order.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]source.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty search query")
	}

	results, err := s.search(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "%s search failed", s.backend)
	}

	results = dedupe(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// searchMusic searches YouTube Music tracks. The client has no context support,
// so the call is abandoned when ctx ends.
func searchMusic(ctx context.Context, query string) ([]source.SearchResult, error) {
	type outcome struct {
		results []source.SearchResult
		err     error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			ch <- outcome{err: err}
			return
		}
		results := make([]source.SearchResult, 0, len(res.Tracks))
		for _, t := range res.Tracks {
			title := t.Title
			if len(t.Artists) > 0 {
				title = t.Artists[0].Name + " - " + t.Title
			}
			results = append(results, videoResult(t.VideoID, title, time.Duration(t.Duration)*time.Second))
		}
		ch <- outcome{results: results}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-ch:
		return o.results, o.err
	}
}

func videoResult(id, title string, duration time.Duration) source.SearchResult {
	r := source.SearchResult{
		ID:          id,
		Title:       title,
		MediaType:   source.MediaTypeVideo,
		HasDuration: duration > 0,
	}
	if id != "" {
		r.URL = WatchURL(id)
	}
	return r
}

// dedupe drops results without an ID and repeated IDs, keeping the first occurrence.
func dedupe(results []source.SearchResult) []source.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// parseClock parses durations like "3:20" or "1:05:20". Anything else, including live badges, is zero.
func parseClock(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
