package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/source"
	"github.com/osa030/guildbox/internal/domain/track"
)

// Config holds resolver configuration.
type Config struct {
	SearchLimit     int           // Candidates requested per search
	ProviderTimeout time.Duration // Bound for each outbound provider call (0 = none)
}

// Resolver turns a single query into a playable track.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	search    SearchProvider
	metadata  MetadataProvider // nil when no cross-service provider is configured
	streaming StreamingProvider
	config    Config
}

// New creates a new Resolver. metadata may be nil.
func New(search SearchProvider, metadata MetadataProvider, streaming StreamingProvider, config Config) *Resolver {
	if config.SearchLimit <= 0 {
		config.SearchLimit = 5
	}
	return &Resolver{
		search:    search,
		metadata:  metadata,
		streaming: streaming,
		config:    config,
	}
}

// Resolve resolves query into a track attributed to requester.
func (r *Resolver) Resolve(ctx context.Context, query string, requester track.Requester) (track.Track, error) {
	kind := Classify(query)
	zlog.Debug().Msgf("resolver: classified query: kind=%s query=%q", kind, query)

	var (
		t   track.Track
		err error
	)
	switch kind {
	case KindDirectStream:
		t, err = r.resolveDirect(ctx, query)
	case KindCrossServiceTrack:
		t, err = r.resolveCrossServiceLink(ctx, query)
	case KindSearch:
		t, err = r.resolveSearch(ctx, query)
	case KindCrossServicePlaylist:
		err = errors.Wrap(ErrUnsupportedSource, "playlist links must be added as a playlist")
	default:
		err = errors.Wrapf(ErrUnsupportedSource, "query %q is not from a supported provider", query)
	}
	if err != nil {
		return track.Track{}, err
	}
	return t.WithRequester(requester), nil
}

// ResolveCrossService finds a playable equivalent for metadata from the metadata provider.
func (r *Resolver) ResolveCrossService(ctx context.Context, meta source.TrackMetadata, requester track.Requester) (track.Track, error) {
	t, err := r.matchCrossService(ctx, meta)
	if err != nil {
		return track.Track{}, err
	}
	return t.WithRequester(requester), nil
}

func (r *Resolver) resolveDirect(ctx context.Context, url string) (track.Track, error) {
	if !r.streaming.ValidateLink(url) {
		return track.Track{}, errors.Wrapf(ErrInvalidLink, "invalid %s link: %s", r.streaming.Name(), url)
	}

	meta, err := r.streamMetadata(ctx, url)
	if err != nil {
		return track.Track{}, mark(err, ErrInvalidLink, "failed to fetch stream metadata")
	}
	return fromStream(meta, r.streaming.Name()), nil
}

func (r *Resolver) resolveCrossServiceLink(ctx context.Context, query string) (track.Track, error) {
	if r.metadata == nil {
		return track.Track{}, errors.Wrap(ErrUnsupportedSource, "no metadata provider configured")
	}

	id := ExtractTrackID(query)
	if id == "" {
		return track.Track{}, errors.Wrapf(ErrInvalidLink, "no track ID in %s", query)
	}

	callCtx, cancel := r.callContext(ctx)
	meta, err := r.metadata.GetTrackMetadata(callCtx, id)
	cancel()
	if err != nil {
		return track.Track{}, mark(err, ErrCrossServiceResolution,
			fmt.Sprintf("failed to get %s track %s", r.metadata.Name(), id))
	}

	return r.matchCrossService(ctx, meta)
}

func (r *Resolver) matchCrossService(ctx context.Context, meta source.TrackMetadata) (track.Track, error) {
	query := meta.SearchQuery()
	t, err := r.resolveSearch(ctx, query)
	if err != nil {
		return track.Track{}, mark(err, ErrCrossServiceResolution,
			fmt.Sprintf("no playable equivalent for %q", query))
	}

	metaName := "metadata"
	if r.metadata != nil {
		metaName = r.metadata.Name()
	}
	t.Source = fmt.Sprintf("%s → %s", metaName, r.streaming.Name())
	t.OriginalTitle = meta.Title
	t.OriginalArtist = meta.Artist
	t.OriginalURL = meta.ExternalURL
	return t, nil
}

func (r *Resolver) resolveSearch(ctx context.Context, query string) (track.Track, error) {
	callCtx, cancel := r.callContext(ctx)
	results, err := r.search.Search(callCtx, query, r.config.SearchLimit)
	cancel()
	if err != nil {
		return track.Track{}, mark(err, ErrNoResults, fmt.Sprintf("search failed for %q", query))
	}

	var selected *source.SearchResult
	for i := range results {
		// Candidates without a duration are usually live streams or non-track content.
		if results[i].IsPlayable() {
			selected = &results[i]
			break
		}
	}
	if selected == nil {
		return track.Track{}, errors.Wrapf(ErrNoResults, "no playable result for %q (candidates=%d)", query, len(results))
	}

	meta, err := r.streamMetadata(ctx, selected.URL)
	if err != nil {
		return track.Track{}, mark(err, ErrNoResults, fmt.Sprintf("failed to fetch metadata for %s", selected.URL))
	}
	zlog.Debug().Msgf("resolver: search matched: query=%q title=%q url=%s", query, meta.Title, meta.PlayableURL)
	return fromStream(meta, r.streaming.Name()), nil
}

func (r *Resolver) streamMetadata(ctx context.Context, url string) (source.StreamMetadata, error) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()
	meta, err := r.streaming.GetStreamMetadata(callCtx, url)
	if err != nil {
		return source.StreamMetadata{}, err
	}
	if meta.PlayableURL == "" {
		meta.PlayableURL = url
	}
	return meta, nil
}

// callContext bounds a single provider call.
func (r *Resolver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.ProviderTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.ProviderTimeout)
}

func fromStream(meta source.StreamMetadata, sourceName string) track.Track {
	return track.Track{
		Title:        meta.Title,
		PlayableURL:  meta.PlayableURL,
		Duration:     meta.Duration,
		ThumbnailURL: meta.ThumbnailURL,
		Source:       sourceName,
	}
}
