package rediscache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/source"
)

// StreamingProvider is the provider being cached.
type StreamingProvider interface {
	Name() string
	ValidateLink(url string) bool
	GetStreamMetadata(ctx context.Context, url string) (source.StreamMetadata, error)
}

// cachedStream is the stored form of source.StreamMetadata.
type cachedStream struct {
	Title        string `json:"title"`
	DurationMs   int64  `json:"durationMs"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	PlayableURL  string `json:"playableUrl"`
}

// StreamCache caches stream metadata lookups of a streaming provider.
// Cache failures never fail a lookup; the provider is asked instead.
type StreamCache struct {
	next   StreamingProvider
	store  Store
	prefix string
	ttl    time.Duration
}

// NewStreamCache wraps next with a cache kept in store.
func NewStreamCache(next StreamingProvider, store Store, prefix string, ttl time.Duration) *StreamCache {
	return &StreamCache{next: next, store: store, prefix: prefix, ttl: ttl}
}

// Name returns the wrapped provider's name.
func (c *StreamCache) Name() string {
	return c.next.Name()
}

// ValidateLink delegates to the wrapped provider.
func (c *StreamCache) ValidateLink(url string) bool {
	return c.next.ValidateLink(url)
}

// GetStreamMetadata returns cached metadata for url, fetching and storing it on a miss.
func (c *StreamCache) GetStreamMetadata(ctx context.Context, url string) (source.StreamMetadata, error) {
	key := c.key(url)

	if meta, ok := c.load(ctx, key); ok {
		zlog.Debug().Msgf("stream metadata cache hit: key=%s", key)
		return meta, nil
	}

	meta, err := c.next.GetStreamMetadata(ctx, url)
	if err != nil {
		return source.StreamMetadata{}, err
	}

	if meta.Title != "" {
		c.save(ctx, key, meta)
	}
	return meta, nil
}

func (c *StreamCache) key(url string) string {
	return c.prefix + "stream:" + strings.TrimSpace(url)
}

func (c *StreamCache) load(ctx context.Context, key string) (source.StreamMetadata, bool) {
	val, ok, err := c.store.Get(ctx, key)
	if err != nil {
		zlog.Warn().Msgf("stream metadata cache read failed: key=%s error=%v", key, err)
		return source.StreamMetadata{}, false
	}
	if !ok {
		return source.StreamMetadata{}, false
	}

	var cached cachedStream
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		zlog.Warn().Msgf("stream metadata cache entry corrupt: key=%s error=%v", key, err)
		return source.StreamMetadata{}, false
	}
	return source.StreamMetadata{
		Title:        cached.Title,
		Duration:     time.Duration(cached.DurationMs) * time.Millisecond,
		ThumbnailURL: cached.ThumbnailURL,
		PlayableURL:  cached.PlayableURL,
	}, true
}

func (c *StreamCache) save(ctx context.Context, key string, meta source.StreamMetadata) {
	data, err := json.Marshal(cachedStream{
		Title:        meta.Title,
		DurationMs:   meta.Duration.Milliseconds(),
		ThumbnailURL: meta.ThumbnailURL,
		PlayableURL:  meta.PlayableURL,
	})
	if err != nil {
		zlog.Warn().Msgf("stream metadata cache encode failed: key=%s error=%v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, string(data), c.ttl); err != nil {
		zlog.Warn().Msgf("stream metadata cache write failed: key=%s error=%v", key, err)
	}
}
