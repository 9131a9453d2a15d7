package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/guildbox/internal/app/resolver"
	"github.com/osa030/guildbox/internal/domain/track"
	"github.com/osa030/guildbox/internal/infra/config"
	"github.com/osa030/guildbox/internal/infra/youtube"
)

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	for _, key := range []string{"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "ADMIN_TOKEN", "REDIS_PASSWORD"} {
		t.Setenv(key, "")
	}
	cfg, err := config.Parse([]byte("admin:\n  token: t\n" + yaml))
	require.NoError(t, err)
	return cfg
}

func TestNewFilterChain(t *testing.T) {
	cfg := parseConfig(t, `
filters:
  queue_limit_filter:
    enabled: true
    settings:
      max_tracks: 20
  duration_limit_filter:
    enabled: true
    settings:
      max_minutes: 10
  duplicate_track_filter:
    enabled: false
`)

	chain, err := NewFilterChain(cfg)
	require.NoError(t, err)

	var names []string
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"duration_limit_filter", "queue_limit_filter"}, names)
}

func TestNewFilterChain_Errors(t *testing.T) {
	t.Run("unknown filter", func(t *testing.T) {
		cfg := parseConfig(t, "filters:\n  market_filter:\n    enabled: true\n")
		_, err := NewFilterChain(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown filter: market_filter")
	})

	t.Run("invalid settings", func(t *testing.T) {
		cfg := parseConfig(t, "filters:\n  queue_limit_filter:\n    enabled: true\n    settings:\n      max_tracks: -1\n")
		_, err := NewFilterChain(cfg)
		require.Error(t, err)
	})
}

func TestNewProviders_WithoutSpotify(t *testing.T) {
	cfg := parseConfig(t, "")

	p, err := NewProviders(context.Background(), cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.NotNil(t, p.Resolver)
	assert.NotNil(t, p.Expander)

	_, err = p.Resolver.Resolve(context.Background(), "https://open.spotify.com/track/abc", track.Requester{ID: "u1"})
	assert.ErrorIs(t, err, resolver.ErrUnsupportedSource)
}

func TestSinkFactory(t *testing.T) {
	dir := t.TempDir()
	cfg := parseConfig(t, "sink:\n  output_dir: "+dir+"\n")

	sink := SinkFactory(cfg)("g1")
	require.NotNil(t, sink)
	assert.IsType(t, &youtube.Sink{}, sink)
	require.NoError(t, sink.Close())
}
