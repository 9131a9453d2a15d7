// Package bootstrap builds the application components from configuration.
package bootstrap

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/app/filter"
	"github.com/osa030/guildbox/internal/app/guild"
	"github.com/osa030/guildbox/internal/app/playback"
	"github.com/osa030/guildbox/internal/app/resolver"
	"github.com/osa030/guildbox/internal/infra/config"
	"github.com/osa030/guildbox/internal/infra/rediscache"
	"github.com/osa030/guildbox/internal/infra/spotify"
	"github.com/osa030/guildbox/internal/infra/youtube"
)

// Providers holds the resolution components.
type Providers struct {
	Resolver *resolver.Resolver
	Expander *resolver.PlaylistExpander

	closers []func() error
}

// Close releases provider connections.
func (p *Providers) Close() error {
	var err error
	for _, c := range p.closers {
		err = errors.CombineErrors(err, c())
	}
	return err
}

// NewProviders builds the resolver and playlist expander.
// Spotify links are unsupported unless Spotify credentials are configured.
func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	p := &Providers{}

	searcher, err := youtube.NewSearcher(cfg.YouTube.SearchBackend)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create search backend")
	}

	var streaming resolver.StreamingProvider = youtube.NewProvider(youtube.Config{
		YtdlpPath: cfg.YouTube.YtdlpPath,
	})

	if cfg.Cache.Enabled {
		store, err := rediscache.NewRedisStore(ctx, rediscache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create metadata cache")
		}
		p.closers = append(p.closers, store.Close)
		streaming = rediscache.NewStreamCache(streaming, store, cfg.Cache.KeyPrefix, cfg.CacheTTL())
		zlog.Info().Msgf("stream metadata cache enabled: addr=%s ttl=%s", cfg.Cache.Addr, cfg.CacheTTL())
	}

	// A nil interface keeps cross-service links unsupported
	var metadata resolver.MetadataProvider
	if cfg.Spotify.Enabled() {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:          cfg.Spotify.ClientID,
			ClientSecret:      cfg.Spotify.ClientSecret,
			Market:            cfg.Spotify.Market,
			MaxPlaylistItems:  cfg.Spotify.MaxPlaylistItems,
			RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
			Burst:             cfg.Spotify.Burst,
			MaxRetries:        cfg.Spotify.MaxRetries,
		})
		if err != nil {
			_ = p.Close()
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		metadata = client
	} else {
		zlog.Info().Msg("Spotify not configured, cross-service links are unsupported")
	}

	p.Resolver = resolver.New(searcher, metadata, streaming, resolver.Config{
		SearchLimit:     cfg.Resolver.SearchLimit,
		ProviderTimeout: cfg.ProviderTimeout(),
	})
	p.Expander = resolver.NewPlaylistExpander(p.Resolver, resolver.ExpanderConfig{
		MaxTracks:  cfg.Playlist.MaxTracks,
		PauseEvery: cfg.Playlist.PauseEvery,
		Pause:      cfg.PlaylistPause(),
	})
	return p, nil
}

// NewFilterChain builds the admission filter chain from the enabled filters.
func NewFilterChain(cfg *config.Config) (*filter.Chain, error) {
	registered := filter.GetRegistered()
	for name, fc := range cfg.Filters {
		if _, ok := registered[name]; fc.Enabled && !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
	}

	chain := filter.NewChain()
	for _, name := range filter.Names() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f, err := filter.Build(name, cfg.GetFilterSettings(name))
		if err != nil {
			return nil, err
		}
		chain.Add(f)
		zlog.Info().Msgf("filter enabled: name=%s", name)
	}
	return chain, nil
}

// SinkFactory returns a factory for yt-dlp audio sinks.
func SinkFactory(cfg *config.Config) guild.SinkFactory {
	sinkCfg := youtube.SinkConfig{
		OutputDir:   cfg.Sink.OutputDir,
		YtdlpPath:   cfg.YouTube.YtdlpPath,
		AudioFormat: cfg.YouTube.AudioFormat,
	}
	return func(guildID string) playback.Sink {
		return youtube.NewSink(guildID, sinkCfg)
	}
}

// NewGuildManager builds the guild manager.
func NewGuildManager(cfg *config.Config, providers *Providers, filters *filter.Chain) *guild.Manager {
	return guild.NewManager(providers.Resolver, providers.Expander, SinkFactory(cfg), guild.Options{
		Filters:  filters,
		Playback: playback.Config{EventBuffer: cfg.Playback.EventBuffer},
	})
}
