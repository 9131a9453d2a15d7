// Package guild provides the guild manager, the entry point for all per-guild playback operations.
package guild

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/app/filter"
	"github.com/osa030/guildbox/internal/app/guild/registry"
	"github.com/osa030/guildbox/internal/app/notification"
	"github.com/osa030/guildbox/internal/app/playback"
	"github.com/osa030/guildbox/internal/app/resolver"
	"github.com/osa030/guildbox/internal/domain/track"
	"github.com/osa030/guildbox/internal/infra/logger"
)

// Resolver resolves a single query into a track.
type Resolver interface {
	Resolve(ctx context.Context, query string, requester track.Requester) (track.Track, error)
}

// Expander resolves a playlist query into tracks.
type Expander interface {
	Expand(ctx context.Context, query string, requester track.Requester) (resolver.PlaylistResult, error)
}

// SinkFactory builds the audio sink of a guild.
type SinkFactory func(guildID string) playback.Sink

// Options holds optional manager collaborators.
type Options struct {
	Filters  *filter.Chain // nil admits everything
	Playback playback.Config
}

// Manager coordinates resolution, admission and playback for every guild.
// Resolution runs without any lock; only queue mutation takes the guild engine's lock.
type Manager struct {
	resolver     Resolver
	expander     Expander
	sinks        SinkFactory
	filters      *filter.Chain
	playbackCfg  playback.Config
	registry     *registry.Registry
	notification *notification.Manager

	wg sync.WaitGroup
}

// NewManager creates a new guild manager.
func NewManager(res Resolver, exp Expander, sinks SinkFactory, opts Options) *Manager {
	filters := opts.Filters
	if filters == nil {
		filters = filter.NewChain()
	}
	m := &Manager{
		resolver:     res,
		expander:     exp,
		sinks:        sinks,
		filters:      filters,
		playbackCfg:  opts.Playback,
		notification: notification.NewManager(),
	}
	m.registry = registry.New(m.newEngine)
	return m
}

// newEngine builds a guild engine and starts forwarding its events.
func (m *Manager) newEngine(guildID string) *playback.Engine {
	e := playback.NewEngine(guildID, m.sinks(guildID), m.playbackCfg)
	m.wg.Add(1)
	go m.playbackLoop(e)
	return e
}

// Enqueue resolves query and appends the track to the guild queue, starting playback when idle.
// Resolution and admission errors are returned verbatim.
func (m *Manager) Enqueue(ctx context.Context, guildID, query string, requester track.Requester) (track.Track, error) {
	log := logger.ForGuild(guildID)

	t, err := m.resolver.Resolve(ctx, query, requester)
	if err != nil {
		log.Info().Msgf("track request failed: requester=%s query=%q code=%s error=%v", requester, query, resolver.Code(err), err)
		return track.Track{}, err
	}

	// An engine closed by a concurrent leave is replaced once.
	for attempt := 0; ; attempt++ {
		e := m.registry.GetOrCreate(guildID)

		req := filter.Request{
			GuildID:   guildID,
			Requester: requester,
			Kind:      filter.KindSingle,
			Queue:     e.Snapshot().Tracks,
		}
		if result := m.filters.Execute(ctx, req, t); !result.Accepted {
			log.Info().Msgf("track request rejected: requester=%s title=%q code=%s", requester, t.Title, result.Code)
			return track.Track{}, rejected(result.Code, t.Title)
		}

		position, err := e.Enqueue(t)
		if errors.Is(err, playback.ErrEngineClosed) && attempt == 0 {
			continue
		}
		if err != nil {
			return track.Track{}, errors.Wrap(err, "failed to enqueue track")
		}

		log.Info().Msgf("track request: requester=%s title=%q source=%q position=%d", requester, t.Title, t.Source, position)
		return t, nil
	}
}

// EnqueuePlaylist expands a playlist query and appends every admitted track in playlist order.
// A playlist that yields no playable track returns ErrNoPlayableTracks along with the result.
func (m *Manager) EnqueuePlaylist(ctx context.Context, guildID, query string, requester track.Requester) (resolver.PlaylistResult, error) {
	log := logger.ForGuild(guildID)

	result, err := m.expander.Expand(ctx, query, requester)
	if err != nil {
		log.Info().Msgf("playlist request failed: requester=%s query=%q code=%s error=%v", requester, query, resolver.Code(err), err)
		return resolver.PlaylistResult{}, err
	}
	if result.ResolvedCount() == 0 {
		return result, errors.Wrapf(ErrNoPlayableTracks, "playlist %q", result.Title)
	}

	for attempt := 0; ; attempt++ {
		e := m.registry.GetOrCreate(guildID)

		admitted, firstRejection := m.admitPlaylist(ctx, guildID, requester, e.Snapshot().Tracks, result.Tracks)
		filtered := result
		filtered.Tracks = admitted
		filtered.Rejected = len(result.Tracks) - len(admitted)
		if len(admitted) == 0 {
			log.Info().Msgf("playlist request rejected: requester=%s title=%q rejected=%d", requester, result.Title, filtered.Rejected)
			return filtered, firstRejection
		}

		position, err := e.EnqueueAll(admitted)
		if errors.Is(err, playback.ErrEngineClosed) && attempt == 0 {
			continue
		}
		if err != nil {
			return resolver.PlaylistResult{}, errors.Wrap(err, "failed to enqueue playlist")
		}

		log.Info().Msgf("playlist request: requester=%s title=%q queued=%d failed=%d rejected=%d declared=%d position=%d",
			requester, filtered.Title, filtered.ResolvedCount(), filtered.Failed, filtered.Rejected, filtered.DeclaredTotal, position)
		return filtered, nil
	}
}

// admitPlaylist runs the filter chain on each track, treating earlier admitted tracks as queued.
func (m *Manager) admitPlaylist(ctx context.Context, guildID string, requester track.Requester, queue, tracks []track.Track) ([]track.Track, error) {
	admitted := make([]track.Track, 0, len(tracks))
	var firstRejection error
	for _, t := range tracks {
		req := filter.Request{
			GuildID:   guildID,
			Requester: requester,
			Kind:      filter.KindPlaylist,
			Queue:     append(queue[:len(queue):len(queue)], admitted...),
		}
		if result := m.filters.Execute(ctx, req, t); !result.Accepted {
			zlog.Debug().Msgf("playlist member rejected: guild=%s title=%q code=%s", guildID, t.Title, result.Code)
			if firstRejection == nil {
				firstRejection = rejected(result.Code, t.Title)
			}
			continue
		}
		admitted = append(admitted, t)
	}
	return admitted, firstRejection
}

// Skip skips the current track of the guild and returns it.
func (m *Manager) Skip(guildID string) (track.Track, error) {
	e, ok := m.registry.Get(guildID)
	if !ok {
		zlog.Debug().Msgf("skip without playback: guild=%s", guildID)
		return track.Track{}, playback.ErrNoActivePlayback
	}

	skipped, err := e.Skip()
	if err != nil {
		zlog.Debug().Msgf("skip without playback: guild=%s", guildID)
		return track.Track{}, err
	}
	return skipped, nil
}

// Stop clears the guild queue and stops playback. It returns the number of tracks removed.
func (m *Manager) Stop(guildID string) (int, error) {
	e, ok := m.registry.Get(guildID)
	if !ok {
		zlog.Debug().Msgf("stop without playback: guild=%s", guildID)
		return 0, playback.ErrNoActivePlayback
	}

	cleared, err := e.Stop()
	if err != nil {
		zlog.Debug().Msgf("stop without playback: guild=%s", guildID)
		return 0, err
	}
	return cleared, nil
}

// Leave tears the guild's engine down. Its queue is discarded.
func (m *Manager) Leave(guildID string) error {
	err := m.registry.Remove(guildID)
	if errors.Is(err, registry.ErrGuildNotFound) {
		return errors.Wrapf(ErrNotConnected, "guild %s", guildID)
	}
	if err != nil {
		return err
	}
	zlog.Info().Msgf("left guild: guild=%s", guildID)
	return nil
}

// PeekQueue returns the guild's playback state and queue.
func (m *Manager) PeekQueue(guildID string) playback.Snapshot {
	e, ok := m.registry.Get(guildID)
	if !ok {
		return playback.Snapshot{GuildID: guildID, State: playback.StateIdle}
	}
	return e.Snapshot()
}

// NowPlaying returns the guild's current track.
func (m *Manager) NowPlaying(guildID string) (track.Track, bool) {
	return m.PeekQueue(guildID).NowPlaying()
}

// Guilds returns the guilds with a live engine.
func (m *Manager) Guilds() []string {
	return m.registry.GuildIDs()
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Close tears every guild down and waits for event forwarding to finish.
func (m *Manager) Close() error {
	err := m.registry.CloseAll()
	m.wg.Wait()
	m.notification.Close()
	return err
}

// playbackLoop forwards the engine's events until its event channel is closed.
func (m *Manager) playbackLoop(e *playback.Engine) {
	defer m.wg.Done()
	for event := range e.Events() {
		m.handlePlaybackEvent(event)
	}
}

func (m *Manager) handlePlaybackEvent(event playback.Event) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback event handler panicked: guild=%s type=%s panic=%v", event.GuildID, event.Type, r)
		}
	}()

	zlog.Debug().Msgf("playback event: guild=%s type=%s state=%s", event.GuildID, event.Type, event.State)
	m.notification.Broadcast(notification.FromEvent(event))
}
