package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/track"
)

// ExpanderConfig holds playlist expansion limits.
type ExpanderConfig struct {
	MaxTracks  int           // Members resolved at most per playlist
	PauseEvery int           // Attempts between pauses (0 disables pausing)
	Pause      time.Duration // Pause length
}

// DefaultExpanderConfig returns the standard limits: 50 tracks, 1s pause every 5 attempts.
func DefaultExpanderConfig() ExpanderConfig {
	return ExpanderConfig{
		MaxTracks:  50,
		PauseEvery: 5,
		Pause:      time.Second,
	}
}

// PlaylistResult is the outcome of a playlist expansion.
type PlaylistResult struct {
	Title         string
	Tracks        []track.Track // Resolved tracks in playlist order
	DeclaredTotal int           // Size reported by the provider
	Failed        int           // Members attempted but not resolved
	Rejected      int           // Resolved members dropped by admission filters
}

// ResolvedCount returns the number of resolved tracks.
func (r PlaylistResult) ResolvedCount() int {
	return len(r.Tracks)
}

// PlaylistExpander resolves cross-service playlists member by member.
type PlaylistExpander struct {
	resolver *Resolver
	config   ExpanderConfig

	// wait pauses between batches; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewPlaylistExpander creates a new PlaylistExpander.
func NewPlaylistExpander(resolver *Resolver, config ExpanderConfig) *PlaylistExpander {
	if config.MaxTracks <= 0 {
		config.MaxTracks = DefaultExpanderConfig().MaxTracks
	}
	return &PlaylistExpander{
		resolver: resolver,
		config:   config,
		wait:     waitContext,
	}
}

// Expand resolves the members of the playlist referenced by query.
// Individual member failures are logged and skipped; only a failure to fetch the
// playlist itself fails the call.
func (e *PlaylistExpander) Expand(ctx context.Context, query string, requester track.Requester) (PlaylistResult, error) {
	ref, ok := ExtractPlaylistRef(query)
	if !ok {
		return PlaylistResult{}, errors.Wrapf(ErrUnsupportedSource, "only %s playlists are supported", e.metadataName())
	}
	if e.resolver.metadata == nil {
		return PlaylistResult{}, errors.Wrap(ErrUnsupportedSource, "no metadata provider configured")
	}

	callCtx, cancel := e.resolver.callContext(ctx)
	pl, err := e.resolver.metadata.GetPlaylistMetadata(callCtx, ref)
	cancel()
	if err != nil {
		return PlaylistResult{}, mark(err, ErrPlaylistFetch,
			fmt.Sprintf("failed to get %s %s", ref.Kind, ref.ID))
	}

	members := pl.Head(e.config.MaxTracks)
	zlog.Info().Msgf("expanding playlist: title=%q declared=%d processing=%d", pl.Title, pl.Total, len(members))

	result := PlaylistResult{
		Title:         pl.Title,
		Tracks:        make([]track.Track, 0, len(members)),
		DeclaredTotal: pl.Total,
	}

	attempts := 0
	for i, meta := range members {
		if meta.Title == "" {
			continue
		}

		attempts++
		t, err := e.resolver.ResolveCrossService(ctx, meta, requester)
		if err != nil {
			if ctx.Err() != nil {
				return PlaylistResult{}, errors.Wrap(ctx.Err(), "playlist expansion cancelled")
			}
			result.Failed++
			zlog.Warn().Msgf("playlist member not resolved: index=%d query=%q error=%v", i, meta.SearchQuery(), err)
		} else {
			result.Tracks = append(result.Tracks, t)
		}

		if e.config.PauseEvery > 0 && attempts%e.config.PauseEvery == 0 && i < len(members)-1 {
			if err := e.wait(ctx, e.config.Pause); err != nil {
				return PlaylistResult{}, errors.Wrap(err, "playlist expansion cancelled")
			}
		}
	}

	zlog.Info().Msgf("playlist expanded: title=%q resolved=%d failed=%d declared=%d",
		result.Title, result.ResolvedCount(), result.Failed, result.DeclaredTotal)
	return result, nil
}

func (e *PlaylistExpander) metadataName() string {
	if e.resolver.metadata == nil {
		return "cross-service"
	}
	return e.resolver.metadata.Name()
}

// waitContext sleeps for d unless ctx is done first.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
