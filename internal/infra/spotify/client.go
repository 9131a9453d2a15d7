// Package spotify provides a metadata provider backed by the Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/osa030/guildbox/internal/domain/playlist"
	"github.com/osa030/guildbox/internal/domain/source"
)

// ProviderName is the label used in track provenance.
const ProviderName = "Spotify"

const (
	playlistPageSize = 100
	albumPageSize    = 50
)

// api is the subset of the Spotify Web API the client uses.
type api interface {
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
	GetPlaylist(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	GetAlbum(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullAlbum, error)
	GetAlbumTracks(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.SimpleTrackPage, error)
}

// Client is a Spotify metadata client.
type Client struct {
	api        api
	limiter    *rate.Limiter
	market     string
	maxItems   int
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID          string
	ClientSecret      string
	Market            string
	MaxPlaylistItems  int     // Upper bound on members fetched per playlist or album
	RequestsPerSecond float64 // Client-side rate limit
	Burst             int
	MaxRetries        int
}

// New creates a new Spotify client using the client credentials flow.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Tokens are fetched and refreshed on demand by the HTTP client
	httpClient := creds.Client(ctx)
	return newClient(spotify.New(httpClient), cfg), nil
}

func newClient(a api, cfg Config) *Client {
	market := cfg.Market
	if market == "" {
		market = "US"
	}
	maxItems := cfg.MaxPlaylistItems
	if maxItems <= 0 {
		maxItems = 100
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		api:        a,
		limiter:    rate.NewLimiter(limit, burst),
		market:     market,
		maxItems:   maxItems,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Second,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetTrackMetadata retrieves track metadata by ID, URL, or URI.
func (c *Client) GetTrackMetadata(ctx context.Context, trackID string) (source.TrackMetadata, error) {
	id := extractTrackID(trackID)
	if id == "" {
		return source.TrackMetadata{}, errors.New("invalid track ID")
	}

	var result *spotify.FullTrack
	err := c.retry(ctx, func() error {
		t, err := c.api.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return source.TrackMetadata{}, errors.Wrapf(err, "failed to get track %s", id)
	}

	return convertTrack(&result.SimpleTrack), nil
}

// GetPlaylistMetadata retrieves a playlist or album with up to MaxPlaylistItems members.
func (c *Client) GetPlaylistMetadata(ctx context.Context, ref playlist.Ref) (*playlist.Playlist, error) {
	switch ref.Kind {
	case playlist.KindPlaylist:
		return c.getPlaylist(ctx, extractPlaylistID(ref.ID))
	case playlist.KindAlbum:
		return c.getAlbum(ctx, extractAlbumID(ref.ID))
	default:
		return nil, errors.Newf("unsupported collection kind: %s", ref.Kind)
	}
}

func (c *Client) getPlaylist(ctx context.Context, playlistID string) (*playlist.Playlist, error) {
	if playlistID == "" {
		return nil, errors.New("invalid playlist ID")
	}

	var header *spotify.FullPlaylist
	err := c.retry(ctx, func() error {
		p, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("name,tracks.total"))
		if err != nil {
			return err
		}
		header = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get playlist %s", playlistID)
	}

	result := &playlist.Playlist{
		Title: header.Name,
		Total: int(header.Tracks.Total),
	}

	offset := 0
	for len(result.Members) < c.maxItems {
		limit := min(playlistPageSize, c.maxItems-len(result.Members))

		var page *spotify.PlaylistItemPage
		err := c.retry(ctx, func() error {
			p, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get playlist items: offset=%d", offset)
		}

		for _, item := range page.Items {
			// Episodes have no track and are skipped
			if item.Track.Track != nil && item.Track.Track.Name != "" {
				result.Members = append(result.Members, convertTrack(&item.Track.Track.SimpleTrack))
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += len(page.Items)
	}

	if len(result.Members) > c.maxItems {
		result.Members = result.Members[:c.maxItems]
	}

	zlog.Debug().Msgf("spotify playlist fetched: id=%s title=%q total=%d members=%d",
		playlistID, result.Title, result.Total, len(result.Members))
	return result, nil
}

func (c *Client) getAlbum(ctx context.Context, albumID string) (*playlist.Playlist, error) {
	if albumID == "" {
		return nil, errors.New("invalid album ID")
	}

	var album *spotify.FullAlbum
	err := c.retry(ctx, func() error {
		a, err := c.api.GetAlbum(ctx, spotify.ID(albumID), spotify.Market(c.market))
		if err != nil {
			return err
		}
		album = a
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get album %s", albumID)
	}

	result := &playlist.Playlist{
		Title: album.Name,
		Total: int(album.Tracks.Total),
	}
	for i := range album.Tracks.Tracks {
		result.Members = append(result.Members, convertTrack(&album.Tracks.Tracks[i]))
	}

	// The album response embeds only the first page of tracks
	offset := len(album.Tracks.Tracks)
	for len(result.Members) < c.maxItems && offset < result.Total && offset > 0 {
		limit := min(albumPageSize, c.maxItems-len(result.Members))

		var page *spotify.SimpleTrackPage
		err := c.retry(ctx, func() error {
			p, err := c.api.GetAlbumTracks(ctx, spotify.ID(albumID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get album tracks: offset=%d", offset)
		}
		if len(page.Tracks) == 0 {
			break
		}

		for i := range page.Tracks {
			result.Members = append(result.Members, convertTrack(&page.Tracks[i]))
		}
		offset += len(page.Tracks)
	}

	if len(result.Members) > c.maxItems {
		result.Members = result.Members[:c.maxItems]
	}

	zlog.Debug().Msgf("spotify album fetched: id=%s title=%q total=%d members=%d",
		albumID, result.Title, result.Total, len(result.Members))
	return result, nil
}

// convertTrack converts a Spotify track to provider metadata.
func convertTrack(t *spotify.SimpleTrack) source.TrackMetadata {
	meta := source.TrackMetadata{
		Title:       t.Name,
		ExternalURL: t.ExternalURLs["spotify"],
	}
	if len(t.Artists) > 0 {
		meta.Artist = t.Artists[0].Name
	}
	if meta.ExternalURL == "" && t.ID != "" {
		meta.ExternalURL = GetTrackURL(string(t.ID))
	}
	return meta
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// retry runs fn under the rate limiter, retrying transient failures with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	attempts := max(c.maxRetries, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter wait failed")
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			delay := c.retryDelay * time.Duration(i+1)
			zlog.Debug().Msgf("spotify request failed, retrying: attempt=%d delay=%s error=%v", i+1, delay, err)
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry cancelled")
			case <-time.After(delay):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == 429 || apiErr.Status >= 500
	}

	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractID extracts the ID of the given kind from a Spotify URL or URI.
// Inputs that are neither are assumed to be IDs already.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:<kind>:ID
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// Handle URL format: https://open.spotify.com/<kind>/ID or https://open.spotify.com/intl-XX/<kind>/ID
	segment := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, segment) {
		parts := strings.Split(input, segment)
		// Remove query parameters and trailing slashes
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}

func extractTrackID(input string) string {
	return extractID(input, "track")
}

func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

func extractAlbumID(input string) string {
	return extractID(input, "album")
}
