// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Admin    AdminConfig             `yaml:"admin"`
	Spotify  SpotifyConfig           `yaml:"spotify"`
	YouTube  YouTubeConfig           `yaml:"youtube"`
	Resolver ResolverConfig          `yaml:"resolver"`
	Playlist PlaylistConfig          `yaml:"playlist"`
	Playback PlaybackConfig          `yaml:"playback"`
	Sink     SinkConfig              `yaml:"sink"`
	Cache    CacheConfig             `yaml:"cache"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Messages MessagesConfig          `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr               string `yaml:"addr" default:":8080"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec" default:"10" validate:"gte=1"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// SpotifyConfig represents Spotify API configuration.
// Spotify links are only resolved when a client ID is configured.
type SpotifyConfig struct {
	ClientID          string  `yaml:"client_id"`
	ClientSecret      string  `yaml:"client_secret" validate:"required_with=ClientID"`
	Market            string  `yaml:"market" validate:"omitempty,len=2" default:"US"`
	MaxPlaylistItems  int     `yaml:"max_playlist_items" default:"100" validate:"gte=1,lte=1000"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gt=0"`
	Burst             int     `yaml:"burst" default:"5" validate:"gte=1"`
	MaxRetries        int     `yaml:"max_retries" default:"3" validate:"gte=0,lte=10"`
}

// Enabled reports whether Spotify credentials are configured.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != ""
}

// YouTubeConfig represents the streaming provider configuration.
type YouTubeConfig struct {
	SearchBackend string `yaml:"search_backend" default:"youtube" validate:"oneof=youtube ytmusic"`
	YtdlpPath     string `yaml:"ytdlp_path"` // empty uses yt-dlp from PATH
	AudioFormat   string `yaml:"audio_format" default:"bestaudio/best"`
}

// ResolverConfig represents track resolution configuration.
type ResolverConfig struct {
	SearchLimit       int `yaml:"search_limit" default:"5" validate:"gte=1,lte=50"`
	ProviderTimeoutMs int `yaml:"provider_timeout_ms" default:"15000" validate:"gte=0"`
}

// PlaylistConfig represents playlist expansion configuration.
type PlaylistConfig struct {
	MaxTracks  int `yaml:"max_tracks" default:"50" validate:"gte=1,lte=50"`
	PauseEvery int `yaml:"pause_every" default:"5" validate:"gte=0"`
	PauseMs    int `yaml:"pause_ms" default:"1000" validate:"gte=0,lte=60000"`
}

// PlaybackConfig represents playback engine configuration.
type PlaybackConfig struct {
	EventBuffer int `yaml:"event_buffer" default:"32" validate:"gte=1,lte=4096"`
}

// SinkConfig represents audio sink configuration.
type SinkConfig struct {
	OutputDir string `yaml:"output_dir" default:"./out"`
}

// CacheConfig represents the stream metadata cache configuration.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr" default:"localhost:6379"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"gte=0"`
	TTLSec    int    `yaml:"ttl_sec" default:"21600" validate:"gte=1"`
	KeyPrefix string `yaml:"key_prefix" default:"guildbox:"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages, keyed by result code.
type MessagesConfig struct {
	Success                string `yaml:"success" default:"Added to the queue."`
	DefaultError           string `yaml:"default_error" default:"Something went wrong."`
	InvalidLink            string `yaml:"invalid_link" default:"That link is not valid."`
	NoResults              string `yaml:"no_results" default:"No results found."`
	CrossServiceResolution string `yaml:"cross_service_resolution" default:"Could not find a playable version of that track."`
	UnsupportedSource      string `yaml:"unsupported_source" default:"That source is not supported."`
	PlaylistFetch          string `yaml:"playlist_fetch" default:"Could not load that playlist."`
	NoPlayableTracks       string `yaml:"no_playable_tracks" default:"No playable tracks were found in that playlist."`
	NoActivePlayback       string `yaml:"no_active_playback" default:"Nothing is playing."`
	NotConnected           string `yaml:"not_connected" default:"Not connected."`
	DurationLimitExceeded  string `yaml:"duration_limit_exceeded" default:"That track is too long or too short."`
	QueueFull              string `yaml:"queue_full" default:"The queue is full."`
	RequesterLimit         string `yaml:"requester_limit" default:"You already have enough tracks waiting."`
	DuplicateTrack         string `yaml:"duplicate_track" default:"That track is already in the queue."`
	Blocked                string `yaml:"blocked" default:"You are not allowed to add tracks."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, applying environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "invalid_link":
		return c.Messages.InvalidLink
	case "no_results":
		return c.Messages.NoResults
	case "cross_service_resolution":
		return c.Messages.CrossServiceResolution
	case "unsupported_source":
		return c.Messages.UnsupportedSource
	case "playlist_fetch":
		return c.Messages.PlaylistFetch
	case "no_playable_tracks":
		return c.Messages.NoPlayableTracks
	case "no_active_playback":
		return c.Messages.NoActivePlayback
	case "not_connected":
		return c.Messages.NotConnected
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	case "queue_full":
		return c.Messages.QueueFull
	case "requester_limit":
		return c.Messages.RequesterLimit
	case "duplicate_track":
		return c.Messages.DuplicateTrack
	case "blocked":
		return c.Messages.Blocked
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}

// ProviderTimeout returns the per-call provider timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Resolver.ProviderTimeoutMs) * time.Millisecond
}

// PlaylistPause returns the pause between playlist batches.
func (c *Config) PlaylistPause() time.Duration {
	return time.Duration(c.Playlist.PauseMs) * time.Millisecond
}

// CacheTTL returns the stream metadata cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSec) * time.Second
}
