package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/track"
)

// QueueLimitConfig represents the configuration for QueueLimitFilter.
type QueueLimitConfig struct {
	MaxTracks int `yaml:"max_tracks" mapstructure:"max_tracks" default:"200" validate:"gte=1"`
}

// QueueLimitFilter caps the number of tracks queued in a guild.
type QueueLimitFilter struct {
	config QueueLimitConfig
}

// NewQueueLimitFilter creates a new queue limit filter with the given cap.
func NewQueueLimitFilter(maxTracks int) *QueueLimitFilter {
	return &QueueLimitFilter{config: QueueLimitConfig{MaxTracks: maxTracks}}
}

func (f *QueueLimitFilter) Name() string {
	return "queue_limit_filter"
}

func (f *QueueLimitFilter) Description() string {
	return "Rejects tracks once the guild queue is full"
}

func (f *QueueLimitFilter) ReturnCodes() []string {
	return []string{"queue_full"}
}

func (f *QueueLimitFilter) ValidateConfig(settings map[string]any) error {
	var config QueueLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.config = config
	zlog.Info().Msgf("queue limit filter config: %+v", config)
	return nil
}

func (f *QueueLimitFilter) AppliesTo(kind Kind) bool {
	return true
}

func (f *QueueLimitFilter) Check(ctx context.Context, req Request, t track.Track) Result {
	if f.config.MaxTracks > 0 && len(req.Queue) >= f.config.MaxTracks {
		return Reject("queue_full")
	}
	return Accept()
}

func init() {
	Register("queue_limit_filter", func() Filter {
		return &QueueLimitFilter{}
	})
}
