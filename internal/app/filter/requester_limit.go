package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/track"
)

// RequesterLimitConfig represents the configuration for RequesterLimitFilter.
type RequesterLimitConfig struct {
	MaxPending int      `yaml:"max_pending" mapstructure:"max_pending" default:"3" validate:"gte=1"`
	Exempt     []string `yaml:"exempt" mapstructure:"exempt"` // Requester IDs without a limit
}

// RequesterLimitFilter limits how many tracks one requester may have waiting in a guild.
type RequesterLimitFilter struct {
	config RequesterLimitConfig
}

func (f *RequesterLimitFilter) Name() string {
	return "requester_limit_filter"
}

func (f *RequesterLimitFilter) Description() string {
	return "Checks if the requester already has too many tracks waiting to be played"
}

func (f *RequesterLimitFilter) ReturnCodes() []string {
	return []string{"requester_limit"}
}

func (f *RequesterLimitFilter) ValidateConfig(settings map[string]any) error {
	var config RequesterLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.config = config
	zlog.Info().Msgf("requester limit filter config: %+v", config)
	return nil
}

func (f *RequesterLimitFilter) AppliesTo(kind Kind) bool {
	// Playlists are admitted as a whole
	return kind == KindSingle
}

func (f *RequesterLimitFilter) Check(ctx context.Context, req Request, t track.Track) Result {
	if f.config.MaxPending <= 0 {
		return Accept()
	}
	for _, id := range f.config.Exempt {
		if id == req.Requester.ID {
			return Accept()
		}
	}

	pending := 0
	// Index 0 is playing, not pending.
	for i, queued := range req.Queue {
		if i > 0 && queued.Requester.ID == req.Requester.ID {
			pending++
		}
	}
	if pending >= f.config.MaxPending {
		return Reject("requester_limit")
	}
	return Accept()
}

func init() {
	Register("requester_limit_filter", func() Filter {
		return &RequesterLimitFilter{}
	})
}
