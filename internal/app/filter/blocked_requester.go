package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/track"
)

// BlockedRequesterConfig represents the configuration for BlockedRequesterFilter.
type BlockedRequesterConfig struct {
	RequesterIDs []string `yaml:"requester_ids" mapstructure:"requester_ids"`
}

// BlockedRequesterFilter rejects every request from blocked requesters.
type BlockedRequesterFilter struct {
	blocked map[string]struct{}
}

func (f *BlockedRequesterFilter) Name() string {
	return "blocked_requester_filter"
}

func (f *BlockedRequesterFilter) Description() string {
	return "Checks if the requester is blocked"
}

func (f *BlockedRequesterFilter) ReturnCodes() []string {
	return []string{"blocked"}
}

func (f *BlockedRequesterFilter) ValidateConfig(settings map[string]any) error {
	var config BlockedRequesterConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.blocked = make(map[string]struct{}, len(config.RequesterIDs))
	for _, id := range config.RequesterIDs {
		f.blocked[id] = struct{}{}
	}
	zlog.Info().Msgf("blocked requester filter config: blocked=%d", len(f.blocked))
	return nil
}

func (f *BlockedRequesterFilter) AppliesTo(kind Kind) bool {
	return true
}

func (f *BlockedRequesterFilter) Check(ctx context.Context, req Request, t track.Track) Result {
	if _, ok := f.blocked[req.Requester.ID]; ok {
		return Reject("blocked")
	}
	return Accept()
}

func init() {
	Register("blocked_requester_filter", func() Filter {
		return &BlockedRequesterFilter{}
	})
}
