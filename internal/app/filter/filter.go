// Package filter provides the admission filter chain run on resolved tracks before they are queued.
package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/osa030/guildbox/internal/domain/track"
)

// Kind is the kind of request a track arrives with.
type Kind int

const (
	KindSingle   Kind = iota // Track requested on its own
	KindPlaylist             // Track is a member of an expanded playlist
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Request describes the context a track is admitted in.
type Request struct {
	GuildID   string
	Requester track.Requester
	Kind      Kind
	Queue     []track.Track // Guild queue, including tracks accepted earlier in the same request
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duration_limit_exceeded", "queue_full"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for admission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to the given request kind.
	AppliesTo(kind Kind) bool
	// Check performs the filter check.
	Check(ctx context.Context, req Request, t track.Track) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}

// Names returns the registered filter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the named filter and applies settings to it.
func Build(name string, settings map[string]any) (Filter, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Newf("unknown filter: %s", name)
	}
	f := factory()
	if settings == nil {
		settings = map[string]any{}
	}
	if err := f.ValidateConfig(settings); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for %s", name)
	}
	return f, nil
}
