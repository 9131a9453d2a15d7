// Package registry provides the per-guild playback engine registry.
package registry

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/app/playback"
)

var ErrGuildNotFound = errors.New("guild not found")

// Factory builds the engine of a guild.
type Factory func(guildID string) *playback.Engine

// Registry maps guild IDs to their playback engines with thread-safe access.
// Engines are created on first use and closed on Remove.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*playback.Engine
	factory Factory
}

// New creates a new registry whose engines are built by factory.
func New(factory Factory) *Registry {
	return &Registry{
		engines: make(map[string]*playback.Engine),
		factory: factory,
	}
}

// GetOrCreate returns the guild's engine, creating it on first use.
func (r *Registry) GetOrCreate(guildID string) *playback.Engine {
	r.mu.RLock()
	e, ok := r.engines[guildID]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.engines[guildID]; ok {
		return e
	}
	e = r.factory(guildID)
	r.engines[guildID] = e
	zlog.Debug().Msgf("engine registered: guild=%s engine=%s", guildID, e.ID())
	return e
}

// Get returns the guild's engine without creating one.
func (r *Registry) Get(guildID string) (*playback.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[guildID]
	return e, ok
}

// Remove discards the guild's engine and closes it.
// A later GetOrCreate builds a fresh engine.
func (r *Registry) Remove(guildID string) error {
	r.mu.Lock()
	e, ok := r.engines[guildID]
	if ok {
		delete(r.engines, guildID)
	}
	r.mu.Unlock()

	if !ok {
		return ErrGuildNotFound
	}

	// Closing waits for the engine's stream, so it runs outside the lock.
	if err := e.Close(); err != nil {
		return errors.Wrapf(err, "failed to close engine of guild %s", guildID)
	}
	zlog.Debug().Msgf("engine removed: guild=%s engine=%s", guildID, e.ID())
	return nil
}

// Count returns the number of live engines.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// GuildIDs returns the guilds with a live engine in sorted order.
func (r *Registry) GuildIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAll removes and closes every engine.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[string]*playback.Engine)
	r.mu.Unlock()

	var err error
	for guildID, e := range engines {
		if closeErr := e.Close(); closeErr != nil {
			err = errors.CombineErrors(err, errors.Wrapf(closeErr, "failed to close engine of guild %s", guildID))
		}
	}
	return err
}
