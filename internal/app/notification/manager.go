// Package notification provides the notification manager for broadcasting playback events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/app/playback"
	"github.com/osa030/guildbox/internal/domain/track"
)

// sendTimeout bounds a single delivery to a subscriber.
const sendTimeout = 500 * time.Millisecond

// Notification is a playback event as delivered to subscribers.
type Notification struct {
	SequenceNo uint64
	GuildID    string
	Type       string       // playback.EventType string form
	State      string       // Engine state after the event
	Track      *track.Track // nil for queue_empty and stopped
	Error      string       // Failure reason for track_failed
	Cleared    int          // Tracks removed by stop
	Timestamp  time.Time
}

// FromEvent converts a playback event into a notification.
func FromEvent(ev playback.Event) *Notification {
	n := &Notification{
		GuildID:   ev.GuildID,
		Type:      ev.Type.String(),
		State:     ev.State.String(),
		Track:     ev.Track,
		Cleared:   ev.Cleared,
		Timestamp: ev.At,
	}
	if ev.Err != nil {
		n.Error = ev.Err.Error()
	}
	return n
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id      string
	guildID string // empty receives every guild
	stream  Stream
}

func (s *subscription) wants(guildID string) bool {
	return s.guildID == "" || s.guildID == guildID
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription for guildID (empty for all guilds) and returns the subscription ID.
func (m *Manager) Subscribe(guildID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:      id,
		guildID: guildID,
		stream:  stream,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// nextSequenceNo returns the next sequence number.
func (m *Manager) nextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Broadcast stamps n with a sequence number and sends it to every subscriber of its guild.
// Sends run in parallel, each bounded by a timeout, so a slow subscriber cannot stall playback.
func (m *Manager) Broadcast(n *Notification) {
	n.SequenceNo = m.nextSequenceNo()

	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.wants(n.GuildID) {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification send failed: subscription=%s error=%v", s.id, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification send timed out: subscription=%s", s.id)
			}
		}(sub)
	}
	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
