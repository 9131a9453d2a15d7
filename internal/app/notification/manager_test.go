package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/guildbox/internal/app/playback"
	"github.com/osa030/guildbox/internal/domain/track"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*Notification
	block chan struct{}
}

func (s *recordingStream) Send(n *Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return nil
}

func (s *recordingStream) received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

func TestManager_BroadcastFiltersByGuild(t *testing.T) {
	m := NewManager()
	g1 := &recordingStream{}
	g2 := &recordingStream{}
	all := &recordingStream{}
	m.Subscribe("g1", g1)
	m.Subscribe("g2", g2)
	m.Subscribe("", all)

	m.Broadcast(&Notification{GuildID: "g1", Type: "track_started"})
	m.Broadcast(&Notification{GuildID: "g2", Type: "queue_empty"})

	require.Len(t, g1.received(), 1)
	assert.Equal(t, "track_started", g1.received()[0].Type)
	require.Len(t, g2.received(), 1)
	assert.Equal(t, "queue_empty", g2.received()[0].Type)
	assert.Len(t, all.received(), 2)
}

func TestManager_SequenceNumbers(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	m.Subscribe("", s)

	for i := 0; i < 3; i++ {
		m.Broadcast(&Notification{GuildID: "g1"})
	}

	got := s.received()
	require.Len(t, got, 3)
	for i, n := range got {
		assert.Equal(t, uint64(i+1), n.SequenceNo)
	}
}

func TestManager_SlowSubscriberTimesOut(t *testing.T) {
	m := NewManager()
	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	m.Subscribe("g1", slow)

	start := time.Now()
	m.Broadcast(&Notification{GuildID: "g1"})
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe("g1", s)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	m.Broadcast(&Notification{GuildID: "g1"})

	assert.Equal(t, 0, m.SubscriberCount())
	assert.Empty(t, s.received())

	m.Subscribe("g1", s)
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestFromEvent(t *testing.T) {
	tr := track.Track{Title: "Song"}
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	n := FromEvent(playback.Event{
		Type:    playback.EventTrackFailed,
		GuildID: "g1",
		Track:   &tr,
		State:   playback.StateIdle,
		Err:     errors.New("boom"),
		At:      at,
	})

	assert.Equal(t, "g1", n.GuildID)
	assert.Equal(t, "track_failed", n.Type)
	assert.Equal(t, "idle", n.State)
	assert.Equal(t, "Song", n.Track.Title)
	assert.Equal(t, "boom", n.Error)
	assert.Equal(t, at, n.Timestamp)
}
