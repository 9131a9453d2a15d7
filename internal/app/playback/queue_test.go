package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := NewQueue()

	_, ok := q.PeekFront()
	assert.False(t, ok)
	_, ok = q.Advance()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())

	q.Append(testTrack("a"))
	q.Append(testTrack("b"))
	q.Append(testTrack("c"))
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 9*time.Minute, q.TotalDuration())

	front, ok := q.PeekFront()
	require.True(t, ok)
	assert.Equal(t, "a", front.Title)
	assert.Equal(t, 3, q.Len(), "peek must not remove")

	advanced, ok := q.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", advanced.Title)

	front, _ = q.PeekFront()
	assert.Equal(t, "b", front.Title)

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Clear())
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := NewQueue()
	q.Append(testTrack("a"))

	snap := q.Snapshot()
	snap[0].Title = "changed"
	q.Append(testTrack("b"))

	front, _ := q.PeekFront()
	assert.Equal(t, "a", front.Title)
	assert.Len(t, snap, 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventTrackStarted, "track_started"},
		{EventTrackEnded, "track_ended"},
		{EventTrackSkipped, "track_skipped"},
		{EventTrackFailed, "track_failed"},
		{EventQueueEmpty, "queue_empty"},
		{EventStopped, "stopped"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}
