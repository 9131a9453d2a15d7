package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{
			name:     "unknown duration",
			duration: 0,
			expected: "0:00",
		},
		{
			name:     "negative duration",
			duration: -5 * time.Second,
			expected: "0:00",
		},
		{
			name:     "seconds only",
			duration: 7 * time.Second,
			expected: "0:07",
		},
		{
			name:     "minutes and seconds",
			duration: 200 * time.Second,
			expected: "3:20",
		},
		{
			name:     "hours",
			duration: time.Hour + 5*time.Minute + 9*time.Second,
			expected: "1:05:09",
		},
		{
			name:     "fractional seconds are truncated",
			duration: 61*time.Second + 900*time.Millisecond,
			expected: "1:01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.duration))
		})
	}
}

func TestTrack_WithRequester(t *testing.T) {
	original := Track{Title: "Song", PlayableURL: "https://www.youtube.com/watch?v=abc"}
	requester := Requester{ID: "u1", Name: "Alice"}

	attributed := original.WithRequester(requester)

	assert.Equal(t, requester, attributed.Requester)
	assert.Empty(t, original.Requester.ID, "original track must not be modified")
	assert.Equal(t, original.Title, attributed.Title)
}

func TestTrack_IsCrossService(t *testing.T) {
	assert.False(t, Track{Title: "x"}.IsCrossService())
	assert.True(t, Track{Title: "x", OriginalTitle: "y"}.IsCrossService())
}

func TestRequester_String(t *testing.T) {
	assert.Equal(t, "Alice", Requester{ID: "1", Name: "Alice"}.String())
	assert.Equal(t, "1", Requester{ID: "1"}.String())
}
