package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/guildbox/internal/domain/track"
)

func crossService(title, artist string) track.Track {
	return track.Track{
		Title:          artist + " - " + title,
		PlayableURL:    "https://www.youtube.com/watch?v=" + artist + "/" + title,
		OriginalTitle:  title,
		OriginalArtist: artist,
	}
}

func TestDuplicateTrackFilter_SamePlayableURL(t *testing.T) {
	queued := track.Track{Title: "Bohemian Rhapsody", PlayableURL: "https://www.youtube.com/watch?v=fJ9rUzIMcZQ"}
	requested := track.Track{Title: "Queen – Bohemian Rhapsody", PlayableURL: "https://www.youtube.com/watch?v=fJ9rUzIMcZQ"}

	result := NewDuplicateTrackFilter().Check(
		context.Background(),
		Request{Queue: []track.Track{queued}},
		requested,
	)

	assert.False(t, result.Accepted)
	assert.Equal(t, "duplicate_track", result.Code)
}

func TestDuplicateTrackFilter_RemasterDetection(t *testing.T) {
	tests := []struct {
		name           string
		queuedTrack    track.Track
		requestedTrack track.Track
		shouldReject   bool
		description    string
	}{
		{
			name:           "Standard remaster pattern",
			queuedTrack:    crossService("Bohemian Rhapsody", "Queen"),
			requestedTrack: crossService("Bohemian Rhapsody - 2011 Remaster", "Queen"),
			shouldReject:   true,
			description:    "Should detect '- 2011 Remaster' as duplicate",
		},
		{
			name:           "Remastered in parentheses",
			queuedTrack:    crossService("Yesterday", "The Beatles"),
			requestedTrack: crossService("Yesterday (Remastered 2023)", "The Beatles"),
			shouldReject:   true,
			description:    "Should detect '(Remastered 2023)' as duplicate",
		},
		{
			name:           "Cover song - different artist",
			queuedTrack:    crossService("Yesterday", "The Beatles"),
			requestedTrack: crossService("Yesterday", "Paul McCartney"),
			shouldReject:   false,
			description:    "Should allow cover by different artist",
		},
		{
			name:           "Different songs - similar names",
			queuedTrack:    crossService("Love", "John Lennon"),
			requestedTrack: crossService("Love Song", "John Lennon"),
			shouldReject:   false,
			description:    "Should allow different songs",
		},
		{
			name:           "Radio Edit version",
			queuedTrack:    crossService("Stairway to Heaven", "Led Zeppelin"),
			requestedTrack: crossService("Stairway to Heaven (Radio Edit)", "Led Zeppelin"),
			shouldReject:   true,
			description:    "Should detect radio edit as duplicate",
		},
		{
			name:           "Live version",
			queuedTrack:    crossService("Hotel California", "Eagles"),
			requestedTrack: crossService("Hotel California - Live", "Eagles"),
			shouldReject:   true,
			description:    "Should detect live version as duplicate",
		},
		{
			name:           "Remix version - should be allowed",
			queuedTrack:    crossService("Le Freak", "CHIC"),
			requestedTrack: crossService("Le Freak (Oliver Heldens Remix)", "CHIC"),
			shouldReject:   false,
			description:    "Should allow remix version",
		},
		{
			name:           "Video titles with official video suffix",
			queuedTrack:    track.Track{Title: "Rick Astley - Never Gonna Give You Up", PlayableURL: "https://youtu.be/a"},
			requestedTrack: track.Track{Title: "Rick Astley - Never Gonna Give You Up (Official Video)", PlayableURL: "https://youtu.be/b"},
			shouldReject:   true,
			description:    "Should detect re-uploads of the same video title",
		},
		{
			name:           "Untitled tracks are not duplicates",
			queuedTrack:    track.Track{PlayableURL: "https://youtu.be/a"},
			requestedTrack: track.Track{PlayableURL: "https://youtu.be/b"},
			shouldReject:   false,
			description:    "Should not compare empty titles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewDuplicateTrackFilter().Check(
				context.Background(),
				Request{Queue: []track.Track{tt.queuedTrack}},
				tt.requestedTrack,
			)

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duplicate_track", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDuplicateTrackFilter_EmptyQueue(t *testing.T) {
	result := NewDuplicateTrackFilter().Check(
		context.Background(),
		Request{},
		crossService("Any Song", "Any Artist"),
	)

	assert.True(t, result.Accepted, "Should accept any track when queue is empty")
}

func TestDuplicateTrackFilter_AppliesTo(t *testing.T) {
	filter := NewDuplicateTrackFilter()

	assert.True(t, filter.AppliesTo(KindSingle), "Should apply to single requests")
	assert.False(t, filter.AppliesTo(KindPlaylist), "Should not apply to playlist members")
}

func TestNormalizeTrackName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Bohemian Rhapsody", "bohemian rhapsody"},
		{"Bohemian Rhapsody - 2011 Remaster", "bohemian rhapsody"},
		{"Yesterday (Remastered 2023)", "yesterday"},
		{"Hotel California [Remastered]", "hotel california"},
		{"Stairway to Heaven (Radio Edit)", "stairway to heaven"},
		{"Imagine - Live", "imagine"},
		{"Live Forever", "live forever"},
		{"Let It Be (Single Version)", "let it be"},
		{"Hey Jude - Remastered Version", "hey jude"},
		{"Come Together (2019 Mix)", "come together (2019 mix)"},
		{"Song (Official Music Video)", "song"},
		{"   Extra   Spaces   ", "extra spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTrackName(tt.input))
		})
	}
}
