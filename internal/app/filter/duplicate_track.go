package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/guildbox/internal/domain/track"
)

// DuplicateTrackFilter rejects tracks already in the guild queue.
// Detects:
// - The same playable URL
// - Remasters and alternate versions (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Rejects tracks already in the queue, including remasters; covers are allowed"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// AppliesTo returns which request kinds this filter applies to.
func (f *DuplicateTrackFilter) AppliesTo(kind Kind) bool {
	return kind == KindSingle
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

// Check checks if the track is a duplicate.
func (f *DuplicateTrackFilter) Check(ctx context.Context, req Request, requested track.Track) Result {
	for _, queued := range req.Queue {
		if queued.PlayableURL != "" && queued.PlayableURL == requested.PlayableURL {
			return Reject("duplicate_track")
		}
		if isSameSong(queued, requested) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

// isSameSong reports whether two tracks are versions of the same song.
// Cross-service tracks compare their original title and artist; others compare video titles.
func isSameSong(a, b track.Track) bool {
	if a.IsCrossService() && b.IsCrossService() {
		if !strings.EqualFold(strings.TrimSpace(a.OriginalArtist), strings.TrimSpace(b.OriginalArtist)) {
			return false
		}
		return normalizeTrackName(a.OriginalTitle) == normalizeTrackName(b.OriginalTitle)
	}

	name := normalizeTrackName(a.Title)
	return name != "" && name == normalizeTrackName(b.Title)
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}

	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(official\s+(music\s+)?(video|audio)\)`), // "(Official Video)"
		regexp.MustCompile(`\s*\[official\s+(music\s+)?(video|audio)\]`), // "[Official Audio]"
		regexp.MustCompile(`\s*\((lyrics?|lyric\s+video)\)`),             // "(Lyrics)"
		regexp.MustCompile(`\s*\(.*?version\)`),                          // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),                             // "(Radio Edit)"
		regexp.MustCompile(`\s*-?\s*live$`),                              // "- Live"
		regexp.MustCompile(`\s*\(live\)`),                                // "(Live)"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),                       // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`),                   // "- Single Version"
	}

	whitespace = regexp.MustCompile(`\s+`)
)

// normalizeTrackName removes remaster information and version details.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = whitespace.ReplaceAllString(normalized, " ")

	// Remove trailing dashes
	normalized = strings.TrimRight(normalized, " -")

	return normalized
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
