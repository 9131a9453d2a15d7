// Package youtube provides the YouTube streaming provider, search backends and audio sink.
package youtube

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/guildbox/internal/domain/source"
)

// ProviderName is the label used in track provenance.
const ProviderName = "YouTube"

// metadataTemplate is the yt-dlp print template parsed by parseMetadata.
const metadataTemplate = "%(title)s\t%(duration)s\t%(thumbnail)s\t%(webpage_url)s"

var (
	watchLinkRegex = regexp.MustCompile(`^https?://(?:www\.|m\.|music\.)?youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|live/)[A-Za-z0-9_-]{11}`)
	shortLinkRegex = regexp.MustCompile(`^https?://youtu\.be/[A-Za-z0-9_-]{11}`)
	videoIDRegex   = regexp.MustCompile(`(?:[?&]v=|youtu\.be/|shorts/|live/)([A-Za-z0-9_-]{11})`)
)

// Config represents YouTube provider configuration.
type Config struct {
	YtdlpPath string // Empty uses yt-dlp from PATH
}

// runFunc runs yt-dlp with args and returns its stdout.
type runFunc func(ctx context.Context, args ...string) (string, error)

// Provider is the YouTube streaming provider.
type Provider struct {
	run runFunc
}

// NewProvider creates a new YouTube streaming provider.
func NewProvider(cfg Config) *Provider {
	return &Provider{run: ytdlpRunner(cfg.YtdlpPath)}
}

// ytdlpRunner returns a runFunc that prints metadata without downloading.
func ytdlpRunner(path string) runFunc {
	return func(ctx context.Context, args ...string) (string, error) {
		cmd := newCommand(path).
			Print(metadataTemplate).
			NoPlaylist().
			IgnoreConfig()

		res, err := cmd.Run(ctx, append([]string{"--skip-download"}, args...)...)
		if err != nil {
			if res != nil && res.Stderr != "" {
				return "", errors.Wrapf(err, "yt-dlp failed: stderr=%s", strings.TrimSpace(res.Stderr))
			}
			return "", errors.Wrap(err, "yt-dlp failed")
		}
		return res.Stdout, nil
	}
}

func newCommand(path string) *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings()
	if path != "" {
		cmd.SetExecutable(path)
	}
	return cmd
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

// ValidateLink reports whether url is a single YouTube video link.
func (p *Provider) ValidateLink(url string) bool {
	url = strings.TrimSpace(url)
	return watchLinkRegex.MatchString(url) || shortLinkRegex.MatchString(url)
}

// GetStreamMetadata fetches title, duration and thumbnail of a video.
func (p *Provider) GetStreamMetadata(ctx context.Context, url string) (source.StreamMetadata, error) {
	id := ExtractVideoID(url)
	if id == "" {
		return source.StreamMetadata{}, errors.Newf("no video ID in link: %s", url)
	}

	stdout, err := p.run(ctx, WatchURL(id))
	if err != nil {
		return source.StreamMetadata{}, errors.Wrapf(err, "failed to get metadata for %s", id)
	}

	meta, err := parseMetadata(stdout)
	if err != nil {
		return source.StreamMetadata{}, errors.Wrapf(err, "failed to parse metadata for %s", id)
	}
	if meta.PlayableURL == "" {
		meta.PlayableURL = WatchURL(id)
	}

	zlog.Debug().Msgf("stream metadata fetched: id=%s title=%q duration=%s", id, meta.Title, meta.Duration)
	return meta, nil
}

// parseMetadata parses the first line printed with metadataTemplate.
func parseMetadata(stdout string) (source.StreamMetadata, error) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 || parts[0] == "" {
			continue
		}
		meta := source.StreamMetadata{
			Title:        parts[0],
			Duration:     parseSeconds(parts[1]),
			ThumbnailURL: naToEmpty(parts[2]),
			PlayableURL:  naToEmpty(parts[3]),
		}
		return meta, nil
	}
	return source.StreamMetadata{}, errors.New("unexpected yt-dlp output")
}

// parseSeconds parses a yt-dlp duration such as "212" or "212.5". Live streams print "NA".
func parseSeconds(s string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s) + "s")
	if err != nil || d < 0 {
		return 0
	}
	return d.Round(time.Second)
}

func naToEmpty(s string) string {
	if s == "NA" {
		return ""
	}
	return s
}

// ExtractVideoID extracts the 11-character video ID from a YouTube link.
func ExtractVideoID(url string) string {
	if m := videoIDRegex.FindStringSubmatch(url); len(m) > 1 {
		return m[1]
	}
	return ""
}

// WatchURL returns the canonical watch URL of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
