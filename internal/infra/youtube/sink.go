package youtube

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/guildbox/internal/infra/logger"
)

var unsafeNameRegex = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// waitDelay bounds how long Wait blocks on output pipes after the process is killed.
const waitDelay = 2 * time.Second

// SinkConfig represents audio sink configuration.
type SinkConfig struct {
	OutputDir   string
	YtdlpPath   string
	AudioFormat string
}

// commandFunc builds the process that writes the audio of url to its stdout.
type commandFunc func(ctx context.Context, url string) *exec.Cmd

// Sink streams the audio of one guild with yt-dlp, appending it to the guild's output file.
type Sink struct {
	guildID string
	path    string
	command commandFunc

	mu     sync.Mutex
	file   *os.File
	closed bool
	wg     sync.WaitGroup
}

// NewSink creates the sink of guildID. The output file is opened on the first Start.
func NewSink(guildID string, cfg SinkConfig) *Sink {
	format := cfg.AudioFormat
	if format == "" {
		format = "bestaudio/best"
	}
	return &Sink{
		guildID: guildID,
		path:    OutputPath(cfg.OutputDir, guildID),
		command: ytdlpCommand(cfg.YtdlpPath, format),
	}
}

func ytdlpCommand(path, format string) commandFunc {
	return func(ctx context.Context, url string) *exec.Cmd {
		return newCommand(path).
			Format(format).
			Output("-").
			NoSimulate().
			NoPart().
			NoPlaylist().
			IgnoreConfig().
			BuildCommand(ctx, url)
	}
}

// OutputPath returns the output file of a guild.
func OutputPath(dir, guildID string) string {
	return filepath.Join(dir, unsafeNameRegex.ReplaceAllString(guildID, "_")+".audio")
}

// Start begins streaming url. The returned channel yields the outcome once the process exits.
func (s *Sink) Start(ctx context.Context, url string) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("sink is closed")
	}
	if s.file == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create output directory")
		}
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open output file")
		}
		s.file = f
	}

	cmd := s.command(ctx, url)
	var stderr bytes.Buffer
	cmd.Stdout = s.file
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start stream: url=%s", url)
	}

	log := logger.ForGuild(s.guildID)
	log.Debug().Msgf("stream started: url=%s pid=%d", url, cmd.Process.Pid)

	done := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := cmd.Wait()
		switch {
		case ctx.Err() != nil:
			err = errors.Wrap(ctx.Err(), "stream stopped")
		case err != nil:
			err = errors.Wrapf(err, "stream failed: stderr=%s", strings.TrimSpace(stderr.String()))
		}
		log.Debug().Msgf("stream finished: url=%s error=%v", url, err)
		done <- err
	}()
	return done, nil
}

// Close waits for running streams to exit and closes the output file.
// Streams are stopped by cancelling the context passed to Start.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return errors.Wrap(err, "failed to close output file")
	}
	return nil
}
