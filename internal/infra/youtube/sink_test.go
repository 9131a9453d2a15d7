package youtube

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellSink returns a sink whose stream process runs script with the URL as $1.
func shellSink(t *testing.T, script string) *Sink {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	s := NewSink("guild/1", SinkConfig{OutputDir: dir})
	s.command = func(ctx context.Context, url string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script, "sh", url)
	}
	return s
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish")
		return nil
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "guild_1.audio"), OutputPath("out", "guild/1"))
	assert.Equal(t, filepath.Join("out", "123456789.audio"), OutputPath("out", "123456789"))
}

func TestSink_StreamCompletes(t *testing.T) {
	s := shellSink(t, `printf "audio:%s;" "$1"`)

	done, err := s.Start(context.Background(), "one")
	require.NoError(t, err)
	require.NoError(t, waitDone(t, done))

	done, err = s.Start(context.Background(), "two")
	require.NoError(t, err)
	require.NoError(t, waitDone(t, done))

	require.NoError(t, s.Close())

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.Equal(t, "audio:one;audio:two;", string(data))
}

func TestSink_StreamFails(t *testing.T) {
	s := shellSink(t, `echo "ERROR: Video unavailable" >&2; exit 1`)
	defer s.Close()

	done, err := s.Start(context.Background(), "broken")
	require.NoError(t, err)

	err = waitDone(t, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Video unavailable")
}

func TestSink_CancelStopsStream(t *testing.T) {
	s := shellSink(t, `exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := s.Start(ctx, "long")
	require.NoError(t, err)

	cancel()
	err = waitDone(t, done)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, s.Close())
}

func TestSink_StartAfterClose(t *testing.T) {
	s := shellSink(t, `true`)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err := s.Start(context.Background(), "late")
	require.Error(t, err)
}
