package playback

import "context"

// Sink is the audio transport of a single guild.
type Sink interface {
	// Start begins streaming playableURL and returns without waiting for playback.
	// The returned channel yields exactly one value: nil on completion, the failure otherwise.
	// Cancelling ctx force-stops the stream.
	Start(ctx context.Context, playableURL string) (<-chan error, error)

	// Close tears the transport down.
	Close() error
}
