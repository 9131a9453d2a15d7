package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/osa030/guildbox/internal/domain/track"
	"github.com/osa030/guildbox/internal/infra/logger"
)

// Config holds engine configuration.
type Config struct {
	EventBuffer int // Capacity of the outbound event channel
}

// Snapshot is a point-in-time view of an engine for display.
type Snapshot struct {
	EngineID  string
	GuildID   string
	State     State
	Tracks    []track.Track // Index 0 is the current track while playing
	StartedAt time.Time     // Start of the current track (zero when idle)
}

// NowPlaying returns the current track.
func (s Snapshot) NowPlaying() (track.Track, bool) {
	if s.State != StatePlaying || len(s.Tracks) == 0 {
		return track.Track{}, false
	}
	return s.Tracks[0], true
}

// sinkResult is a sink outcome tagged with the stream generation it belongs to.
type sinkResult struct {
	gen uint64
	err error
}

// Engine drives playback of one guild's queue.
// All state transitions happen under mu; sink outcomes are handled by the engine's loop goroutine.
type Engine struct {
	mu sync.Mutex

	id      string
	guildID string
	sink    Sink
	queue   *Queue
	state   State
	closed  bool

	// Current stream
	gen          uint64
	streamCancel context.CancelFunc
	startedAt    time.Time

	finished chan sinkResult
	eventCh  chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log zerolog.Logger
	now func() time.Time
}

// NewEngine creates a new engine for guildID and starts its loop.
func NewEngine(guildID string, sink Sink, config Config) *Engine {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 32
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		id:       uuid.New().String(),
		guildID:  guildID,
		sink:     sink,
		queue:    NewQueue(),
		state:    StateIdle,
		finished: make(chan sinkResult),
		eventCh:  make(chan Event, config.EventBuffer),
		ctx:      ctx,
		cancel:   cancel,
		log:      logger.ForGuild(guildID),
		now:      time.Now,
	}

	e.wg.Add(1)
	go e.loop()

	e.log.Debug().Msgf("playback engine created: engine=%s", e.id)
	return e
}

// ID returns the engine instance ID. A guild gets a new ID every time its engine is recreated.
func (e *Engine) ID() string {
	return e.id
}

// GuildID returns the guild the engine plays for.
func (e *Engine) GuildID() string {
	return e.guildID
}

// Events returns the event channel. It is closed by Close.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Len returns the number of queued tracks, including the current one.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Len()
}

// Snapshot returns the current state and queue.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		EngineID: e.id,
		GuildID:  e.guildID,
		State:    e.state,
		Tracks:   e.queue.Snapshot(),
	}
	if e.state == StatePlaying {
		s.StartedAt = e.startedAt
	}
	return s
}

// Enqueue appends t and starts playback when idle.
// It returns the queue position of t; 0 means it started playing.
// Playback failures are not returned; they are logged and reported as events.
func (e *Engine) Enqueue(t track.Track) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrEngineClosed
	}

	t = t.WithAddedAt(e.now())
	e.queue.Append(t)
	position := e.queue.Len() - 1
	e.log.Info().Msgf("track enqueued: title=%q requester=%s position=%d", t.Title, t.Requester, position)

	if e.state == StateIdle {
		e.startFrontLocked()
	}
	return position, nil
}

// EnqueueAll appends ts in order and starts playback when idle.
// It returns the queue position of the first track.
func (e *Engine) EnqueueAll(ts []track.Track) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrEngineClosed
	}

	position := e.queue.Len()
	if len(ts) == 0 {
		return position, nil
	}

	now := e.now()
	for _, t := range ts {
		e.queue.Append(t.WithAddedAt(now))
	}
	e.log.Info().Msgf("tracks enqueued: count=%d position=%d", len(ts), position)

	if e.state == StateIdle {
		e.startFrontLocked()
	}
	return position, nil
}

// Skip stops the current track and starts the next one.
// It returns the skipped track, or ErrNoActivePlayback when idle.
func (e *Engine) Skip() (track.Track, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return track.Track{}, ErrNoActivePlayback
	}

	e.cancelStreamLocked()
	skipped, _ := e.queue.Advance()
	e.log.Info().Msgf("track skipped: title=%q", skipped.Title)
	e.sendEventLocked(Event{Type: EventTrackSkipped, Track: &skipped})

	e.startFrontLocked()
	return skipped, nil
}

// Stop clears the queue and stops playback.
// It returns the number of tracks removed, or ErrNoActivePlayback when idle.
func (e *Engine) Stop() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return 0, ErrNoActivePlayback
	}

	e.cancelStreamLocked()
	cleared := e.queue.Clear()
	e.state = StateIdle
	e.log.Info().Msgf("playback stopped: cleared=%d", cleared)
	e.sendEventLocked(Event{Type: EventStopped, Cleared: cleared})
	return cleared, nil
}

// Close stops playback, discards the queue, closes the sink and the event channel.
// It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.cancelStreamLocked()
	discarded := e.queue.Clear()
	e.state = StateIdle
	e.closed = true
	e.cancel()
	close(e.eventCh)
	e.mu.Unlock()

	e.wg.Wait()

	e.log.Info().Msgf("playback engine closed: engine=%s discarded=%d", e.id, discarded)
	if err := e.sink.Close(); err != nil {
		return errors.Wrap(err, "failed to close sink")
	}
	return nil
}

// loop handles sink outcomes until the engine is closed.
func (e *Engine) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case r := <-e.finished:
			e.handleResult(r)
		}
	}
}

func (e *Engine) handleResult(r sinkResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Msgf("panic in playback loop: %v", rec)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Results of skipped or stopped streams are stale.
	if e.closed || r.gen != e.gen || e.state != StatePlaying {
		return
	}

	e.releaseStreamLocked()
	current, _ := e.queue.Advance()
	if r.err != nil {
		e.failLocked(current, r.err)
	} else {
		e.log.Info().Msgf("track ended: title=%q", current.Title)
		e.sendEventLocked(Event{Type: EventTrackEnded, Track: &current})
	}

	e.startFrontLocked()
}

// startFrontLocked starts the front track. Tracks whose stream cannot be started are
// dropped until one starts or the queue is empty.
func (e *Engine) startFrontLocked() {
	for {
		front, ok := e.queue.PeekFront()
		if !ok {
			e.state = StateIdle
			e.log.Info().Msg("queue empty, playback idle")
			e.sendEventLocked(Event{Type: EventQueueEmpty})
			return
		}

		e.gen++
		gen := e.gen
		streamCtx, cancel := context.WithCancel(e.ctx)
		done, err := e.sink.Start(streamCtx, front.PlayableURL)
		if err != nil {
			cancel()
			e.queue.Advance()
			e.failLocked(front, err)
			continue
		}

		e.state = StatePlaying
		e.streamCancel = cancel
		e.startedAt = e.now()
		e.wg.Add(1)
		go e.watch(gen, done)

		e.log.Info().Msgf("track started: title=%q duration=%s source=%q requester=%s",
			front.Title, front.DisplayDuration(), front.Source, front.Requester)
		e.sendEventLocked(Event{Type: EventTrackStarted, Track: &front})
		return
	}
}

// watch forwards the outcome of one stream to the loop.
func (e *Engine) watch(gen uint64, done <-chan error) {
	defer e.wg.Done()

	var err error
	select {
	case err = <-done:
	case <-e.ctx.Done():
		return
	}

	select {
	case e.finished <- sinkResult{gen: gen, err: err}:
	case <-e.ctx.Done():
	}
}

func (e *Engine) failLocked(t track.Track, err error) {
	sinkErr := &SinkError{Track: t, Err: err}
	e.log.Warn().Msgf("track failed: title=%q url=%s error=%v", t.Title, t.PlayableURL, err)
	e.sendEventLocked(Event{Type: EventTrackFailed, Track: &t, Err: sinkErr})
}

// cancelStreamLocked force-stops the current stream and invalidates its pending result.
func (e *Engine) cancelStreamLocked() {
	e.gen++
	e.releaseStreamLocked()
}

func (e *Engine) releaseStreamLocked() {
	if e.streamCancel != nil {
		e.streamCancel()
		e.streamCancel = nil
	}
	e.startedAt = time.Time{}
}

// sendEventLocked sends an event without blocking.
// Must be called with mu held.
func (e *Engine) sendEventLocked(ev Event) {
	if e.closed {
		return
	}
	ev.GuildID = e.guildID
	ev.State = e.state
	ev.At = e.now()

	select {
	case e.eventCh <- ev:
	default:
		e.log.Debug().Msgf("event dropped: type=%s", ev.Type)
	}
}
