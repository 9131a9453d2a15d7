package connect

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/guildbox/internal/app/guild"
	"github.com/osa030/guildbox/internal/app/notification"
	"github.com/osa030/guildbox/internal/infra/config"
)

// GuildService implements the GuildService RPC.
type GuildService struct {
	guilds GuildManager
	config *config.Config

	done     chan struct{}
	doneOnce sync.Once
}

// NewGuildService creates a new GuildService.
func NewGuildService(guilds GuildManager, cfg *config.Config) *GuildService {
	return &GuildService{
		guilds: guilds,
		config: cfg,
		done:   make(chan struct{}),
	}
}

// Handler returns the service path and its HTTP handler.
func (s *GuildService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(EnqueueProcedure, connect.NewUnaryHandler(EnqueueProcedure, s.Enqueue, opts...))
	mux.Handle(EnqueuePlaylistProcedure, connect.NewUnaryHandler(EnqueuePlaylistProcedure, s.EnqueuePlaylist, opts...))
	mux.Handle(SkipProcedure, connect.NewUnaryHandler(SkipProcedure, s.Skip, opts...))
	mux.Handle(StopProcedure, connect.NewUnaryHandler(StopProcedure, s.Stop, opts...))
	mux.Handle(PeekQueueProcedure, connect.NewUnaryHandler(PeekQueueProcedure, s.PeekQueue, opts...))
	mux.Handle(SubscribeNotificationsProcedure,
		connect.NewServerStreamHandler(SubscribeNotificationsProcedure, s.SubscribeNotifications, opts...))
	return "/" + GuildServiceName + "/", mux
}

// Shutdown ends all notification streams.
func (s *GuildService) Shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Enqueue handles single track requests.
func (s *GuildService) Enqueue(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	guildID, err := requireGuildID(req.Msg)
	if err != nil {
		return nil, err
	}
	query := stringField(req.Msg, "query")
	if query == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingField("query"))
	}

	t, err := s.guilds.Enqueue(ctx, guildID, query, requesterFrom(req.Msg))
	if err != nil {
		return s.failure(guildID, "enqueue", err)
	}

	return s.success(map[string]any{"track": trackFields(t)})
}

// EnqueuePlaylist handles playlist requests.
func (s *GuildService) EnqueuePlaylist(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	guildID, err := requireGuildID(req.Msg)
	if err != nil {
		return nil, err
	}
	query := stringField(req.Msg, "query")
	if query == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingField("query"))
	}

	result, err := s.guilds.EnqueuePlaylist(ctx, guildID, query, requesterFrom(req.Msg))
	if err != nil {
		return s.failure(guildID, "enqueue playlist", err)
	}

	return s.success(map[string]any{
		"title":          result.Title,
		"declared_total": result.DeclaredTotal,
		"resolved":       result.ResolvedCount(),
		"failed":         result.Failed,
		"rejected":       result.Rejected,
	})
}

// Skip handles skip requests.
func (s *GuildService) Skip(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	guildID, err := requireGuildID(req.Msg)
	if err != nil {
		return nil, err
	}

	skipped, err := s.guilds.Skip(guildID)
	if err != nil {
		return s.failure(guildID, "skip", err)
	}
	return s.success(map[string]any{"track": trackFields(skipped)})
}

// Stop handles stop requests.
func (s *GuildService) Stop(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	guildID, err := requireGuildID(req.Msg)
	if err != nil {
		return nil, err
	}

	cleared, err := s.guilds.Stop(guildID)
	if err != nil {
		return s.failure(guildID, "stop", err)
	}
	return s.success(map[string]any{"cleared": cleared})
}

// PeekQueue returns the guild's playback state and queue.
func (s *GuildService) PeekQueue(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	guildID, err := requireGuildID(req.Msg)
	if err != nil {
		return nil, err
	}
	return structResponse(snapshotFields(s.guilds.PeekQueue(guildID)))
}

// SubscribeNotifications streams playback notifications. An empty guild_id subscribes to every guild.
func (s *GuildService) SubscribeNotifications(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
	stream *connect.ServerStream[structpb.Struct],
) error {
	guildID := stringField(req.Msg, "guild_id")

	// Initial state first, then live notifications
	initial := map[string]any{"type": "initial_state", "guilds": stringsToAny(s.guilds.Guilds())}
	if guildID != "" {
		initial["queue"] = snapshotFields(s.guilds.PeekQueue(guildID))
	}
	msg, err := structpb.NewStruct(initial)
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	if err := stream.Send(msg); err != nil {
		return err
	}

	notifManager := s.guilds.GetNotificationManager()
	subscriptionID := notifManager.Subscribe(guildID, &notificationStreamAdapter{stream: stream})
	zlog.Debug().Msgf("notification subscriber added: subscription=%s guild=%q", subscriptionID, guildID)

	// Wait for client disconnect or server shutdown
	select {
	case <-ctx.Done():
	case <-s.done:
	}

	notifManager.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("notification subscriber removed: subscription=%s", subscriptionID)
	return nil
}

// success builds a successful result response.
func (s *GuildService) success(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	fields["success"] = true
	fields["code"] = "success"
	fields["message"] = s.config.GetMessage("success")
	return structResponse(fields)
}

// failure maps a manager error to a result response. Unexpected errors become RPC errors.
func (s *GuildService) failure(guildID, op string, err error) (*connect.Response[structpb.Struct], error) {
	code := guild.Code(err)
	if code == "internal" {
		zlog.Error().Msgf("%s failed: guild=%s error=%v", op, guildID, err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	zlog.Info().Msgf("%s refused: guild=%s code=%s error=%v", op, guildID, code, err)
	return structResponse(map[string]any{
		"success": false,
		"code":    code,
		"message": s.config.GetMessage(code),
	})
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Broadcasts from different guilds may overlap, so sends are serialized.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	msg, err := structpb.NewStruct(notificationFields(n))
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(msg)
}
