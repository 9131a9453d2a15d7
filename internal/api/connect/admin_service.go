package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/guildbox/internal/app/guild"
	"github.com/osa030/guildbox/internal/infra/config"
)

// AdminService implements the AdminService RPC.
type AdminService struct {
	guilds GuildManager
	config *config.Config
}

// NewAdminService creates a new AdminService.
func NewAdminService(guilds GuildManager, cfg *config.Config) *AdminService {
	return &AdminService{
		guilds: guilds,
		config: cfg,
	}
}

// Handler returns the service path and its HTTP handler.
func (s *AdminService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(ListGuildsProcedure, connect.NewUnaryHandler(ListGuildsProcedure, s.ListGuilds, opts...))
	mux.Handle(LeaveProcedure, connect.NewUnaryHandler(LeaveProcedure, s.Leave, opts...))
	return "/" + AdminServiceName + "/", mux
}

// ListGuilds returns every guild with a live engine and its queue.
func (s *AdminService) ListGuilds(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	ids := s.guilds.Guilds()
	guilds := make([]any, 0, len(ids))
	for _, id := range ids {
		guilds = append(guilds, snapshotFields(s.guilds.PeekQueue(id)))
	}

	return structResponse(map[string]any{
		"guilds":      guilds,
		"subscribers": s.guilds.GetNotificationManager().SubscriberCount(),
	})
}

// Leave tears a guild's playback down.
func (s *AdminService) Leave(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	guildID, err := requireGuildID(req.Msg)
	if err != nil {
		return nil, err
	}

	if err := s.guilds.Leave(guildID); err != nil {
		code := guild.Code(err)
		if code == "internal" {
			zlog.Error().Msgf("leave failed: guild=%s error=%v", guildID, err)
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		return structResponse(map[string]any{
			"success": false,
			"code":    code,
			"message": s.config.GetMessage(code),
		})
	}

	return structResponse(map[string]any{
		"success": true,
		"code":    "success",
		"message": "Left guild",
	})
}
