// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/guildbox/internal/app/notification"
	"github.com/osa030/guildbox/internal/app/playback"
	"github.com/osa030/guildbox/internal/app/resolver"
	"github.com/osa030/guildbox/internal/domain/track"
)

// Service names.
const (
	GuildServiceName = "guildbox.v1.GuildService"
	AdminServiceName = "guildbox.v1.AdminService"
)

// Procedure paths. Requests and responses are google.protobuf.Struct messages.
const (
	EnqueueProcedure                = "/" + GuildServiceName + "/Enqueue"
	EnqueuePlaylistProcedure        = "/" + GuildServiceName + "/EnqueuePlaylist"
	SkipProcedure                   = "/" + GuildServiceName + "/Skip"
	StopProcedure                   = "/" + GuildServiceName + "/Stop"
	PeekQueueProcedure              = "/" + GuildServiceName + "/PeekQueue"
	SubscribeNotificationsProcedure = "/" + GuildServiceName + "/SubscribeNotifications"

	ListGuildsProcedure = "/" + AdminServiceName + "/ListGuilds"
	LeaveProcedure      = "/" + AdminServiceName + "/Leave"
)

// GuildManager is the guild-level API served over RPC.
type GuildManager interface {
	Enqueue(ctx context.Context, guildID, query string, requester track.Requester) (track.Track, error)
	EnqueuePlaylist(ctx context.Context, guildID, query string, requester track.Requester) (resolver.PlaylistResult, error)
	Skip(guildID string) (track.Track, error)
	Stop(guildID string) (int, error)
	Leave(guildID string) error
	PeekQueue(guildID string) playback.Snapshot
	Guilds() []string
	GetNotificationManager() *notification.Manager
}

// stringField returns the trimmed string value of a request field.
func stringField(s *structpb.Struct, name string) string {
	v, ok := s.GetFields()[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

// requesterFrom reads the requester fields of a request.
func requesterFrom(s *structpb.Struct) track.Requester {
	return track.Requester{
		ID:   stringField(s, "requester_id"),
		Name: stringField(s, "requester_name"),
	}
}

// trackFields converts a track to response fields.
func trackFields(t track.Track) map[string]any {
	fields := map[string]any{
		"title":        t.Title,
		"url":          t.PlayableURL,
		"duration":     t.DisplayDuration(),
		"duration_sec": int64(t.Duration.Seconds()),
		"source":       t.Source,
		"requester":    t.Requester.String(),
	}
	if t.ThumbnailURL != "" {
		fields["thumbnail_url"] = t.ThumbnailURL
	}
	if t.IsCrossService() {
		fields["original_title"] = t.OriginalTitle
		fields["original_artist"] = t.OriginalArtist
		fields["original_url"] = t.OriginalURL
	}
	return fields
}

// snapshotFields converts a queue snapshot to response fields.
func snapshotFields(s playback.Snapshot) map[string]any {
	tracks := make([]any, 0, len(s.Tracks))
	var total int64
	for _, t := range s.Tracks {
		tracks = append(tracks, trackFields(t))
		total += int64(t.Duration.Seconds())
	}

	fields := map[string]any{
		"guild_id":           s.GuildID,
		"state":              s.State.String(),
		"tracks":             tracks,
		"total_duration_sec": total,
	}
	if current, ok := s.NowPlaying(); ok {
		fields["now_playing"] = trackFields(current)
		fields["started_at"] = s.StartedAt.Unix()
	}
	return fields
}

// notificationFields converts a notification to message fields.
func notificationFields(n *notification.Notification) map[string]any {
	fields := map[string]any{
		"sequence_no": int64(n.SequenceNo),
		"guild_id":    n.GuildID,
		"type":        n.Type,
		"state":       n.State,
		"timestamp":   n.Timestamp.Unix(),
	}
	if n.Track != nil {
		fields["track"] = trackFields(*n.Track)
	}
	if n.Error != "" {
		fields["error"] = n.Error
	}
	if n.Cleared > 0 {
		fields["cleared"] = n.Cleared
	}
	return fields
}
