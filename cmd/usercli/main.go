// Package main provides the user CLI entry point for testing.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/osa030/guildbox/internal/api/connect"
)

var (
	app           = kingpin.New("guildbox-usercli", "guildbox user client for testing")
	server        = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	guildID       = app.Flag("guild", "Guild ID").Short('g').Envar("GUILD_ID").String()
	requesterID   = app.Flag("requester-id", "Requester user ID").Default("cli").String()
	requesterName = app.Flag("requester-name", "Requester display name").Default("cli").String()

	// enqueue command
	enqueueCmd   = app.Command("enqueue", "Request a track by link or search text").Alias("play")
	enqueueQuery = enqueueCmd.Arg("query", "Link or search text").Required().String()

	// playlist command
	playlistCmd = app.Command("playlist", "Request every track of a Spotify playlist or album")
	playlistURL = playlistCmd.Arg("url", "Playlist or album link").Required().String()

	// skip command
	skipCmd = app.Command("skip", "Skip the current track")

	// stop command
	stopCmd = app.Command("stop", "Stop playback and clear the queue")

	// queue command
	queueCmd = app.Command("queue", "Show the current track and queue")

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Subscribe to notifications (all guilds without --guild)")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command != subscribeCmd.FullCommand() && *guildID == "" {
		fmt.Println("Error: guild ID is required (use --guild or GUILD_ID env)")
		os.Exit(1)
	}

	client := apiconnect.NewClient(http.DefaultClient, *server, "")
	ctx := context.Background()

	switch command {
	case enqueueCmd.FullCommand():
		enqueue(ctx, client, *enqueueQuery)
	case playlistCmd.FullCommand():
		enqueuePlaylist(ctx, client, *playlistURL)
	case skipCmd.FullCommand():
		skip(ctx, client)
	case stopCmd.FullCommand():
		stop(ctx, client)
	case queueCmd.FullCommand():
		queue(ctx, client)
	case subscribeCmd.FullCommand():
		subscribe(ctx, client)
	}
}

func call(ctx context.Context, client *apiconnect.Client, procedure string, fields map[string]any) map[string]*structpb.Value {
	fields["guild_id"] = *guildID
	resp, err := client.Call(ctx, procedure, fields)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return resp.GetFields()
}

// succeeded prints a refusal and reports whether the call succeeded.
func succeeded(f map[string]*structpb.Value) bool {
	if f["success"].GetBoolValue() {
		return true
	}
	fmt.Printf("Rejected [%s]: %s\n", f["code"].GetStringValue(), f["message"].GetStringValue())
	return false
}

func requesterFields() map[string]any {
	return map[string]any{
		"requester_id":   *requesterID,
		"requester_name": *requesterName,
	}
}

func enqueue(ctx context.Context, client *apiconnect.Client, query string) {
	fields := requesterFields()
	fields["query"] = query
	f := call(ctx, client, apiconnect.EnqueueProcedure, fields)
	if !succeeded(f) {
		return
	}
	fmt.Printf("Success: %s\n", f["message"].GetStringValue())
	printTrack("  ", f["track"].GetStructValue())
}

func enqueuePlaylist(ctx context.Context, client *apiconnect.Client, url string) {
	fields := requesterFields()
	fields["query"] = url
	f := call(ctx, client, apiconnect.EnqueuePlaylistProcedure, fields)
	if !succeeded(f) {
		return
	}
	fmt.Printf("Success: %s\n", f["message"].GetStringValue())
	fmt.Printf("  Playlist: %s\n", f["title"].GetStringValue())
	fmt.Printf("  Queued: %d of %d (failed: %d, rejected: %d)\n",
		int(f["resolved"].GetNumberValue()),
		int(f["declared_total"].GetNumberValue()),
		int(f["failed"].GetNumberValue()),
		int(f["rejected"].GetNumberValue()))
}

func skip(ctx context.Context, client *apiconnect.Client) {
	f := call(ctx, client, apiconnect.SkipProcedure, map[string]any{})
	if !succeeded(f) {
		return
	}
	fmt.Println("Track skipped")
	printTrack("  ", f["track"].GetStructValue())
}

func stop(ctx context.Context, client *apiconnect.Client) {
	f := call(ctx, client, apiconnect.StopProcedure, map[string]any{})
	if !succeeded(f) {
		return
	}
	fmt.Printf("Playback stopped, %d queued tracks cleared\n", int(f["cleared"].GetNumberValue()))
}

func queue(ctx context.Context, client *apiconnect.Client) {
	f := call(ctx, client, apiconnect.PeekQueueProcedure, map[string]any{})
	printSnapshot(f)
}

func printSnapshot(f map[string]*structpb.Value) {
	fmt.Printf("\nState: %s\n", f["state"].GetStringValue())
	if np := f["now_playing"].GetStructValue(); np != nil {
		fmt.Println("Now playing:")
		printTrack("  ", np)
	} else {
		fmt.Println("No track currently playing")
	}

	tracks := f["tracks"].GetListValue().GetValues()
	fmt.Printf("Queue (%d tracks, %ds):\n", len(tracks), int(f["total_duration_sec"].GetNumberValue()))
	for i, v := range tracks {
		if i == 0 && f["now_playing"].GetStructValue() != nil {
			continue
		}
		t := v.GetStructValue().GetFields()
		fmt.Printf("  %2d. %s (%s) requested by %s\n", i,
			t["title"].GetStringValue(), t["duration"].GetStringValue(), t["requester"].GetStringValue())
	}
}

func printTrack(indent string, s *structpb.Struct) {
	if s == nil {
		return
	}
	t := s.GetFields()
	fmt.Printf("%sTitle: %s\n", indent, t["title"].GetStringValue())
	fmt.Printf("%sDuration: %s\n", indent, t["duration"].GetStringValue())
	fmt.Printf("%sURL: %s\n", indent, t["url"].GetStringValue())
	fmt.Printf("%sSource: %s\n", indent, t["source"].GetStringValue())
	fmt.Printf("%sRequested by: %s\n", indent, t["requester"].GetStringValue())
	if original := t["original_title"].GetStringValue(); original != "" {
		fmt.Printf("%sOriginal: %s - %s (%s)\n", indent,
			t["original_artist"].GetStringValue(), original, t["original_url"].GetStringValue())
	}
}

func subscribe(ctx context.Context, client *apiconnect.Client) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	err := client.Subscribe(ctx, *guildID, func(msg *structpb.Struct) error {
		printNotification(msg.GetFields())
		return nil
	})
	if err != nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nUnsubscribed")
}

func printNotification(f map[string]*structpb.Value) {
	switch typ := f["type"].GetStringValue(); typ {
	case "initial_state":
		fmt.Println("\n=== INITIAL STATE ===")
		fmt.Printf("Guilds: %v\n", f["guilds"].GetListValue().AsSlice())
		if q := f["queue"].GetStructValue(); q != nil {
			printSnapshot(q.GetFields())
		}
	default:
		fmt.Printf("\n[Sequence: %d] %s guild=%s state=%s\n",
			int(f["sequence_no"].GetNumberValue()), typ,
			f["guild_id"].GetStringValue(), f["state"].GetStringValue())
		printTrack("  ", f["track"].GetStructValue())
		if e := f["error"].GetStringValue(); e != "" {
			fmt.Printf("  Error: %s\n", e)
		}
		if cleared := int(f["cleared"].GetNumberValue()); cleared > 0 {
			fmt.Printf("  Cleared: %d\n", cleared)
		}
	}
}
