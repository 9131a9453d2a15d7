// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/osa030/guildbox/internal/api/connect"
)

var (
	app    = kingpin.New("guildbox-admincli", "guildbox admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// list-guilds command
	listCmd = app.Command("list-guilds", "List guilds with active playback").Alias("list")

	// leave command
	leaveCmd   = app.Command("leave", "Stop playback and release a guild")
	leaveGuild = leaveCmd.Arg("guild-id", "Guild ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	switch command {
	case listCmd.FullCommand():
		listGuilds(ctx, client)
	case leaveCmd.FullCommand():
		leave(ctx, client, *leaveGuild)
	}
}

func listGuilds(ctx context.Context, client *apiconnect.Client) {
	resp, err := client.Call(ctx, apiconnect.ListGuildsProcedure, map[string]any{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fields := resp.GetFields()
	guilds := fields["guilds"].GetListValue().GetValues()
	fmt.Printf("Guilds (%d), subscribers: %d\n", len(guilds), int(fields["subscribers"].GetNumberValue()))
	for _, v := range guilds {
		g := v.GetStructValue()
		printGuild(g)
	}
}

func printGuild(g *structpb.Struct) {
	f := g.GetFields()
	fmt.Printf("\n  %s [%s]\n", f["guild_id"].GetStringValue(), f["state"].GetStringValue())
	if np := f["now_playing"].GetStructValue(); np != nil {
		t := np.GetFields()
		fmt.Printf("    Now playing: %s (%s) requested by %s\n",
			t["title"].GetStringValue(), t["duration"].GetStringValue(), t["requester"].GetStringValue())
	}
	tracks := f["tracks"].GetListValue().GetValues()
	fmt.Printf("    Tracks: %d, total: %ds\n", len(tracks), int(f["total_duration_sec"].GetNumberValue()))
}

func leave(ctx context.Context, client *apiconnect.Client, guildID string) {
	resp, err := client.Call(ctx, apiconnect.LeaveProcedure, map[string]any{"guild_id": guildID})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	f := resp.GetFields()
	if f["success"].GetBoolValue() {
		fmt.Printf("Left guild %s\n", guildID)
	} else {
		fmt.Printf("Failed: %s (%s)\n", f["message"].GetStringValue(), f["code"].GetStringValue())
	}
}
