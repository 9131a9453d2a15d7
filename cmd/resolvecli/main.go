// Package main provides a local tool that resolves requests without running the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/guildbox/internal/app/resolver"
	"github.com/osa030/guildbox/internal/bootstrap"
	"github.com/osa030/guildbox/internal/domain/track"
	"github.com/osa030/guildbox/internal/infra/config"
	"github.com/osa030/guildbox/internal/infra/logger"
)

var (
	app        = kingpin.New("guildbox-resolvecli", "Resolve links and search text the way the server does")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()

	// resolve command
	resolveCmd   = app.Command("resolve", "Resolve a link or search text to a playable track")
	resolveQuery = resolveCmd.Arg("query", "Link or search text").Required().String()

	// expand command
	expandCmd = app.Command("expand", "Expand a Spotify playlist or album into playable tracks")
	expandURL = expandCmd.Arg("url", "Playlist or album link").Required().String()
)

var cliRequester = track.Requester{ID: "resolvecli", Name: "resolvecli"}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Output: "stderr", Level: level}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := bootstrap.NewProviders(ctx, cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer providers.Close()

	switch command {
	case resolveCmd.FullCommand():
		err = resolve(ctx, providers.Resolver, *resolveQuery)
	case expandCmd.FullCommand():
		err = expand(ctx, providers.Expander, *expandURL)
	}
	if err != nil {
		fmt.Printf("Error [%s]: %v\n", resolver.Code(err), err)
		os.Exit(1)
	}
}

func resolve(ctx context.Context, r *resolver.Resolver, query string) error {
	fmt.Printf("Query kind: %s\n", resolver.Classify(query))

	t, err := r.Resolve(ctx, query, cliRequester)
	if err != nil {
		return err
	}
	printTrack(t)
	return nil
}

func expand(ctx context.Context, e *resolver.PlaylistExpander, url string) error {
	result, err := e.Expand(ctx, url, cliRequester)
	if err != nil {
		return err
	}

	fmt.Printf("Playlist: %s\n", result.Title)
	fmt.Printf("Resolved: %d of %d (failed: %d)\n", result.ResolvedCount(), result.DeclaredTotal, result.Failed)
	for i, t := range result.Tracks {
		fmt.Printf("%3d. %s [%s] <- %s - %s\n", i+1, t.Title, t.DisplayDuration(), t.OriginalArtist, t.OriginalTitle)
	}
	return nil
}

func printTrack(t track.Track) {
	fmt.Printf("Title: %s\n", t.Title)
	fmt.Printf("Duration: %s\n", t.DisplayDuration())
	fmt.Printf("URL: %s\n", t.PlayableURL)
	fmt.Printf("Source: %s\n", t.Source)
	if t.ThumbnailURL != "" {
		fmt.Printf("Thumbnail: %s\n", t.ThumbnailURL)
	}
	if t.IsCrossService() {
		fmt.Printf("Matched from: %s - %s (%s)\n", t.OriginalArtist, t.OriginalTitle, t.OriginalURL)
	}
}
