// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/guildbox/internal/api/connect"
	"github.com/osa030/guildbox/internal/app/filter"
	"github.com/osa030/guildbox/internal/bootstrap"
	"github.com/osa030/guildbox/internal/infra/config"
	"github.com/osa030/guildbox/internal/infra/logger"
)

var (
	app        = kingpin.New("guildbox-server", "guildbox per-guild audio playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		os.Exit(1)
	}
}

// run executes the main server logic so deferred cleanup runs on every exit path.
func run(cfg *config.Config) error {
	ctx := context.Background()

	filters, err := bootstrap.NewFilterChain(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	providers, err := bootstrap.NewProviders(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create providers")
	}
	defer func() {
		if err := providers.Close(); err != nil {
			zlog.Error().Msgf("Failed to close providers: %v", err)
		}
	}()

	manager := bootstrap.NewGuildManager(cfg, providers, filters)

	guildService := apiconnect.NewGuildService(manager, cfg)
	adminService := apiconnect.NewAdminService(manager, cfg)

	mux := http.NewServeMux()
	guildPath, guildHandler := guildService.Handler()
	adminPath, adminHandler := adminService.Handler(
		connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(cfg)),
	)
	mux.Handle(guildPath, guildHandler)
	mux.Handle(adminPath, adminHandler)

	// h2c serves HTTP/2 cleartext for server streams
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received shutdown signal: signal=%s", sig)
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "server error")
	}

	// End notification streams first so Shutdown does not wait on them
	guildService.Shutdown()

	if err := manager.Close(); err != nil {
		zlog.Error().Msgf("Failed to close guild manager: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return runErr
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.Names() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}
