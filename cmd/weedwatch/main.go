package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/config"
	"github.com/weedwatch/weedwatch/internal/database"
	"github.com/weedwatch/weedwatch/internal/ingest"
	"github.com/weedwatch/weedwatch/internal/logger"
	"github.com/weedwatch/weedwatch/internal/observability"
	"github.com/weedwatch/weedwatch/internal/rawstore"
	"github.com/weedwatch/weedwatch/internal/server"
)

func main() {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("could not load config")
	}
	if err := cfg.ValidateServer(); err != nil {
		boot.Fatal().Err(err).Msg("invalid config")
	}

	log := logger.New(cfg.Observability)
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

// run owns every resource opened after config load so deferred cleanup
// always happens before the process exits.
func run(cfg *config.Config, log zerolog.Logger) error {
	nrApp, err := observability.NewApplication(cfg.Observability)
	if err != nil {
		return fmt.Errorf("new relic: %w", err)
	}
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw, err := rawstore.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("raw store: %w", err)
	}

	repo, err := database.OpenRepository(ctx, cfg.Database, database.Options{
		Logger:   log,
		NewRelic: nrApp != nil,
	})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}()

	svc := ingest.NewService(raw, repo, log)
	return server.New(cfg, svc, log, nrApp).Start(ctx)
}
