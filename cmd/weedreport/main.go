package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/cli"
	"github.com/weedwatch/weedwatch/internal/config"
	"github.com/weedwatch/weedwatch/internal/database"
	"github.com/weedwatch/weedwatch/internal/logger"
	"github.com/weedwatch/weedwatch/internal/mailer"
	"github.com/weedwatch/weedwatch/internal/repository"
)

var version = "dev"

func main() {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("could not load config")
	}
	if cfg.Observability.ServiceName == "weedwatch" {
		cfg.Observability.ServiceName = "weedreport"
	}
	log := logger.New(cfg.Observability)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := cli.Dependencies{
		Config:  cfg,
		Logger:  log,
		Version: version,
		OpenRepository: func(ctx context.Context) (repository.LocationRepository, error) {
			return database.OpenRepository(ctx, cfg.Database, database.Options{Logger: log})
		},
		NewSender: func(mc config.MailConfig) (mailer.Sender, error) {
			password, err := mc.SMTPPassword()
			if err != nil {
				return nil, err
			}
			return mailer.New(mc, password, log.With().Str("component", "mailer").Logger())
		},
	}

	code := cli.Execute(ctx, os.Args[1:], deps, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
