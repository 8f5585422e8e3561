package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/config"
	"github.com/weedwatch/weedwatch/internal/mailer"
	"github.com/weedwatch/weedwatch/internal/repository"
)

// Dependencies are the collaborators the report commands need. Factories are
// called lazily so "version" works without a database or relay.
type Dependencies struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Version        string
	OpenRepository func(ctx context.Context) (repository.LocationRepository, error)
	NewSender      func(cfg config.MailConfig) (mailer.Sender, error)
}
