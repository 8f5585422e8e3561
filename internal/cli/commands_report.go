package cli

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/weedwatch/weedwatch/internal/config"
	"github.com/weedwatch/weedwatch/internal/mailer"
	"github.com/weedwatch/weedwatch/internal/mapping"
	"github.com/weedwatch/weedwatch/internal/report"
)

type reportFlags struct {
	outputDir      string
	format         string
	categoriesFile string
}

func (f *reportFlags) register(cmd *cobra.Command, deps Dependencies) {
	cfg := deps.Config.Report
	cmd.Flags().StringVar(&f.outputDir, "out", cfg.OutputDir, "Directory the map files are written to.")
	cmd.Flags().StringVar(&f.format, "format", cfg.Format, "Map format: html or geojson. The stock mail body follows the format.")
	cmd.Flags().StringVar(&f.categoriesFile, "categories", cfg.CategoriesFile, "YAML file mapping species labels to output files.")
}

func newRenderCommand(deps Dependencies) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one map per species without sending mail.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, closeFn, err := buildJob(cmd, deps, flags, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			paths, err := job.Render(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range paths {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	flags.register(cmd, deps)
	return cmd
}

func newSendCommand(deps Dependencies) *cobra.Command {
	var (
		flags reportFlags
		every time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Render the maps and mail them to the configured recipient.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deps.Config.ValidateMail(); err != nil {
				return fmt.Errorf("mail config: %w", err)
			}
			sender, err := deps.NewSender(deps.Config.Mail)
			if err != nil {
				return err
			}
			job, closeFn, err := buildJob(cmd, deps, flags, sender)
			if err != nil {
				return err
			}
			defer closeFn()

			if every <= 0 {
				return job.Run(cmd.Context())
			}
			rc := deps.Config.Report
			backoff := report.Backoff{MaxRetries: rc.MaxRetries, BaseDelay: rc.BaseDelay, MaxDelay: rc.MaxDelay}
			deps.Logger.Info().Dur("every", every).Msg("report schedule started")
			return report.Every(cmd.Context(), every, backoff, deps.Logger, job.Run)
		},
	}
	flags.register(cmd, deps)
	cmd.Flags().DurationVar(&every, "every", 0, "Repeat on this interval with retries (e.g. 24h). Zero sends once.")
	return cmd
}

func buildJob(cmd *cobra.Command, deps Dependencies, flags reportFlags, sender mailer.Sender) (*report.Job, func(), error) {
	if err := deps.Config.ValidateReport(); err != nil {
		return nil, nil, fmt.Errorf("report config: %w", err)
	}
	renderer, err := mapping.NewRenderer(mapping.Format(flags.format))
	if err != nil {
		return nil, nil, err
	}
	categories, err := mapping.LoadCategories(flags.categoriesFile)
	if err != nil {
		return nil, nil, err
	}
	repo, err := deps.OpenRepository(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	cfg := deps.Config
	body := cfg.Mail.Body
	if body == config.DefaultMailBody("html") || body == config.DefaultMailBody("geojson") {
		body = config.DefaultMailBody(string(renderer.Format()))
	}
	job := &report.Job{
		Points:     repo,
		Renderer:   renderer,
		Categories: categories,
		View: mapping.View{
			Center: orb.Point{cfg.Report.CenterLongitude, cfg.Report.CenterLatitude},
			Zoom:   cfg.Report.Zoom,
			Popup:  cfg.Report.Popup,
		},
		OutputDir: flags.outputDir,
		Sender:    sender,
		Mail: report.Envelope{
			From:    cfg.Mail.From,
			To:      cfg.Mail.To,
			Subject: cfg.Mail.Subject,
			Body:    body,
		},
		Logger: deps.Logger,
	}
	closeFn := func() {
		if err := repo.Close(); err != nil {
			deps.Logger.Warn().Err(err).Msg("close database")
		}
	}
	return job, closeFn, nil
}
