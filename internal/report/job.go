package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/mailer"
	"github.com/weedwatch/weedwatch/internal/mapping"
	"github.com/weedwatch/weedwatch/internal/model"
)

// PointSource is satisfied by repository.LocationRepository.
type PointSource interface {
	ListPoints(ctx context.Context) ([]model.MapPoint, error)
}

// Envelope holds the fixed parts of the outgoing mail.
type Envelope struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Job struct {
	Points     PointSource
	Renderer   *mapping.Renderer
	Categories []mapping.Category
	View       mapping.View
	OutputDir  string
	Sender     mailer.Sender // nil for render-only runs
	Mail       Envelope
	Logger     zerolog.Logger
}

// Render reads every row, writes one map file per category and returns the
// written paths in category order.
func (j *Job) Render(ctx context.Context) ([]string, error) {
	points, err := j.Points.ListPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	maps, stats := mapping.Partition(points, j.Categories, j.View)
	j.Logger.Debug().
		Int("rows", len(points)).
		Int("unmatched", stats.Unmatched).
		Int("no_coordinates", stats.NoCoordinates).
		Msg("rows partitioned")

	if err := os.MkdirAll(j.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(maps))
	for _, m := range maps {
		path := filepath.Join(j.OutputDir, j.Renderer.FileName(m.Category))
		if err := j.writeMap(path, m); err != nil {
			return nil, err
		}
		j.Logger.Info().
			Str("category", m.Category.Label).
			Int("markers", len(m.Markers)).
			Str("file", path).
			Msg("map rendered")
		paths = append(paths, path)
	}
	return paths, nil
}

// writeMap renders into a temp file and renames it over path.
func (j *Job) writeMap(path string, m mapping.Map) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := j.Renderer.Render(tmp, m); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Run renders every map and mails them. The first error aborts the run.
func (j *Job) Run(ctx context.Context) error {
	if j.Sender == nil {
		return errors.New("no mail sender configured")
	}
	paths, err := j.Render(ctx)
	if err != nil {
		return err
	}
	return j.Sender.Send(ctx, mailer.Message{
		From:        j.Mail.From,
		To:          j.Mail.To,
		Subject:     j.Mail.Subject,
		Body:        j.Mail.Body,
		Attachments: paths,
	})
}
