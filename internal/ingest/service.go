package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/model"
	"github.com/weedwatch/weedwatch/internal/rawstore"
	"github.com/weedwatch/weedwatch/internal/repository"
)

// DateLayout is the day-granularity format stored in location_data.time.
const DateLayout = "2006-01-02"

// ErrMalformedReport wraps every body that is not a single JSON object.
var ErrMalformedReport = errors.New("malformed report")

// Service accepts location reports: raw copy first, then the normalized row.
type Service struct {
	raw    rawstore.Store
	repo   repository.LocationRepository
	logger zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the receipt clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(raw rawstore.Store, repo repository.LocationRepository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		raw:    raw,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecodeReport parses body as a JSON object. Field types are not enforced:
// a number or numeric string becomes a coordinate, anything else leaves it
// NULL, and a non-string name keeps its JSON text. Unknown keys are ignored
// here; they survive in the raw copy.
func DecodeReport(body []byte) (*model.LocationReport, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrMalformedReport)
	}
	return &model.LocationReport{
		Name:      looseString(fields["name"]),
		Latitude:  looseFloat(fields["latitude"]),
		Longitude: looseFloat(fields["longitude"]),
		Accuracy:  looseFloat(fields["accuracy"]),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func looseString(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, raw); err != nil {
		text := string(raw)
		return &text
	}
	text := compact.String()
	return &text
}

func looseFloat(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Submit stores body verbatim in the raw store and appends one row to
// location_data dated with the server's current day. A raw object written
// before a failed insert is left in place.
func (s *Service) Submit(ctx context.Context, body []byte) (*model.LocationRecord, error) {
	report, err := DecodeReport(body)
	if err != nil {
		return nil, err
	}

	obj, err := s.raw.Put(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("save raw payload: %w", err)
	}

	rec := &model.LocationRecord{
		Name:      report.Name,
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
		Time:      s.now().Format(DateLayout),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("save location record: %w", err)
	}

	payload := new(bytes.Buffer)
	if err := json.Compact(payload, body); err != nil {
		payload.Reset()
		payload.WriteString("{}")
	}
	event := s.logger.Info().
		RawJSON("payload", payload.Bytes()).
		Str("raw_key", obj.Key).
		Int64("id", rec.ID).
		Str("time", rec.Time)
	if report.Name != nil {
		event = event.Str("name", *report.Name)
	}
	if report.Latitude != nil {
		event = event.Float64("latitude", *report.Latitude)
	}
	if report.Longitude != nil {
		event = event.Float64("longitude", *report.Longitude)
	}
	if report.Accuracy != nil {
		event = event.Float64("accuracy", *report.Accuracy)
	}
	event.Msg("location report saved")

	return rec, nil
}
