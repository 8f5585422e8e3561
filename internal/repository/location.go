package repository

import (
	"context"

	"github.com/weedwatch/weedwatch/internal/model"
)

// LocationRepository persists ingested reports in location_data and reads
// them back for map rendering.
type LocationRepository interface {
	// EnsureSchema creates location_data if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Insert ensures the schema, inserts rec and sets rec.ID.
	Insert(ctx context.Context, rec *model.LocationRecord) error
	// ListPoints returns latitude, longitude and name of every row.
	ListPoints(ctx context.Context) ([]model.MapPoint, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

const (
	listPointsQuery = `SELECT latitude, longitude, name FROM location_data ORDER BY id`
	countQuery      = `SELECT COUNT(*) FROM location_data`
)
