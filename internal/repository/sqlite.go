package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/weedwatch/weedwatch/internal/model"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS location_data (
		id        INTEGER PRIMARY KEY,
		name      TEXT,
		latitude  REAL,
		longitude REAL,
		time      TEXT
	)`

// SQLiteLocationRepository stores location_data in a local SQLite file.
type SQLiteLocationRepository struct {
	db *sql.DB
}

// NewSQLiteLocationRepository wraps an open handle. The repository owns db
// and closes it on Close.
func NewSQLiteLocationRepository(db *sql.DB) *SQLiteLocationRepository {
	return &SQLiteLocationRepository{db: db}
}

func (r *SQLiteLocationRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("repository not initialized")
	}
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create location_data: %w", err)
	}
	return nil
}

func (r *SQLiteLocationRepository) Insert(ctx context.Context, rec *model.LocationRecord) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO location_data (id, name, latitude, longitude, time) VALUES (NULL, ?, ?, ?, ?)`,
		rec.Name,
		rec.Latitude,
		rec.Longitude,
		rec.Time,
	)
	if err != nil {
		return fmt.Errorf("insert location_data: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert location_data: %w", err)
	}
	rec.ID = id
	return nil
}

func (r *SQLiteLocationRepository) ListPoints(ctx context.Context) ([]model.MapPoint, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, listPointsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MapPoint
	for rows.Next() {
		var p model.MapPoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteLocationRepository) Count(ctx context.Context) (int64, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteLocationRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
