package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weedwatch/weedwatch/internal/model"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS location_data (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT,
		latitude  DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		time      TEXT
	)`

// PostgresLocationRepository stores location_data in PostgreSQL.
type PostgresLocationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLocationRepository returns a repository using the given pool.
func NewPostgresLocationRepository(pool *pgxpool.Pool) *PostgresLocationRepository {
	return &PostgresLocationRepository{pool: pool}
}

func (r *PostgresLocationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create location_data: %w", err)
	}
	return nil
}

// Insert ensures the table and inserts rec, setting rec.ID from RETURNING.
func (r *PostgresLocationRepository) Insert(ctx context.Context, rec *model.LocationRecord) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	query := `
		INSERT INTO location_data (name, latitude, longitude, time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.pool.QueryRow(ctx, query,
		rec.Name,
		rec.Latitude,
		rec.Longitude,
		rec.Time,
	).Scan(&rec.ID); err != nil {
		return fmt.Errorf("insert location_data: %w", err)
	}
	return nil
}

func (r *PostgresLocationRepository) ListPoints(ctx context.Context) ([]model.MapPoint, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, listPointsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.MapPoint
	for rows.Next() {
		var p model.MapPoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Name); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PostgresLocationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresLocationRepository) Close() error {
	r.pool.Close()
	return nil
}
