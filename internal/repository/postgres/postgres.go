package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartcity/kingpilot/internal/domain"
)

// PostgresRepository implements domain.MeasurementSource
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Connect opens a pool and verifies connectivity
func Connect(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	return NewPostgresRepository(pool), nil
}

// TableName returns the table holding collection c
func TableName(c domain.Collection) (string, error) {
	switch c {
	case domain.CollectionCurrent:
		return "travel_times_current", nil
	case domain.CollectionBaseline:
		return "travel_times_baseline", nil
	}
	return "", fmt.Errorf("unknown collection %q", c)
}

// Load retrieves every measurement of collection c from PostgreSQL
func (r *PostgresRepository) Load(ctx context.Context, c domain.Collection) ([]domain.Measurement, error) {
	table, err := TableName(c)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	query := fmt.Sprintf(`
		SELECT street, direction, period, day_type, date, tt
		FROM %s
		ORDER BY date, street, direction
	`, table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var results []domain.Measurement
	for rows.Next() {
		var (
			m   domain.Measurement
			dir string
		)
		if err := rows.Scan(&m.Street, &dir, &m.Period, &m.DayType, &m.Date, &m.TravelTime); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan %s row: %w", table, err)
		}
		if m.Direction, err = domain.ParseDirection(dir); err != nil {
			return nil, fmt.Errorf("postgres: %s: %w", table, err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read %s: %w", table, err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// Close releases the pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
