package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
	"github.com/smartcity/kingpilot/internal/repository/postgres"

	_ "modernc.org/sqlite"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02 15:04:05"}

// Repository implements domain.MeasurementSource on a local SQLite file.
// It reads the same tables as the PostgreSQL source.
type Repository struct {
	db *sql.DB
}

// Open opens the database file at path and verifies the connection
func Open(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping database: %w", err)
	}
	return &Repository{db: db}, nil
}

// DB returns the underlying connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Load retrieves every measurement of collection c
func (r *Repository) Load(ctx context.Context, c domain.Collection) ([]domain.Measurement, error) {
	table, err := postgres.TableName(c)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	// CAST keeps the driver from converting typed date columns
	query := fmt.Sprintf(`
		SELECT street, direction, period, day_type, CAST(date AS TEXT), tt
		FROM %s
		ORDER BY date, street, direction
	`, table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var results []domain.Measurement
	for rows.Next() {
		var (
			m         domain.Measurement
			dir, date string
		)
		if err := rows.Scan(&m.Street, &dir, &m.Period, &m.DayType, &date, &m.TravelTime); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan %s row: %w", table, err)
		}
		if m.Direction, err = domain.ParseDirection(dir); err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", table, err)
		}
		if m.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", table, err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read %s: %w", table, err)
	}
	return results, nil
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
