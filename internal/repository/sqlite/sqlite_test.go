package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
)

func openTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "travel.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	for _, table := range []string{"travel_times_current", "travel_times_baseline"} {
		_, err := repo.DB().Exec(`CREATE TABLE ` + table + ` (
			street TEXT NOT NULL,
			direction TEXT NOT NULL,
			period TEXT NOT NULL,
			day_type TEXT NOT NULL,
			date TEXT NOT NULL,
			tt REAL NOT NULL
		)`)
		if err != nil {
			t.Fatalf("create %s: %v", table, err)
		}
	}
	return repo
}

func TestLoad(t *testing.T) {
	repo := openTestDB(t)
	_, err := repo.DB().Exec(`INSERT INTO travel_times_current VALUES
		('Queen', 'WB', 'AMPK', 'Weekday', '2017-11-14', 12.5),
		('Queen', 'Eastbound', 'AMPK', 'Weekday', '2017-11-13', 11.0)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := repo.Load(context.Background(), domain.CollectionCurrent)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Direction != domain.Eastbound || first.TravelTime != 11.0 {
		t.Errorf("unexpected first row %+v", first)
	}
	if !first.Date.Equal(time.Date(2017, 11, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", first.Date)
	}

	baseline, err := repo.Load(context.Background(), domain.CollectionBaseline)
	if err != nil {
		t.Fatalf("Load baseline: %v", err)
	}
	if len(baseline) != 0 {
		t.Errorf("expected empty baseline, got %d", len(baseline))
	}
}

func TestLoadRejectsBadRows(t *testing.T) {
	repo := openTestDB(t)
	if _, err := repo.DB().Exec(`INSERT INTO travel_times_current VALUES ('Queen', 'NB', 'AMPK', 'Weekday', '2017-11-14', 12.5)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Load(context.Background(), domain.CollectionCurrent); err == nil {
		t.Error("expected error for unknown direction")
	}

	if _, err := repo.DB().Exec(`INSERT INTO travel_times_baseline VALUES ('Queen', 'EB', 'AMPK', 'Weekday', 'yesterday', 12.5)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Load(context.Background(), domain.CollectionBaseline); err == nil {
		t.Error("expected error for bad date")
	}
}
