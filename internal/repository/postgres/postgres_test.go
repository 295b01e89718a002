package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
)

func setupTestRepository(t *testing.T) *PostgresRepository {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo, err := Connect(ctx, databaseURL)
	if err != nil {
		t.Fatalf("Failed to create test repository: %v", err)
	}
	return repo
}

func TestTableName(t *testing.T) {
	if name, _ := TableName(domain.CollectionCurrent); name != "travel_times_current" {
		t.Errorf("current table = %s", name)
	}
	if name, _ := TableName(domain.CollectionBaseline); name != "travel_times_baseline" {
		t.Errorf("baseline table = %s", name)
	}
	if _, err := TableName("other"); err == nil {
		t.Error("expected error for unknown collection")
	}
}

func TestLoadCollections(t *testing.T) {
	repo := setupTestRepository(t)
	defer repo.Close()

	ctx := context.Background()
	if err := repo.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}

	for _, c := range domain.Collections() {
		rows, err := repo.Load(ctx, c)
		if err != nil {
			t.Fatalf("Load %s failed: %v", c, err)
		}
		if len(rows) == 0 {
			t.Logf("Warning: no %s rows returned. Database may be empty.", c)
			continue
		}
		for i := 1; i < len(rows); i++ {
			if rows[i].Date.Before(rows[i-1].Date) {
				t.Fatalf("%s rows not ordered by date at %d", c, i)
			}
		}
	}
}
