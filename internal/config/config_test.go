package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DataSource != SourceCSV {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	want := []string{"Dundas", "Queen", "Adelaide", "Richmond", "Wellington", "Front"}
	if !reflect.DeepEqual(cfg.Streets, want) {
		t.Errorf("streets = %v", cfg.Streets)
	}
	if cfg.Period != "AMPK" || cfg.DayType != "Weekday" {
		t.Errorf("unexpected params %s/%s", cfg.Period, cfg.DayType)
	}
	if cfg.CellThreshold != 1.0 || cfg.SelectionHistory != 50 {
		t.Errorf("unexpected threshold/history %v/%d", cfg.CellThreshold, cfg.SelectionHistory)
	}
	if cfg.CacheTTL != 10*time.Minute || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("unexpected durations %v/%v", cfg.CacheTTL, cfg.ShutdownTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STREETS", "King, Queen")
	t.Setenv("DATA_SOURCE", "mock")
	t.Setenv("CELL_THRESHOLD", "0.5")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Streets, []string{"King", "Queen"}) {
		t.Errorf("streets = %q", cfg.Streets)
	}
	if cfg.DataSource != SourceMock || cfg.CellThreshold != 0.5 || !cfg.RedisEnabled || cfg.CacheTTL != 30*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DASHBOARD_PERIOD=PMPK\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a set variable; t.Setenv restores it afterwards
	t.Setenv("DASHBOARD_PERIOD", "")
	os.Unsetenv("DASHBOARD_PERIOD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Period != "PMPK" {
		t.Errorf("period = %q, want PMPK", cfg.Period)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DataSource:       SourceCSV,
			Streets:          []string{"Dundas", "Queen"},
			CellThreshold:    1,
			SelectionHistory: 10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no streets", func(c *Config) { c.Streets = nil }, "at least one street"},
		{"empty street", func(c *Config) { c.Streets = []string{"Dundas", ""} }, "empty name"},
		{"duplicate street", func(c *Config) { c.Streets = []string{"Queen", "Queen"} }, "twice"},
		{"unknown source", func(c *Config) { c.DataSource = "excel" }, "unknown DATA_SOURCE"},
		{"postgres without url", func(c *Config) { c.DataSource = SourcePostgres }, "DATABASE_URL"},
		{"zero threshold", func(c *Config) { c.CellThreshold = 0 }, "CELL_THRESHOLD"},
		{"negative threshold", func(c *Config) { c.CellThreshold = -1 }, "CELL_THRESHOLD"},
		{"no history", func(c *Config) { c.SelectionHistory = 0 }, "SELECTION_HISTORY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
