package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Data sources accepted by DATA_SOURCE
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceMock     = "mock"
)

// Config holds the server settings read from the environment
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"GO_ENV" envDefault:"development"`

	DataSource     string `env:"DATA_SOURCE" envDefault:"csv"`
	CurrentCSV     string `env:"CURRENT_CSV" envDefault:"data/daily.csv"`
	BaselineCSV    string `env:"BASELINE_CSV" envDefault:"data/baselines.csv"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SQLiteDatabase string `env:"SQLITE_DATABASE" envDefault:"data/kingpilot.db"`

	Streets          []string `env:"STREETS" envSeparator:"," envDefault:"Dundas,Queen,Adelaide,Richmond,Wellington,Front"`
	Period           string   `env:"DASHBOARD_PERIOD" envDefault:"AMPK"`
	DayType          string   `env:"DASHBOARD_DAY_TYPE" envDefault:"Weekday"`
	CellThreshold    float64  `env:"CELL_THRESHOLD" envDefault:"1.0"`
	SelectionHistory int      `env:"SELECTION_HISTORY" envDefault:"50"`

	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	OtelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OtelEndpoint string `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and parses the environment
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	for i, s := range cfg.Streets {
		cfg.Streets[i] = strings.TrimSpace(s)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the dashboard unusable
func (c *Config) Validate() error {
	var errs []error

	if len(c.Streets) == 0 {
		errs = append(errs, errors.New("STREETS must list at least one street"))
	}
	seen := make(map[string]struct{}, len(c.Streets))
	for _, s := range c.Streets {
		if s == "" {
			errs = append(errs, errors.New("STREETS contains an empty name"))
			continue
		}
		if _, ok := seen[s]; ok {
			errs = append(errs, fmt.Errorf("STREETS lists %q twice", s))
		}
		seen[s] = struct{}{}
	}

	switch c.DataSource {
	case SourceCSV, SourceSQLite, SourceMock:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATA_SOURCE %q", c.DataSource))
	}

	if c.CellThreshold <= 0 {
		errs = append(errs, fmt.Errorf("CELL_THRESHOLD must be positive, got %v", c.CellThreshold))
	}
	if c.SelectionHistory < 1 {
		errs = append(errs, fmt.Errorf("SELECTION_HISTORY must be at least 1, got %d", c.SelectionHistory))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether GO_ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
