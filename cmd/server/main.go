package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/smartcity/kingpilot/internal/aggregate"
	"github.com/smartcity/kingpilot/internal/cache"
	"github.com/smartcity/kingpilot/internal/config"
	"github.com/smartcity/kingpilot/internal/dataset"
	"github.com/smartcity/kingpilot/internal/delivery/http"
	"github.com/smartcity/kingpilot/internal/hub"
	"github.com/smartcity/kingpilot/internal/repository/csvfile"
	"github.com/smartcity/kingpilot/internal/repository/postgres"
	"github.com/smartcity/kingpilot/internal/repository/sqlite"
	"github.com/smartcity/kingpilot/internal/selection"
	"github.com/smartcity/kingpilot/internal/service"
	"github.com/smartcity/kingpilot/internal/telemetry"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, "kingpilot-dashboard", cfg.OtelEndpoint, cfg.OtelEnabled)
	if err != nil {
		log.Printf("Warning: tracing disabled: %v", err)
	}
	defer shutdownTracing(context.Background())

	checks := make(map[string]http.HealthCheck)

	// Dataset
	src, err := openSource(ctx, cfg, checks)
	if err != nil {
		log.Fatalf("Data source error: %v", err)
	}
	defer src.Close()

	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	data, err := dataset.Load(loadCtx, src)
	cancelLoad()
	if err != nil {
		log.Fatalf("Dataset unavailable: %v", err)
	}

	// Table cache
	var aggOpts []aggregate.Option
	if cfg.RedisEnabled {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: Could not connect to Redis: %v", err)
			log.Println("Running without table cache")
		} else {
			defer rc.Close()
			// Tables cached from an earlier dataset are stale
			if _, err := rc.DeletePattern(ctx, "table:*"); err != nil {
				log.Printf("Warning: %v", err)
			}
			aggOpts = append(aggOpts, aggregate.WithCache(rc, cfg.CacheTTL))
			checks["cache"] = rc.Health
			log.Println("Connected to Redis")
		}
	}

	// Dependency Injection: Services
	store, err := selection.NewStore(cfg.Streets, cfg.SelectionHistory)
	if err != nil {
		log.Fatalf("Selection store error: %v", err)
	}
	aggregator := aggregate.NewAggregator(data, cfg.Streets, aggOpts...)
	dashboardSvc, err := service.NewDashboardService(data, store, aggregator, service.Options{
		Params:    service.ViewParams{Period: cfg.Period, DayType: cfg.DayType},
		Threshold: cfg.CellThreshold,
	})
	if err != nil {
		log.Fatalf("Dashboard error: %v", err)
	}

	streams := hub.NewHub()
	go streams.Run(ctx)
	dashboardSvc.AddRenderer(streams)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "King Street Pilot Dashboard v1.0",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, dashboardSvc, streams, checks)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	// Closing the hub ends open event streams before the server drains
	stop()
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}

// openSource connects the configured measurement source and registers its
// health check when it has one
func openSource(ctx context.Context, cfg *config.Config, checks map[string]http.HealthCheck) (service.MeasurementSource, error) {
	switch cfg.DataSource {
	case config.SourcePostgres:
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		repo, err := postgres.Connect(connCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		checks["database"] = repo.Health
		log.Println("Connected to PostgreSQL")
		return repo, nil

	case config.SourceSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLiteDatabase)
		if err != nil {
			return nil, err
		}
		checks["database"] = repo.Health
		log.Printf("Opened SQLite database %s", cfg.SQLiteDatabase)
		return repo, nil

	case config.SourceMock:
		log.Println("Running with mock data only")
		return postgres.NewMockRepository(cfg.Streets), nil
	}

	log.Printf("Reading CSV files %s and %s", cfg.CurrentCSV, cfg.BaselineCSV)
	return csvfile.NewSource(cfg.CurrentCSV, cfg.BaselineCSV), nil
}
