package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/kingpilot/internal/hub"
	"github.com/smartcity/kingpilot/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, dashboardSvc *service.DashboardService, streams *hub.Hub, checks map[string]HealthCheck) {
	handler := NewHandler(dashboardSvc, streams, checks)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Dashboard view and interaction
		api.Get("/dashboard", handler.GetDashboard)
		api.Post("/clicks", handler.PostClicks)
		api.Get("/stream", handler.Stream)

		// Selection state
		api.Get("/selection", handler.GetSelection)
		api.Get("/selection/history", handler.GetSelectionHistory)
		api.Post("/selection/reset", handler.ResetSelection)

		// Ad-hoc queries
		api.Get("/table", handler.GetTable)
		api.Get("/series/:street/:direction", handler.GetSeries)
		api.Get("/filters", handler.GetFilters)
	}
}
