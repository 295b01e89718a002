package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/kingpilot/internal/domain"
	"github.com/smartcity/kingpilot/internal/hub"
	"github.com/smartcity/kingpilot/internal/selection"
	"github.com/smartcity/kingpilot/internal/service"
	"github.com/smartcity/kingpilot/pkg/utils"
)

// HealthCheck probes one optional dependency such as the database or cache
type HealthCheck func(ctx context.Context) error

// Handler contains all HTTP handlers
type Handler struct {
	dashboardSvc *service.DashboardService
	streams      *hub.Hub
	checks       map[string]HealthCheck
}

// NewHandler creates a new handler
func NewHandler(dashboardSvc *service.DashboardService, streams *hub.Hub, checks map[string]HealthCheck) *Handler {
	return &Handler{
		dashboardSvc: dashboardSvc,
		streams:      streams,
		checks:       checks,
	}
}

// ClickRequest is the body of POST /clicks. Either form may be used; a
// report list takes precedence over the map.
type ClickRequest struct {
	Clicks map[string]int         `json:"clicks"`
	Report []selection.ClickCount `json:"report"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	deps := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = "degraded"
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}

	counts := h.dashboardSvc.DatasetCounts()
	return c.JSON(fiber.Map{
		"status":       status,
		"service":      "kingpilot-dashboard",
		"version":      "1.0.0",
		"dependencies": deps,
		"dataset": fiber.Map{
			"current":  counts[domain.CollectionCurrent],
			"baseline": counts[domain.CollectionBaseline],
		},
		"stream_clients": h.streams.ClientCount(),
	})
}

// GetDashboard returns the latest dashboard view
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.dashboardSvc.View(),
	})
}

// PostClicks applies a click report and returns the resulting view
func (h *Handler) PostClicks(c *fiber.Ctx) error {
	var req ClickRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	view, changed, err := h.dashboardSvc.ApplyClicks(c.UserContext(), h.report(req))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"changed": changed,
		"data":    view,
	})
}

// report orders the map form by the configured streets; names the dashboard
// does not know are appended so validation can reject them
func (h *Handler) report(req ClickRequest) []selection.ClickCount {
	if len(req.Report) > 0 {
		return req.Report
	}
	report := make([]selection.ClickCount, 0, len(req.Clicks))
	known := make(map[string]struct{})
	for _, street := range h.dashboardSvc.Filters().Streets {
		known[street] = struct{}{}
		if n, ok := req.Clicks[street]; ok {
			report = append(report, selection.ClickCount{Street: street, Clicks: n})
		}
	}
	for street, n := range req.Clicks {
		if _, ok := known[street]; !ok {
			report = append(report, selection.ClickCount{Street: street, Clicks: n})
		}
	}
	return report
}

// ResetSelection restores the initial selection
func (h *Handler) ResetSelection(c *fiber.Ctx) error {
	view, err := h.dashboardSvc.ResetSelection(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// GetSelection returns the current selection snapshot
func (h *Handler) GetSelection(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.dashboardSvc.Selection(),
	})
}

// GetSelectionHistory returns recent selection transitions, newest first
func (h *Handler) GetSelectionHistory(c *fiber.Ctx) error {
	limit := utils.Clamp(c.QueryInt("limit", 10), 1, selection.DefaultHistoryLimit)

	data := h.dashboardSvc.History(limit)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetTable returns the annotated travel-time table for any period and day type
func (h *Handler) GetTable(c *fiber.Ctx) error {
	params := h.params(c)
	table := h.dashboardSvc.Table(c.UserContext(), params)
	return c.JSON(fiber.Map{
		"success":          true,
		"period":           params.Period,
		"day_type":         params.DayType,
		"data":             table.Rows,
		"missing":          table.Missing,
		"missing_baseline": table.MissingBaseline,
	})
}

// GetSeries returns chart data for one street and direction
func (h *Handler) GetSeries(c *fiber.Ctx) error {
	dir, err := domain.ParseDirection(c.Params("direction"))
	if err != nil {
		return err
	}
	chart, err := h.dashboardSvc.Chart(c.Params("street"), dir, h.params(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    chart,
	})
}

// GetFilters returns the streets, directions, periods and day types
func (h *Handler) GetFilters(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.dashboardSvc.Filters(),
	})
}

// params reads period and day_type, defaulting to the dashboard's own
func (h *Handler) params(c *fiber.Ctx) service.ViewParams {
	def := h.dashboardSvc.Filters().Default
	return service.ViewParams{
		Period:  c.Query("period", def.Period),
		DayType: c.Query("day_type", def.DayType),
	}
}
