package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/smartcity/kingpilot/internal/aggregate"
	"github.com/smartcity/kingpilot/internal/dataset"
	"github.com/smartcity/kingpilot/internal/derive"
	"github.com/smartcity/kingpilot/internal/domain"
	"github.com/smartcity/kingpilot/internal/selection"
)

// Options configures the dashboard service
type Options struct {
	Params    ViewParams
	Threshold float64
}

// DashboardService owns the selection state and recomputes the dashboard
// views after every transition
type DashboardService struct {
	data       *dataset.Store
	store      *selection.Store
	aggregator *aggregate.Aggregator
	graph      *derive.Graph
	params     ViewParams
	threshold  float64
	tracer     trace.Tracer

	mu        sync.Mutex // serializes transition, evaluation and publication
	renderers []Renderer

	viewMu sync.RWMutex
	result *derive.Result
	view   domain.DashboardView
}

// NewDashboardService creates a new dashboard service and computes the
// initial view
func NewDashboardService(
	data *dataset.Store,
	store *selection.Store,
	aggregator *aggregate.Aggregator,
	opts Options,
) (*DashboardService, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = aggregate.DefaultThreshold
	}
	graph, err := NewDashboardGraph(aggregator, opts.Threshold)
	if err != nil {
		return nil, err
	}

	s := &DashboardService{
		data:       data,
		store:      store,
		aggregator: aggregator,
		graph:      graph,
		params:     opts.Params,
		threshold:  opts.Threshold,
		tracer:     otel.Tracer("github.com/smartcity/kingpilot/internal/service"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.recompute(context.Background(), store.Snapshot()); err != nil {
		return nil, err
	}
	return s, nil
}

// AddRenderer registers a renderer for every subsequent view
func (s *DashboardService) AddRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderers = append(s.renderers, r)
}

// View returns the latest computed view
func (s *DashboardService) View() domain.DashboardView {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

// ApplyClicks feeds a click report through the reducer and recomputes the
// views. changed is false when the report matched the stored counters.
func (s *DashboardService) ApplyClicks(ctx context.Context, report []selection.ClickCount) (domain.DashboardView, bool, error) {
	ctx, span := s.tracer.Start(ctx, "DashboardService.ApplyClicks",
		trace.WithAttributes(attribute.Int("report.size", len(report))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, changed, err := s.store.Apply(report)
	if err != nil {
		span.RecordError(err)
		return s.View(), false, err
	}
	if !changed {
		return s.View(), false, nil
	}

	span.SetAttributes(
		attribute.Int64("selection.generation", int64(snap.Generation)),
		attribute.String("selection.selected", snap.Selected),
	)
	view, err := s.recompute(ctx, snap)
	if err != nil {
		span.RecordError(err)
		return s.View(), false, err
	}
	return view, true, nil
}

// ResetSelection restores the initial selection
func (s *DashboardService) ResetSelection(ctx context.Context) (domain.DashboardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recompute(ctx, s.store.Reset())
}

// Selection returns the latest selection snapshot
func (s *DashboardService) Selection() selection.Snapshot {
	return s.store.Snapshot()
}

// History returns recent selection transitions, newest first
func (s *DashboardService) History(limit int) []selection.Snapshot {
	return s.store.History(limit)
}

// Table returns an annotated table for arbitrary filters. Row classes follow
// the current selection.
func (s *DashboardService) Table(ctx context.Context, params ViewParams) TableView {
	view := annotate(s.aggregator.Table(ctx, params.Period, params.DayType), s.threshold)
	view.Rows = selectRows(view.Rows, s.View().Selected)
	return view
}

// Chart returns chart data for any known street and direction
func (s *DashboardService) Chart(street string, dir domain.Direction, params ViewParams) (domain.Chart, error) {
	if _, ok := s.store.Snapshot().State.Get(street); !ok {
		return domain.Chart{}, domain.New(domain.CodeUnknownStreet, fmt.Sprintf("unknown street %q", street))
	}
	if !dir.Valid() {
		return domain.Chart{}, domain.New(domain.CodeUnknownDirection, fmt.Sprintf("unknown direction %q", dir))
	}
	return buildChart(s.aggregator, street, dir, params), nil
}

// Filters lists the values a client can query with
type Filters struct {
	Streets    []string          `json:"streets"`
	Directions []DirectionOption `json:"directions"`
	Periods    []string          `json:"periods"`
	DayTypes   []string          `json:"day_types"`
	Default    ViewParams        `json:"default"`
}

// DirectionOption pairs a direction code with its label
type DirectionOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Filters returns the available filter values
func (s *DashboardService) Filters() Filters {
	dirs := make([]DirectionOption, 0, 2)
	for _, d := range domain.Directions() {
		dirs = append(dirs, DirectionOption{Code: d.Code(), Label: d.Label()})
	}
	return Filters{
		Streets:    s.aggregator.Streets(),
		Directions: dirs,
		Periods:    s.data.Periods(),
		DayTypes:   s.data.DayTypes(),
		Default:    s.params,
	}
}

// DatasetCounts returns the number of loaded rows per collection
func (s *DashboardService) DatasetCounts() map[domain.Collection]int {
	counts := make(map[domain.Collection]int, 2)
	for _, c := range domain.Collections() {
		counts[c] = s.data.Count(c)
	}
	return counts
}

// recompute evaluates the graph for snap, stores the view and publishes it.
// snap is already committed, so caller cancellation must not stop its
// publication. Must be called with mu held.
func (s *DashboardService) recompute(ctx context.Context, snap selection.Snapshot) (domain.DashboardView, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "DashboardService.recompute",
		trace.WithAttributes(attribute.Int64("selection.generation", int64(snap.Generation))))
	defer span.End()

	s.viewMu.RLock()
	prev := s.result
	s.viewMu.RUnlock()

	res, err := s.graph.Evaluate(ctx, snap.Generation, map[derive.Key]any{
		KeySelection: snap.State,
		KeyParams:    s.params,
	}, prev)
	if err != nil {
		span.RecordError(err)
		return domain.DashboardView{}, fmt.Errorf("dashboard: failed to evaluate views: %w", err)
	}

	view := assemble(res, snap, s.params)
	span.SetAttributes(attribute.Int("views.recomputed", len(res.Recomputed)))

	s.viewMu.Lock()
	s.result = res
	s.view = view
	s.viewMu.Unlock()

	for _, r := range s.renderers {
		if err := r.Render(ctx, view); err != nil {
			log.Printf("Dashboard: renderer failed for generation %d: %v", view.Generation, err)
		}
	}
	return view, nil
}

func assemble(res *derive.Result, snap selection.Snapshot, params ViewParams) domain.DashboardView {
	selected, _ := derive.Get[string](res, KeySelected)
	table, _ := derive.Get[TableView](res, KeyTable)
	rows, _ := derive.Get[[]domain.TableRow](res, KeyRows)
	states, _ := derive.Get[[]domain.RowState](res, KeyRowStates)
	eb, _ := derive.Get[domain.Chart](res, KeyChartEB)
	wb, _ := derive.Get[domain.Chart](res, KeyChartWB)

	// the graph shares slices across generations; clicks are per snapshot
	withClicks := make([]domain.RowState, len(states))
	for i, st := range states {
		if e, ok := snap.State.Get(st.Street); ok {
			st.Clicks = e.Clicks
		}
		withClicks[i] = st
	}

	changed := make([]string, 0, len(res.Changed))
	for _, k := range res.Changed {
		changed = append(changed, string(k))
	}

	return domain.DashboardView{
		Generation:      snap.Generation,
		TransitionID:    snap.TransitionID,
		Selected:        selected,
		Period:          params.Period,
		DayType:         params.DayType,
		RowStates:       withClicks,
		Rows:            rows,
		Missing:         table.Missing,
		MissingBaseline: table.MissingBaseline,
		Charts:          []domain.Chart{eb, wb},
		Changed:         changed,
		UpdatedAt:       snap.At,
	}
}
