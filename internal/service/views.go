package service

import (
	"context"
	"fmt"
	"log"

	"github.com/smartcity/kingpilot/internal/aggregate"
	"github.com/smartcity/kingpilot/internal/derive"
	"github.com/smartcity/kingpilot/internal/domain"
	"github.com/smartcity/kingpilot/internal/selection"
)

// Graph nodes of the dashboard
const (
	KeySelection derive.Key = "selection"
	KeyParams    derive.Key = "params"
	KeySelected  derive.Key = "selected"
	KeyTable     derive.Key = "table"
	KeyRows      derive.Key = "rows"
	KeyRowStates derive.Key = "row_states"
	KeyChartEB   derive.Key = "chart_eb"
	KeyChartWB   derive.Key = "chart_wb"
)

// ViewParams are the filters of the dashboard view
type ViewParams struct {
	Period  string `json:"period"`
	DayType string `json:"day_type"`
}

// TableView is an annotated table with its completeness gaps
type TableView struct {
	Rows            []domain.TableRow `json:"rows"`
	Missing         []string          `json:"missing,omitempty"`
	MissingBaseline []string          `json:"missing_baseline,omitempty"`
}

const (
	chartXAxisTitle = "Date"
	chartYAxisTitle = "Travel Time (min)"
)

// NewDashboardGraph declares the dashboard views and their dependencies
func NewDashboardGraph(agg *aggregate.Aggregator, threshold float64) (*derive.Graph, error) {
	g := derive.New()
	streets := agg.Streets()

	err := g.Input(KeySelection, derive.WithEqual(func(a, b any) bool {
		return a.(selection.State).Equal(b.(selection.State))
	}))
	if err != nil {
		return nil, err
	}
	if err := g.Input(KeyParams, derive.Comparable()); err != nil {
		return nil, err
	}

	err = g.Node(KeySelected, []derive.Key{KeySelection}, func(ctx context.Context, d derive.Values) (any, error) {
		street, err := selection.Resolve(d[KeySelection].(selection.State))
		if err != nil {
			log.Printf("Dashboard: recovered selection: %v", err)
		}
		return street, nil
	}, derive.Comparable())
	if err != nil {
		return nil, err
	}

	err = g.Node(KeyTable, []derive.Key{KeyParams}, func(ctx context.Context, d derive.Values) (any, error) {
		p := d[KeyParams].(ViewParams)
		table := agg.Table(ctx, p.Period, p.DayType)
		return annotate(table, threshold), nil
	})
	if err != nil {
		return nil, err
	}

	err = g.Node(KeyRows, []derive.Key{KeyTable, KeySelected}, func(ctx context.Context, d derive.Values) (any, error) {
		return selectRows(d[KeyTable].(TableView).Rows, d[KeySelected].(string)), nil
	})
	if err != nil {
		return nil, err
	}

	err = g.Node(KeyRowStates, []derive.Key{KeySelected}, func(ctx context.Context, d derive.Values) (any, error) {
		return rowStates(streets, d[KeySelected].(string)), nil
	})
	if err != nil {
		return nil, err
	}

	if err := g.Node(KeyChartEB, []derive.Key{KeySelected, KeyParams}, chartFor(agg, domain.Eastbound)); err != nil {
		return nil, err
	}
	if err := g.Node(KeyChartWB, []derive.Key{KeySelected, KeyParams}, chartFor(agg, domain.Westbound)); err != nil {
		return nil, err
	}

	if err := g.Build(); err != nil {
		return nil, fmt.Errorf("dashboard: failed to build graph: %w", err)
	}
	return g, nil
}

func annotate(table domain.TableData, threshold float64) TableView {
	return TableView{
		Rows:            aggregate.Annotate(table, threshold),
		Missing:         table.Missing,
		MissingBaseline: table.MissingBaseline,
	}
}

// selectRows returns a copy of rows with the selection's row classes applied
func selectRows(rows []domain.TableRow, selected string) []domain.TableRow {
	out := make([]domain.TableRow, len(rows))
	for i, r := range rows {
		r.Class = aggregate.RowClassFor(r.Street, selected)
		out[i] = r
	}
	return out
}

func rowStates(streets []string, selected string) []domain.RowState {
	out := make([]domain.RowState, 0, len(streets))
	for _, street := range streets {
		out = append(out, domain.RowState{Street: street, Class: aggregate.RowClassFor(street, selected)})
	}
	return out
}

func chartFor(agg *aggregate.Aggregator, dir domain.Direction) derive.ComputeFunc {
	return func(ctx context.Context, d derive.Values) (any, error) {
		p := d[KeyParams].(ViewParams)
		return buildChart(agg, d[KeySelected].(string), dir, p), nil
	}
}

func buildChart(agg *aggregate.Aggregator, street string, dir domain.Direction, p ViewParams) domain.Chart {
	series := agg.Series(street, dir, p.Period, p.DayType)
	return domain.Chart{
		Street:     street,
		Direction:  dir,
		Title:      dir.Label(),
		XAxisTitle: chartXAxisTitle,
		YAxisTitle: chartYAxisTitle,
		Current:    series.Current,
		Baseline:   series.Baseline,
	}
}
