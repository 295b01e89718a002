package domain

import "time"

// AggregatedRow holds mean travel times for one street, one column per direction.
// A direction without data is nil.
type AggregatedRow struct {
	Street string   `json:"street"`
	EB     *float64 `json:"EB"`
	WB     *float64 `json:"WB"`
}

// Value returns the column for direction d
func (r AggregatedRow) Value(d Direction) *float64 {
	switch d {
	case Eastbound:
		return r.EB
	case Westbound:
		return r.WB
	}
	return nil
}

// TableData is the aggregated table for one (period, day type)
type TableData struct {
	Period   string          `json:"period"`
	DayType  string          `json:"day_type"`
	Current  []AggregatedRow `json:"current"`
	Baseline []AggregatedRow `json:"baseline"`
	// Missing lists canonical streets with no current data for the filters
	Missing []string `json:"missing,omitempty"`
	// MissingBaseline lists canonical streets with no baseline data
	MissingBaseline []string `json:"missing_baseline,omitempty"`
}

// CellClass styles a (baseline, current) pair
type CellClass string

const (
	CellWorse  CellClass = "worse"
	CellBetter CellClass = "better"
	CellSame   CellClass = "same"
	CellNoData CellClass = "nodata"
)

// RowClass styles a table row
type RowClass string

const (
	RowSelected    RowClass = "selected"
	RowNotSelected RowClass = "notselected"
)

// Cell is one direction of a table row
type Cell struct {
	After    *float64  `json:"after"`
	Baseline *float64  `json:"baseline"`
	Class    CellClass `json:"class"`
}

// TableRow is a rendered row of the travel-time table
type TableRow struct {
	Street    string   `json:"street"`
	Class     RowClass `json:"class"`
	Eastbound Cell     `json:"eastbound"`
	Westbound Cell     `json:"westbound"`
}

// RowState is the selection styling for one street
type RowState struct {
	Street string   `json:"street"`
	Class  RowClass `json:"class"`
	Clicks int      `json:"n_clicks"`
}

// Point is one bar of a time-series chart
type Point struct {
	Date       time.Time `json:"date"`
	TravelTime float64   `json:"tt"`
}

// SeriesPair holds the current and baseline series for one street and direction
type SeriesPair struct {
	Current  []Point `json:"current"`
	Baseline []Point `json:"baseline"`
}

// Chart is the data for one direction's bar chart
type Chart struct {
	Street     string    `json:"street"`
	Direction  Direction `json:"direction"`
	Title      string    `json:"title"`
	XAxisTitle string    `json:"xaxis_title"`
	YAxisTitle string    `json:"yaxis_title"`
	Current    []Point   `json:"current"`
	Baseline   []Point   `json:"baseline"`
}

// DashboardView is everything a renderer needs after a state transition
type DashboardView struct {
	Generation   uint64     `json:"generation"`
	TransitionID string     `json:"transition_id"`
	Selected     string     `json:"selected"`
	Period       string     `json:"period"`
	DayType      string     `json:"day_type"`
	RowStates    []RowState `json:"row_states"`
	Rows         []TableRow `json:"rows"`
	Missing      []string   `json:"missing,omitempty"`
	// MissingBaseline names streets whose cells have no baseline to compare
	MissingBaseline []string `json:"missing_baseline,omitempty"`
	Charts          []Chart  `json:"charts"`
	// Changed names the views whose content changed in this generation
	Changed   []string  `json:"changed"`
	UpdatedAt time.Time `json:"updated_at"`
}
