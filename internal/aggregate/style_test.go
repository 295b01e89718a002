package aggregate

import (
	"testing"

	"github.com/smartcity/kingpilot/internal/domain"
)

func TestCellClassThreshold(t *testing.T) {
	tests := []struct {
		before, after float64
		want          domain.CellClass
	}{
		{10, 11, domain.CellSame},
		{10, 11.01, domain.CellWorse},
		{10, 8.99, domain.CellBetter},
		{10, 9, domain.CellSame},
		{10, 10, domain.CellSame},
	}
	for _, tt := range tests {
		if got := CellClassFor(tt.before, tt.after, DefaultThreshold); got != tt.want {
			t.Errorf("CellClassFor(%v, %v) = %s, want %s", tt.before, tt.after, got, tt.want)
		}
	}
}

func TestRowClassFor(t *testing.T) {
	if RowClassFor("Queen", "Queen") != domain.RowSelected {
		t.Error("selected street should be styled selected")
	}
	if RowClassFor("Front", "Queen") != domain.RowNotSelected {
		t.Error("other street should be styled notselected")
	}
}

func TestAnnotateJoinsByStreet(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	table := domain.TableData{
		Current: []domain.AggregatedRow{
			{Street: "Dundas", EB: f(12), WB: f(9)},
			{Street: "Queen", EB: f(10), WB: nil},
		},
		Baseline: []domain.AggregatedRow{
			{Street: "Queen", EB: f(10.5), WB: f(8)},
			{Street: "Dundas", EB: f(10), WB: f(10.5)},
		},
	}

	rows := Annotate(table, DefaultThreshold)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Street != "Dundas" || rows[0].Eastbound.Class != domain.CellWorse || rows[0].Westbound.Class != domain.CellBetter {
		t.Errorf("unexpected Dundas row %+v", rows[0])
	}
	if rows[1].Eastbound.Class != domain.CellSame {
		t.Errorf("Queen EB class = %s, want same", rows[1].Eastbound.Class)
	}
	if rows[1].Westbound.Class != domain.CellNoData {
		t.Errorf("Queen WB class = %s, want nodata", rows[1].Westbound.Class)
	}
	if rows[0].Class != domain.RowNotSelected {
		t.Errorf("rows should start unselected, got %s", rows[0].Class)
	}
}
