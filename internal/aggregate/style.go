package aggregate

import "github.com/smartcity/kingpilot/internal/domain"

// DefaultThreshold is the travel-time difference, in minutes, beyond which a
// cell is styled better or worse
const DefaultThreshold = 1.0

// CellClassFor compares a current value against its baseline
func CellClassFor(before, after, threshold float64) domain.CellClass {
	switch diff := after - before; {
	case diff > threshold:
		return domain.CellWorse
	case diff < -threshold:
		return domain.CellBetter
	default:
		return domain.CellSame
	}
}

// RowClassFor styles the row of street given the selected street
func RowClassFor(street, selected string) domain.RowClass {
	if street == selected {
		return domain.RowSelected
	}
	return domain.RowNotSelected
}

// Annotate joins current and baseline rows by street and classifies every
// cell. Row classes are left unselected; callers apply the selection.
func Annotate(table domain.TableData, threshold float64) []domain.TableRow {
	baseline := make(map[string]domain.AggregatedRow, len(table.Baseline))
	for _, r := range table.Baseline {
		baseline[r.Street] = r
	}

	rows := make([]domain.TableRow, 0, len(table.Current))
	for _, cur := range table.Current {
		base := baseline[cur.Street]
		rows = append(rows, domain.TableRow{
			Street:    cur.Street,
			Class:     domain.RowNotSelected,
			Eastbound: cell(base.Value(domain.Eastbound), cur.Value(domain.Eastbound), threshold),
			Westbound: cell(base.Value(domain.Westbound), cur.Value(domain.Westbound), threshold),
		})
	}
	return rows
}

func cell(before, after *float64, threshold float64) domain.Cell {
	c := domain.Cell{After: after, Baseline: before, Class: domain.CellNoData}
	if before != nil && after != nil {
		c.Class = CellClassFor(*before, *after, threshold)
	}
	return c
}
