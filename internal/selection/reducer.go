package selection

// Reduce applies a click report to prev. A street whose reported counter is
// greater than its stored counter becomes selected and takes the new counter;
// every other street, including streets absent from the report, is
// unselected with its counter unchanged. Several increases in one report
// select several streets; Resolve breaks the tie. Streets unknown to prev are
// ignored.
func Reduce(prev State, report []ClickCount) State {
	reported := make(map[string]int, len(report))
	for _, c := range report {
		reported[c.Street] = c.Clicks
	}

	next := State{
		order:   prev.order,
		entries: make(map[string]Entry, len(prev.entries)),
	}
	for _, street := range prev.order {
		entry := prev.entries[street]
		if clicks, ok := reported[street]; ok && clicks > entry.Clicks {
			entry.Clicks = clicks
			entry.Selected = true
		} else {
			entry.Selected = false
		}
		next.entries[street] = entry
	}
	return next
}
