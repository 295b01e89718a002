package selection

import (
	"fmt"

	"github.com/smartcity/kingpilot/internal/domain"
)

// Entry is the interaction record for one street
type Entry struct {
	Clicks   int  `json:"n_clicks"`
	Selected bool `json:"clicked"`
}

// NamedEntry pairs an entry with its street
type NamedEntry struct {
	Street string `json:"street"`
	Entry
}

// ClickCount is one street's latest observed click counter
type ClickCount struct {
	Street string `json:"street"`
	Clicks int    `json:"clicks"`
}

// State is an ordered, immutable mapping street -> Entry. Methods never
// mutate the receiver; Reduce returns a new State.
type State struct {
	order   []string
	entries map[string]Entry
}

// Initial returns the startup state: the first street has one click and is
// selected, every other street is zero and unselected.
func Initial(streets []string) State {
	s := State{
		order:   append([]string(nil), streets...),
		entries: make(map[string]Entry, len(streets)),
	}
	for i, street := range streets {
		if i == 0 {
			s.entries[street] = Entry{Clicks: 1, Selected: true}
		} else {
			s.entries[street] = Entry{}
		}
	}
	return s
}

// FromEntries builds a state from explicit entries in canonical order
func FromEntries(entries []NamedEntry) State {
	s := State{
		order:   make([]string, 0, len(entries)),
		entries: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		s.order = append(s.order, e.Street)
		s.entries[e.Street] = e.Entry
	}
	return s
}

// Streets returns the canonical street order
func (s State) Streets() []string {
	return append([]string(nil), s.order...)
}

// Default returns the designated fallback street
func (s State) Default() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

// Get returns the entry for street
func (s State) Get(street string) (Entry, bool) {
	e, ok := s.entries[street]
	return e, ok
}

// Entries returns all entries in canonical order
func (s State) Entries() []NamedEntry {
	out := make([]NamedEntry, 0, len(s.order))
	for _, street := range s.order {
		out = append(out, NamedEntry{Street: street, Entry: s.entries[street]})
	}
	return out
}

// SelectedStreets returns every street flagged selected, in canonical order
func (s State) SelectedStreets() []string {
	var out []string
	for _, street := range s.order {
		if s.entries[street].Selected {
			out = append(out, street)
		}
	}
	return out
}

// Equal reports whether both states hold the same entries in the same order
func (s State) Equal(other State) bool {
	if len(s.order) != len(other.order) {
		return false
	}
	for i, street := range s.order {
		if other.order[i] != street || other.entries[street] != s.entries[street] {
			return false
		}
	}
	return true
}

// Resolve returns the selected street: the first flagged street in canonical
// order, or the default street when none is flagged. A non-nil error reports
// an invariant violation that the fallback already recovered from.
func Resolve(s State) (string, error) {
	selected := s.SelectedStreets()
	switch len(selected) {
	case 1:
		return selected[0], nil
	case 0:
		return s.Default(), domain.Wrap(domain.CodeInvariantViolation,
			fmt.Sprintf("no street selected, falling back to %s", s.Default()), nil)
	default:
		return selected[0], domain.Wrap(domain.CodeInvariantViolation,
			fmt.Sprintf("%d streets selected %v, keeping %s", len(selected), selected, selected[0]), nil)
	}
}
