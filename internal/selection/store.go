package selection

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartcity/kingpilot/internal/domain"
)

// DefaultHistoryLimit bounds the transition history kept in memory
const DefaultHistoryLimit = 50

// Snapshot is one committed selection generation. Snapshots are immutable.
type Snapshot struct {
	Generation   uint64    `json:"generation"`
	TransitionID string    `json:"transition_id"`
	State        State     `json:"state"`
	Selected     string    `json:"selected"`
	At           time.Time `json:"at"`
}

// MarshalJSON encodes the state as an ordered list of entries
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

// Store owns the selection state. Transitions are serialized; reads return
// immutable snapshots and never observe a half-applied reduction.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
	history []Snapshot
	limit   int
	streets []string
	now     func() time.Time
}

// NewStore creates a store in the initial state for the given canonical streets
func NewStore(streets []string, historyLimit int) (*Store, error) {
	if len(streets) == 0 {
		return nil, fmt.Errorf("selection: at least one street is required")
	}
	seen := make(map[string]struct{}, len(streets))
	for _, street := range streets {
		if street == "" {
			return nil, fmt.Errorf("selection: empty street name")
		}
		if _, dup := seen[street]; dup {
			return nil, fmt.Errorf("selection: duplicate street %q", street)
		}
		seen[street] = struct{}{}
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	s := &Store{
		limit:   historyLimit,
		streets: append([]string(nil), streets...),
		now:     time.Now,
	}
	s.commit(Initial(s.streets))
	return s, nil
}

// Snapshot returns the latest committed generation
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply reduces report into the current state and commits the result as a new
// generation. A report that matches the stored counters is a no-op and returns
// the current snapshot with changed=false.
func (s *Store) Apply(report []ClickCount) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.State
	if err := Validate(prev, report); err != nil {
		return s.current, false, err
	}
	if unchanged(prev, report) {
		return s.current, false, nil
	}

	return s.commit(Reduce(prev, report)), true, nil
}

// Reset restores the initial state as a new generation
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(Initial(s.streets))
}

// History returns up to limit most recent snapshots, newest first
func (s *Store) History(limit int) []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]Snapshot, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// commit must be called with mu held. Invariant violations are recovered
// here silently; the dashboard's selected view reports them.
func (s *Store) commit(next State) Snapshot {
	selected, _ := Resolve(next)

	s.current = Snapshot{
		Generation:   s.current.Generation + 1,
		TransitionID: uuid.New().String(),
		State:        next,
		Selected:     selected,
		At:           s.now(),
	}

	s.history = append(s.history, s.current)
	if len(s.history) > s.limit {
		s.history = append([]Snapshot(nil), s.history[len(s.history)-s.limit:]...)
	}
	return s.current
}

// Validate rejects reports naming unknown streets or carrying negative counters
func Validate(state State, report []ClickCount) error {
	if len(report) == 0 {
		return domain.New(domain.CodeInvalidClickReport, "click report is empty")
	}
	seen := make(map[string]struct{}, len(report))
	for _, c := range report {
		if _, ok := state.Get(c.Street); !ok {
			return domain.New(domain.CodeInvalidClickReport, fmt.Sprintf("unknown street %q in click report", c.Street))
		}
		if _, dup := seen[c.Street]; dup {
			return domain.New(domain.CodeInvalidClickReport, fmt.Sprintf("street %q reported twice", c.Street))
		}
		seen[c.Street] = struct{}{}
		if c.Clicks < 0 {
			return domain.New(domain.CodeInvalidClickReport, fmt.Sprintf("negative click count for %q", c.Street))
		}
	}
	return nil
}

func unchanged(state State, report []ClickCount) bool {
	for _, c := range report {
		if e, _ := state.Get(c.Street); e.Clicks != c.Clicks {
			return false
		}
	}
	return true
}
