package dataset

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/smartcity/kingpilot/internal/domain"
)

// Store holds the current and baseline collections. It is read-only after
// construction and safe for concurrent use.
type Store struct {
	collections map[domain.Collection][]domain.Measurement
}

// New builds a store from already loaded collections.
// Both collections must be non-empty.
func New(current, baseline []domain.Measurement) (*Store, error) {
	s := &Store{collections: make(map[domain.Collection][]domain.Measurement, 2)}
	for i, rows := range [][]domain.Measurement{current, baseline} {
		c := domain.Collections()[i]
		if len(rows) == 0 {
			return nil, domain.New(domain.CodeDataUnavailable, fmt.Sprintf("dataset: %s collection is empty", c))
		}
		s.collections[c] = sortedCopy(rows)
	}
	return s, nil
}

// Load reads both collections from src. Any failure is DataUnavailable;
// there is no partial load.
func Load(ctx context.Context, src domain.MeasurementSource) (*Store, error) {
	loaded := make(map[domain.Collection][]domain.Measurement, 2)
	for _, c := range domain.Collections() {
		rows, err := src.Load(ctx, c)
		if err != nil {
			return nil, domain.Wrap(domain.CodeDataUnavailable, fmt.Sprintf("dataset: failed to load %s", c), err)
		}
		log.Printf("Dataset: loaded %d %s measurements", len(rows), c)
		loaded[c] = rows
	}
	return New(loaded[domain.CollectionCurrent], loaded[domain.CollectionBaseline])
}

// Query returns the measurements of collection c matching f, ordered by date
// ascending. The result is a fresh slice; never nil.
func (s *Store) Query(c domain.Collection, f domain.Filter) []domain.Measurement {
	result := make([]domain.Measurement, 0)
	for _, m := range s.collections[c] {
		if f.Matches(m) {
			result = append(result, m)
		}
	}
	return result
}

// Find is Query that reports an empty match as NoMatchingData
func (s *Store) Find(c domain.Collection, f domain.Filter) ([]domain.Measurement, error) {
	rows := s.Query(c, f)
	if len(rows) == 0 {
		return rows, domain.Wrap(domain.CodeNoMatchingData,
			fmt.Sprintf("dataset: no %s rows for %s %s %s/%s", c, f.Street, f.Direction, f.Period, f.DayType), nil)
	}
	return rows, nil
}

// Count returns the number of rows in collection c
func (s *Store) Count(c domain.Collection) int {
	return len(s.collections[c])
}

// Periods returns the distinct periods of the current collection, sorted
func (s *Store) Periods() []string {
	return s.distinct(func(m domain.Measurement) string { return m.Period })
}

// DayTypes returns the distinct day types of the current collection, sorted
func (s *Store) DayTypes() []string {
	return s.distinct(func(m domain.Measurement) string { return m.DayType })
}

func (s *Store) distinct(field func(domain.Measurement) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.collections[domain.CollectionCurrent] {
		v := field(m)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// sortedCopy orders rows by date, keeping load order for equal dates
func sortedCopy(rows []domain.Measurement) []domain.Measurement {
	out := make([]domain.Measurement, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
