package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/smartcity/kingpilot/internal/dataset"
	"github.com/smartcity/kingpilot/internal/domain"
	"github.com/smartcity/kingpilot/pkg/utils"
)

// TableCache memoizes aggregated tables. It is never authoritative.
type TableCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Aggregator derives tables and series from the dataset store
type Aggregator struct {
	store   *dataset.Store
	streets []string
	cache   TableCache
	ttl     time.Duration
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithCache enables table caching
func WithCache(cache TableCache, ttl time.Duration) Option {
	return func(a *Aggregator) {
		a.cache = cache
		a.ttl = ttl
	}
}

// NewAggregator creates an aggregator over store using the canonical street order
func NewAggregator(store *dataset.Store, streets []string, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:   store,
		streets: append([]string(nil), streets...),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Streets returns the canonical street order
func (a *Aggregator) Streets() []string {
	return append([]string(nil), a.streets...)
}

// Table returns mean travel times per street and direction for both collections.
// Rows follow the canonical street order; streets outside it are dropped and
// canonical streets without current data are listed in Missing, those
// without baseline data in MissingBaseline.
func (a *Aggregator) Table(ctx context.Context, period, dayType string) domain.TableData {
	key := tableKey(period, dayType)
	if a.cache != nil {
		var cached domain.TableData
		found, err := a.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Printf("Aggregate: cache read failed for %s: %v", key, err)
		} else if found {
			return cached
		}
	}

	current, missing := a.pivot(domain.CollectionCurrent, period, dayType)
	baseline, missingBaseline := a.pivot(domain.CollectionBaseline, period, dayType)
	table := domain.TableData{
		Period:          period,
		DayType:         dayType,
		Current:         current,
		Baseline:        baseline,
		Missing:         missing,
		MissingBaseline: missingBaseline,
	}

	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, key, table, a.ttl); err != nil {
			log.Printf("Aggregate: cache write failed for %s: %v", key, err)
		}
	}
	return table
}

// Series returns the current and baseline measurements for one street and
// direction ordered by date. No matching data yields empty series.
func (a *Aggregator) Series(street string, direction domain.Direction, period, dayType string) domain.SeriesPair {
	f := domain.Filter{Street: street, Direction: direction, Period: period, DayType: dayType}
	return domain.SeriesPair{
		Current:  a.points(domain.CollectionCurrent, f),
		Baseline: a.points(domain.CollectionBaseline, f),
	}
}

// points absorbs NoMatchingData into an empty series
func (a *Aggregator) points(c domain.Collection, f domain.Filter) []domain.Point {
	rows, err := a.store.Find(c, f)
	if err != nil && !errors.Is(err, domain.ErrNoMatchingData) {
		log.Printf("Aggregate: series query failed: %v", err)
	}
	return toPoints(rows)
}

// pivot groups by (street, direction), averages, and reorders into canonical order
func (a *Aggregator) pivot(c domain.Collection, period, dayType string) ([]domain.AggregatedRow, []string) {
	values := make(map[string]map[domain.Direction][]float64)
	for _, m := range a.store.Query(c, domain.Filter{Period: period, DayType: dayType}) {
		if values[m.Street] == nil {
			values[m.Street] = make(map[domain.Direction][]float64)
		}
		values[m.Street][m.Direction] = append(values[m.Street][m.Direction], m.TravelTime)
	}

	rows := make([]domain.AggregatedRow, 0, len(a.streets))
	var missing []string
	for _, street := range a.streets {
		byDir, ok := values[street]
		if !ok {
			missing = append(missing, street)
			continue
		}
		rows = append(rows, domain.AggregatedRow{
			Street: street,
			EB:     roundedMean(byDir[domain.Eastbound]),
			WB:     roundedMean(byDir[domain.Westbound]),
		})
	}
	return rows, missing
}

func roundedMean(values []float64) *float64 {
	mean, ok := utils.Mean(values)
	if !ok {
		return nil
	}
	rounded := utils.RoundTo(mean, 1)
	return &rounded
}

func toPoints(rows []domain.Measurement) []domain.Point {
	points := make([]domain.Point, 0, len(rows))
	for _, m := range rows {
		points = append(points, domain.Point{Date: m.Date, TravelTime: m.TravelTime})
	}
	return points
}

func tableKey(period, dayType string) string {
	return fmt.Sprintf("table:%s:%s", period, dayType)
}
