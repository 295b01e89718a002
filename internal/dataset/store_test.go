package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2017, time.November, d, 0, 0, 0, 0, time.UTC)
}

func sample() ([]domain.Measurement, []domain.Measurement) {
	current := []domain.Measurement{
		{Street: "Queen", Direction: domain.Eastbound, Period: "AMPK", DayType: "Weekday", Date: day(14), TravelTime: 12},
		{Street: "Queen", Direction: domain.Eastbound, Period: "AMPK", DayType: "Weekday", Date: day(13), TravelTime: 11},
		{Street: "Queen", Direction: domain.Westbound, Period: "PMPK", DayType: "Weekday", Date: day(13), TravelTime: 9},
		{Street: "Dundas", Direction: domain.Eastbound, Period: "AMPK", DayType: "Weekend", Date: day(12), TravelTime: 8},
	}
	baseline := []domain.Measurement{
		{Street: "Queen", Direction: domain.Eastbound, Period: "AMPK", DayType: "Weekday", Date: day(1), TravelTime: 10},
	}
	return current, baseline
}

type fakeSource struct {
	rows map[domain.Collection][]domain.Measurement
	err  error
}

func (f *fakeSource) Load(ctx context.Context, c domain.Collection) ([]domain.Measurement, error) {
	if f.err != nil && c == domain.CollectionBaseline {
		return nil, f.err
	}
	return f.rows[c], nil
}

func (f *fakeSource) Close() error { return nil }

func TestQueryOrdersByDate(t *testing.T) {
	current, baseline := sample()
	s, err := New(current, baseline)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := s.Query(domain.CollectionCurrent, domain.Filter{
		Street: "Queen", Direction: domain.Eastbound, Period: "AMPK", DayType: "Weekday",
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Errorf("rows not ordered by date: %v then %v", got[0].Date, got[1].Date)
	}
}

func TestQueryNoMatchReturnsEmptySlice(t *testing.T) {
	current, baseline := sample()
	s, _ := New(current, baseline)

	got := s.Query(domain.CollectionBaseline, domain.Filter{Street: "Front", Period: "X", DayType: "Y"})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFindReportsNoMatchingData(t *testing.T) {
	current, baseline := sample()
	s, _ := New(current, baseline)

	rows, err := s.Find(domain.CollectionCurrent, domain.Filter{Street: "Front", Period: "AMPK", DayType: "Weekday"})
	if !errors.Is(err, domain.ErrNoMatchingData) {
		t.Fatalf("expected NoMatchingData, got %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}

	rows, err = s.Find(domain.CollectionCurrent, domain.Filter{Street: "Queen", Period: "AMPK", DayType: "Weekday"})
	if err != nil || len(rows) != 2 {
		t.Errorf("Find Queen: %d rows, err %v", len(rows), err)
	}
}

func TestNewRejectsEmptyCollection(t *testing.T) {
	current, _ := sample()
	_, err := New(current, nil)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected DataUnavailable, got %v", err)
	}
}

func TestLoadFailureIsDataUnavailable(t *testing.T) {
	current, baseline := sample()
	src := &fakeSource{
		rows: map[domain.Collection][]domain.Measurement{
			domain.CollectionCurrent:  current,
			domain.CollectionBaseline: baseline,
		},
		err: errors.New("disk on fire"),
	}
	_, err := Load(context.Background(), src)
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected DataUnavailable, got %v", err)
	}

	src.err = nil
	s, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Count(domain.CollectionCurrent) != 4 || s.Count(domain.CollectionBaseline) != 1 {
		t.Errorf("unexpected counts %d/%d", s.Count(domain.CollectionCurrent), s.Count(domain.CollectionBaseline))
	}
}

func TestDistinctFilters(t *testing.T) {
	current, baseline := sample()
	s, _ := New(current, baseline)

	periods := s.Periods()
	if len(periods) != 2 || periods[0] != "AMPK" || periods[1] != "PMPK" {
		t.Errorf("Periods = %v", periods)
	}
	dayTypes := s.DayTypes()
	if len(dayTypes) != 2 || dayTypes[0] != "Weekday" || dayTypes[1] != "Weekend" {
		t.Errorf("DayTypes = %v", dayTypes)
	}
}
