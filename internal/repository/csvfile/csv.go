package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
)

// Columns every travel-time CSV must carry, in any order
var requiredColumns = []string{"street", "direction", "period", "day_type", "date", "tt"}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// Source reads the current and baseline collections from CSV files
type Source struct {
	paths map[domain.Collection]string
}

// NewSource creates a CSV source for the two files
func NewSource(currentPath, baselinePath string) *Source {
	return &Source{paths: map[domain.Collection]string{
		domain.CollectionCurrent:  currentPath,
		domain.CollectionBaseline: baselinePath,
	}}
}

// Load parses the file of collection c
func (s *Source) Load(ctx context.Context, c domain.Collection) ([]domain.Measurement, error) {
	path, ok := s.paths[c]
	if !ok || path == "" {
		return nil, fmt.Errorf("csv: no file configured for %s", c)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	return rows, nil
}

// Close is a no-op; files are closed after each load
func (s *Source) Close() error {
	return nil
}

// Parse reads measurements from a headed CSV stream
func Parse(ctx context.Context, r io.Reader) ([]domain.Measurement, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []domain.Measurement
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		m, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func parseRecord(record []string, idx map[string]int) (domain.Measurement, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[idx[name]])
	}

	dir, err := domain.ParseDirection(field("direction"))
	if err != nil {
		return domain.Measurement{}, err
	}
	date, err := parseDate(field("date"))
	if err != nil {
		return domain.Measurement{}, err
	}
	tt, err := strconv.ParseFloat(field("tt"), 64)
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("invalid travel time %q", field("tt"))
	}

	return domain.Measurement{
		Street:     field("street"),
		Direction:  dir,
		Period:     field("period"),
		DayType:    field("day_type"),
		Date:       date,
		TravelTime: tt,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
