package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStreets is the canonical street order for the King Street pilot area.
// The first street is the designated default selection.
var DefaultStreets = []string{"Dundas", "Queen", "Adelaide", "Richmond", "Wellington", "Front"}

// Direction is a travel direction along a street segment
type Direction string

const (
	Eastbound Direction = "EB"
	Westbound Direction = "WB"
)

// Directions returns both directions in display order
func Directions() []Direction {
	return []Direction{Eastbound, Westbound}
}

// Code returns the short code ("EB"/"WB")
func (d Direction) Code() string {
	return string(d)
}

// Label returns the long label used as chart title
func (d Direction) Label() string {
	switch d {
	case Eastbound:
		return "Eastbound"
	case Westbound:
		return "Westbound"
	default:
		return string(d)
	}
}

// Valid reports whether d is one of the known directions
func (d Direction) Valid() bool {
	return d == Eastbound || d == Westbound
}

// ParseDirection accepts a short code or a long label, case-insensitively
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eb", "eastbound":
		return Eastbound, nil
	case "wb", "westbound":
		return Westbound, nil
	}
	return "", New(CodeUnknownDirection, fmt.Sprintf("unknown direction %q", s))
}

// Collection names one of the two loaded datasets
type Collection string

const (
	CollectionCurrent  Collection = "current"
	CollectionBaseline Collection = "baseline"
)

// Collections returns both dataset collections
func Collections() []Collection {
	return []Collection{CollectionCurrent, CollectionBaseline}
}

// Measurement is a single observed travel time
type Measurement struct {
	Street     string    `json:"street"`
	Direction  Direction `json:"direction"`
	Period     string    `json:"period"`
	DayType    string    `json:"day_type"`
	Date       time.Time `json:"date"`
	TravelTime float64   `json:"tt"`
}

// Filter selects measurements. Empty Street or Direction match everything.
type Filter struct {
	Street    string
	Direction Direction
	Period    string
	DayType   string
}

// Matches reports whether m passes the filter
func (f Filter) Matches(m Measurement) bool {
	if f.Street != "" && m.Street != f.Street {
		return false
	}
	if f.Direction != "" && m.Direction != f.Direction {
		return false
	}
	return m.Period == f.Period && m.DayType == f.DayType
}
