package shared

import (
	"fmt"
	"strings"
	"time"
)

const travelDateLayout = "2006-01-02"

// TravelDate represents a calendar day (no time component) in ISO 8601 format.
type TravelDate struct {
	value time.Time
}

// NewTravelDate parses an ISO 8601 date (YYYY-MM-DD).
func NewTravelDate(date string) (TravelDate, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return TravelDate{}, fmt.Errorf("the date cannot be empty")
	}
	t, err := time.Parse(travelDateLayout, date)
	if err != nil {
		return TravelDate{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}
	return TravelDate{value: t}, nil
}

// MustNewTravelDate parses an ISO 8601 date, panicking on invalid input.
func MustNewTravelDate(date string) TravelDate {
	d, err := NewTravelDate(date)
	if err != nil {
		panic(fmt.Sprintf("invalid travel date %s: %v", date, err))
	}
	return d
}

func (d TravelDate) Time() time.Time {
	return d.value
}

func (d TravelDate) IsZero() bool {
	return d.value.IsZero()
}

func (d TravelDate) Before(other TravelDate) bool {
	return d.value.Before(other.value)
}

func (d TravelDate) Equal(other TravelDate) bool {
	return d.value.Equal(other.value)
}

// At combines the date with a wall-clock time of day ("15:04").
func (d TravelDate) At(clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM: %w", clock, err)
	}
	return time.Date(d.value.Year(), d.value.Month(), d.value.Day(),
		t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// String implements fmt.Stringer.
func (d TravelDate) String() string {
	if d.value.IsZero() {
		return ""
	}
	return d.value.Format(travelDateLayout)
}
