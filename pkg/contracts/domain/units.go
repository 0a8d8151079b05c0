package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeUnit is the unit the raw time column is expressed in.
type TimeUnit string

const (
	TimeUnitSeconds      TimeUnit = "s"
	TimeUnitMilliseconds TimeUnit = "ms"
	TimeUnitMicroseconds TimeUnit = "us"
	TimeUnitNanoseconds  TimeUnit = "ns"
)

// SupportedTimeUnits lists the accepted units in display order.
var SupportedTimeUnits = []TimeUnit{TimeUnitSeconds, TimeUnitMilliseconds, TimeUnitMicroseconds, TimeUnitNanoseconds}

// ParseTimeUnit parses a unit name. Matching is case-insensitive.
func ParseTimeUnit(s string) (TimeUnit, error) {
	u := TimeUnit(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", fmt.Errorf("time unit must be one of %v, got %q", SupportedTimeUnits, s)
	}
	return u, nil
}

// IsValid reports whether u is a supported unit.
func (u TimeUnit) IsValid() bool {
	switch u {
	case TimeUnitSeconds, TimeUnitMilliseconds, TimeUnitMicroseconds, TimeUnitNanoseconds:
		return true
	}
	return false
}

// Duration returns the length of one unit, or 0 for an unsupported unit.
func (u TimeUnit) Duration() time.Duration {
	switch u {
	case TimeUnitSeconds:
		return time.Second
	case TimeUnitMilliseconds:
		return time.Millisecond
	case TimeUnitMicroseconds:
		return time.Microsecond
	case TimeUnitNanoseconds:
		return time.Nanosecond
	}
	return 0
}

// Instant converts a raw time value into an absolute UTC instant counted
// from the Unix epoch.
func (u TimeUnit) Instant(value float64) time.Time {
	offset := time.Duration(math.Round(value * float64(u.Duration())))
	return time.Unix(0, 0).UTC().Add(offset)
}

// TrimCriteria selects how the warm-up region is measured.
type TrimCriteria string

const (
	TrimBySamples TrimCriteria = "samples"
	TrimByTime    TrimCriteria = "time"
)

// ParseTrimCriteria parses a criteria name. Matching is case-insensitive.
func ParseTrimCriteria(s string) (TrimCriteria, error) {
	c := TrimCriteria(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("trim criteria must be %q or %q, got %q", TrimBySamples, TrimByTime, s)
	}
	return c, nil
}

// IsValid reports whether c is a supported criteria.
func (c TrimCriteria) IsValid() bool {
	return c == TrimBySamples || c == TrimByTime
}

// FilterDirection says which side of a ValueFilter threshold is cleared.
type FilterDirection string

const (
	FilterAbove FilterDirection = "above"
	FilterBelow FilterDirection = "below"
)

// ParseFilterDirection parses a direction name. Matching is case-insensitive.
func ParseFilterDirection(s string) (FilterDirection, error) {
	d := FilterDirection(strings.ToLower(strings.TrimSpace(s)))
	if d != FilterAbove && d != FilterBelow {
		return "", fmt.Errorf("filter direction must be %q or %q, got %q", FilterAbove, FilterBelow, s)
	}
	return d, nil
}

// ValueFilter clears samples strictly above (or below) Threshold so they
// cannot become peaks.
type ValueFilter struct {
	Threshold float64         `json:"threshold" yaml:"threshold"`
	Direction FilterDirection `json:"direction" yaml:"direction"`
}

// Excludes reports whether v falls on the cleared side of the filter.
func (f ValueFilter) Excludes(v float64) bool {
	switch f.Direction {
	case FilterAbove:
		return v > f.Threshold
	case FilterBelow:
		return v < f.Threshold
	}
	return false
}

// String renders the filter in the "threshold,direction" settings form.
func (f ValueFilter) String() string {
	return strconv.FormatFloat(f.Threshold, 'g', -1, 64) + "," + string(f.Direction)
}

// ParseFilters parses the "threshold,direction;threshold,direction" form
// used in config files and environment variables. Empty entries are skipped.
func ParseFilters(s string) ([]ValueFilter, error) {
	var filters []ValueFilter
	for i, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("filter %d: expected \"threshold,direction\", got %q", i, entry)
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("filter %d: invalid threshold %q: %w", i, parts[0], err)
		}
		direction, err := ParseFilterDirection(parts[1])
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters = append(filters, ValueFilter{Threshold: threshold, Direction: direction})
	}
	return filters, nil
}
