// FilePath: internal/query/query.filter.go
package query

import (
	"strings"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/relvacode/iso8601"
)

// TimeRange is an inclusive time window. A nil side is open.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether ts lies inside the inclusive range
func (tr TimeRange) Contains(ts time.Time) bool {
	if tr.Start != nil && ts.Before(*tr.Start) {
		return false
	}
	if tr.End != nil && ts.After(*tr.End) {
		return false
	}
	return true
}

// Filter is the store-agnostic predicate over readings. Empty string
// fields and nil pointers do not constrain the result.
type Filter struct {
	DeviceID   string
	SensorID   string
	SensorType models.SensorType
	Range      TimeRange
	ValueAbove *float64
}

// Matches evaluates the filter against a single reading
func (f Filter) Matches(r models.Reading) bool {
	if f.DeviceID != "" && r.DeviceID != f.DeviceID {
		return false
	}
	if f.SensorID != "" && r.SensorID != f.SensorID {
		return false
	}
	if f.SensorType != "" && r.SensorType != f.SensorType {
		return false
	}
	if f.ValueAbove != nil && !(r.Value > *f.ValueAbove) {
		return false
	}
	return f.Range.Contains(r.Timestamp)
}

// ParseBound parses one ISO-8601 time bound. An empty value leaves the
// bound open; a malformed value is a validation error naming the field.
func ParseBound(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := iso8601.ParseString(raw)
	if err != nil {
		return nil, errors.NewFieldError(field, "invalid "+field+": expected ISO-8601 date-time", err)
	}
	ts = ts.UTC()
	return &ts, nil
}

// ParseTimeRange parses both bounds of a window
func ParseTimeRange(startField, start, endField, end string) (TimeRange, error) {
	s, err := ParseBound(startField, start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseBound(endField, end)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: s, End: e}, nil
}
