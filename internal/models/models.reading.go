// FilePath: internal/models/models.reading.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Reading represents a single immutable sensor measurement
type Reading struct {
	ID         string     `json:"id" db:"id"`
	DeviceID   string     `json:"device_id" db:"device_id"`
	SensorID   string     `json:"sensor_id" db:"sensor_id"`
	SensorType SensorType `json:"sensor_type" db:"sensor_type"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	Value      float64    `json:"value" db:"value"`
	Unit       string     `json:"unit" db:"unit"`
}

// ReadingInput is the ingestion payload accepted over HTTP and MQTT
type ReadingInput struct {
	DeviceID   *string    `json:"device_id"`
	SensorID   *string    `json:"sensor_id"`
	SensorType *string    `json:"sensor_type"`
	Value      *FlexFloat `json:"value"`
	Unit       *string    `json:"unit"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// FlexFloat accepts both JSON numbers and numeric strings. NaN and the
// infinities are rejected.
type FlexFloat float64

// NumberFormatError reports a value that is neither a number nor a numeric string
type NumberFormatError struct {
	Raw string
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("value %q is not a number", e.Raw)
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return &NumberFormatError{Raw: string(data)}
	}
	*f = FlexFloat(v)
	return nil
}

// AggregateResult holds window statistics. Every statistic is nil when
// the window is empty; Count is then 0.
type AggregateResult struct {
	Avg    *float64 `json:"avg" db:"avg"`
	Min    *float64 `json:"min" db:"min"`
	Max    *float64 `json:"max" db:"max"`
	StdDev *float64 `json:"stddev" db:"stddev"`
	Count  int64    `json:"count" db:"count"`
}

// Empty reports whether the aggregate was computed over no readings
func (a AggregateResult) Empty() bool {
	return a.Count == 0
}

// ThresholdAlert is one device whose window maximum exceeded a threshold
type ThresholdAlert struct {
	DeviceID string  `json:"device_id" db:"device_id"`
	MaxValue float64 `json:"max_value" db:"max_value"`
}

// ReadingPage is the paginated envelope for device listings
type ReadingPage struct {
	Data       []Reading `json:"data"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"total_pages"`
}
