// Package aggregate computes window statistics and threshold alerts,
// delegating to the store's native grouping when it has one.
package aggregate

import (
	"context"
	"sort"

	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/repository"
	"github.com/itsatony/envmon/internal/stats"
)

// Engine is stateless apart from its store handles and is safe for
// concurrent use.
type Engine struct {
	readings repository.ReadingRepository
	native   repository.ReadingAggregator
}

// NewEngine detects whether the store aggregates natively
func NewEngine(readings repository.ReadingRepository) *Engine {
	e := &Engine{readings: readings}
	if agg, ok := readings.(repository.ReadingAggregator); ok {
		e.native = agg
	}
	return e
}

// Native reports whether statistics are computed by the store
func (e *Engine) Native() bool {
	return e.native != nil
}

// Stats returns count, mean, min, max and population standard deviation
// over the filtered window. An empty window yields absent statistics.
func (e *Engine) Stats(ctx context.Context, filter query.Filter) (models.AggregateResult, error) {
	if e.native != nil {
		return e.native.Aggregate(ctx, filter)
	}
	rows, err := e.readings.Find(ctx, filter, query.Unbounded())
	if err != nil {
		return models.AggregateResult{}, err
	}
	return Reduce(rows), nil
}

// ThresholdAlerts returns every device whose maximum reading of the given
// type strictly exceeds threshold inside the window. Readings at or below
// the threshold are filtered out before grouping.
func (e *Engine) ThresholdAlerts(ctx context.Context, sensorType models.SensorType, threshold float64, window query.TimeRange) ([]models.ThresholdAlert, error) {
	filter := query.Filter{
		SensorType: sensorType,
		Range:      window,
		ValueAbove: &threshold,
	}
	if e.native != nil {
		return e.native.MaxByDevice(ctx, filter)
	}
	rows, err := e.readings.Find(ctx, filter, query.Unbounded())
	if err != nil {
		return nil, err
	}
	return MaxByDevice(rows), nil
}

// Reduce computes the window statistics over materialized readings
func Reduce(rows []models.Reading) models.AggregateResult {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}
	return stats.Summarize(values)
}

// MaxByDevice groups readings by device and keeps each group's maximum,
// ordered by device id.
func MaxByDevice(rows []models.Reading) []models.ThresholdAlert {
	maxima := make(map[string]float64)
	for _, r := range rows {
		if cur, ok := maxima[r.DeviceID]; !ok || r.Value > cur {
			maxima[r.DeviceID] = r.Value
		}
	}
	alerts := make([]models.ThresholdAlert, 0, len(maxima))
	for id, v := range maxima {
		alerts = append(alerts, models.ThresholdAlert{DeviceID: id, MaxValue: v})
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].DeviceID < alerts[j].DeviceID })
	return alerts
}

// CompareMax is the single-entity threshold check: one alert when the
// window maximum strictly exceeds threshold, none otherwise.
func CompareMax(deviceID string, window models.AggregateResult, threshold *float64) []models.ThresholdAlert {
	alerts := []models.ThresholdAlert{}
	if threshold == nil || window.Max == nil {
		return alerts
	}
	if *window.Max > *threshold {
		alerts = append(alerts, models.ThresholdAlert{DeviceID: deviceID, MaxValue: *window.Max})
	}
	return alerts
}
