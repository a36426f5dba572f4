// Package analysis computes descriptive statistics, trend and outliers over
// retrieved sensor windows.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/stats"
)

const (
	DirectionIncreasing = "increasing"
	DirectionDecreasing = "decreasing"
	DirectionStable     = "stable"

	AnomalyOutlier = "outlier"

	DefaultZThreshold = 2.0
	DefaultMaxPoints  = 1000
)

// Statistics describes one sensor window. Std is the population form.
type Statistics struct {
	Count         int       `json:"count"`
	Mean          float64   `json:"mean"`
	Median        float64   `json:"median"`
	Std           float64   `json:"std"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Range         float64   `json:"range"`
	FirstReading  time.Time `json:"first_reading"`
	LastReading   time.Time `json:"last_reading"`
	TimeSpanHours float64   `json:"time_span_hours"`
}

// Trend is the least-squares fit of value against observation index
type Trend struct {
	Slope         float64 `json:"slope"`
	TotalChange   float64 `json:"total_change"`
	ChangePerHour float64 `json:"change_per_hour"`
	Direction     string  `json:"trend_direction"`
	Strength      float64 `json:"trend_strength"`
}

// Anomaly is a reading whose z-score reached the multiplier
type Anomaly struct {
	models.Reading
	ZScore      float64 `json:"z_score"`
	AnomalyType string  `json:"anomaly_type"`
}

// Chronological returns a copy of readings sorted oldest first
func Chronological(readings []models.Reading) []models.Reading {
	out := append([]models.Reading(nil), readings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func values(window []models.Reading) []float64 {
	vs := make([]float64, len(window))
	for i, r := range window {
		vs[i] = r.Value
	}
	return vs
}

func spanHours(window []models.Reading) float64 {
	return window[len(window)-1].Timestamp.Sub(window[0].Timestamp).Hours()
}

// CalculateStatistics summarizes a chronological window, nil when empty.
// A single reading has zero deviation.
func CalculateStatistics(window []models.Reading) *Statistics {
	if len(window) == 0 {
		return nil
	}
	vs := values(window)
	mean, std := stats.MeanStd(vs)
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return &Statistics{
		Count:         len(vs),
		Mean:          mean,
		Median:        stats.Median(vs),
		Std:           std,
		Min:           lo,
		Max:           hi,
		Range:         hi - lo,
		FirstReading:  window[0].Timestamp,
		LastReading:   window[len(window)-1].Timestamp,
		TimeSpanHours: spanHours(window),
	}
}

// AnalyzeTrend fits the window; fewer than two readings have no trend
func AnalyzeTrend(window []models.Reading) *Trend {
	if len(window) < 2 {
		return nil
	}
	slope := stats.Slope(values(window))
	total := window[len(window)-1].Value - window[0].Value

	perHour := 0.0
	if hours := spanHours(window); hours > 0 {
		perHour = total / hours
	}

	direction := DirectionStable
	switch {
	case slope > 0:
		direction = DirectionIncreasing
	case slope < 0:
		direction = DirectionDecreasing
	}

	return &Trend{
		Slope:         slope,
		TotalChange:   total,
		ChangePerHour: perHour,
		Direction:     direction,
		Strength:      math.Abs(slope),
	}
}

// DetectAnomalies flags readings with |z| >= multiplier. A constant window
// or one with fewer than two readings has no outliers.
func DetectAnomalies(window []models.Reading, multiplier float64) []Anomaly {
	anomalies := []Anomaly{}
	if len(window) < 2 {
		return anomalies
	}
	mean, std := stats.MeanStd(values(window))
	if std == 0 {
		return anomalies
	}
	for _, r := range window {
		z := (r.Value - mean) / std
		if math.Abs(z) >= multiplier {
			anomalies = append(anomalies, Anomaly{Reading: r, ZScore: z, AnomalyType: AnomalyOutlier})
		}
	}
	return anomalies
}
