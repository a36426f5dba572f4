package analysis

import (
	"context"
	"time"

	"github.com/itsatony/envmon/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// WindowSource supplies the sensors to analyze and their windows
type WindowSource interface {
	SensorIDs(ctx context.Context) ([]string, error)
	Window(ctx context.Context, sensorID string, start, end time.Time, maxPoints int) ([]models.Reading, error)
}

// SensorAnalysis is the per-sensor section of a report
type SensorAnalysis struct {
	Statistics     *Statistics `json:"statistics"`
	Trend          *Trend      `json:"trends"`
	AnomaliesCount int         `json:"anomalies_count"`
	Anomalies      []Anomaly   `json:"anomalies"`
}

// Summary aggregates the fleet. AnomalyRate is a percentage.
type Summary struct {
	TotalReadings  int     `json:"total_readings"`
	TotalAnomalies int     `json:"total_anomalies"`
	AnomalyRate    float64 `json:"anomaly_rate"`
}

// Report is the aggregated analysis over every sensor window
type Report struct {
	AnalysisTimestamp   time.Time                 `json:"analysis_timestamp"`
	AnalysisPeriodHours float64                   `json:"analysis_period_hours"`
	TotalSensors        int                       `json:"total_sensors"`
	Sensors             map[string]SensorAnalysis `json:"sensors"`
	Summary             Summary                   `json:"summary"`
}

type Options struct {
	Window     time.Duration
	ZThreshold float64
	MaxPoints  int
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = 24 * time.Hour
	}
	if o.ZThreshold <= 0 {
		o.ZThreshold = DefaultZThreshold
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = DefaultMaxPoints
	}
	return o
}

type Analyzer struct {
	source WindowSource
	opts   Options
	now    func() time.Time
}

func NewAnalyzer(source WindowSource, opts Options) *Analyzer {
	return &Analyzer{source: source, opts: opts.withDefaults(), now: time.Now}
}

// Run fetches the window of every sensor ending now and builds the report.
// Sensors without readings in the window are left out.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	end := a.now().UTC()
	start := end.Add(-a.opts.Window)

	sensorIDs, err := a.source.SensorIDs(ctx)
	if err != nil {
		return nil, err
	}

	windows := make(map[string][]models.Reading, len(sensorIDs))
	for _, id := range sensorIDs {
		readings, err := a.source.Window(ctx, id, start, end, a.opts.MaxPoints)
		if err != nil {
			return nil, err
		}
		if len(readings) == 0 {
			continue
		}
		windows[id] = readings
	}

	report := BuildReport(windows, a.opts.ZThreshold)
	report.AnalysisTimestamp = end
	report.AnalysisPeriodHours = a.opts.Window.Hours()
	nuts.L.Infof("[Analyzer] Analyzed %d sensors, %d readings, %d anomalies",
		report.TotalSensors, report.Summary.TotalReadings, report.Summary.TotalAnomalies)
	return report, nil
}

// BuildReport analyzes each window. Windows may arrive in any order and
// are sorted chronologically first.
func BuildReport(windows map[string][]models.Reading, multiplier float64) *Report {
	report := &Report{Sensors: make(map[string]SensorAnalysis, len(windows))}

	for sensorID, readings := range windows {
		window := Chronological(readings)
		anomalies := DetectAnomalies(window, multiplier)
		stats := CalculateStatistics(window)

		report.Sensors[sensorID] = SensorAnalysis{
			Statistics:     stats,
			Trend:          AnalyzeTrend(window),
			AnomaliesCount: len(anomalies),
			Anomalies:      anomalies,
		}
		if stats != nil {
			report.Summary.TotalReadings += stats.Count
		}
		report.Summary.TotalAnomalies += len(anomalies)
	}

	report.TotalSensors = len(report.Sensors)
	if report.Summary.TotalReadings > 0 {
		report.Summary.AnomalyRate = float64(report.Summary.TotalAnomalies) / float64(report.Summary.TotalReadings) * 100
	}
	return report
}
