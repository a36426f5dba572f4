package hubservice

import (
	"context"
	"io"
	"math"
	"strings"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/events"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/report"
	nuts "github.com/vaudience/go-nuts"
)

// ListSensorReadings returns up to limit readings of a sensor, newest first
func (s *HubService) ListSensorReadings(ctx context.Context, sensorID string, window query.TimeRange, limit int) ([]models.Reading, error) {
	w, err := query.NewLimitWindow(limit)
	if err != nil {
		return nil, err
	}
	return s.Readings.Find(ctx, query.Filter{SensorID: sensorID, Range: window}, w)
}

// ListDeviceReadings returns one page of a device's readings together with
// the total count of matching readings.
func (s *HubService) ListDeviceReadings(ctx context.Context, deviceID string, window query.TimeRange, page, perPage int) (*models.ReadingPage, error) {
	p, err := query.NewPagination(page, perPage)
	if err != nil {
		return nil, err
	}
	filter := query.Filter{DeviceID: deviceID, Range: window}

	total, err := s.Readings.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.Readings.Find(ctx, filter, p.Window())
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []models.Reading{}
	}

	return &models.ReadingPage{
		Data:       data,
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}, nil
}

// DeviceReadingsRange returns every reading of a device inside the window
func (s *HubService) DeviceReadingsRange(ctx context.Context, deviceID string, window query.TimeRange) ([]models.Reading, error) {
	readings, err := s.Readings.Find(ctx, query.Filter{DeviceID: deviceID, Range: window}, query.Unbounded())
	if err != nil {
		return nil, err
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	return readings, nil
}

// LatestReading returns the most recent reading of a sensor
func (s *HubService) LatestReading(ctx context.Context, sensorID string) (*models.Reading, error) {
	if s.Latest != nil {
		cached, err := s.Latest.GetLatest(ctx, sensorID)
		if err != nil {
			nuts.L.Warnf("[HubService] Latest cache lookup failed for sensor %s: %v", sensorID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	rows, err := s.Readings.Find(ctx, query.Filter{SensorID: sensorID}, query.Latest())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("no readings found for sensor "+sensorID, nil)
	}
	latest := rows[0]
	s.refreshLatest(ctx, latest)
	return &latest, nil
}

// SensorStats aggregates one device sensor over the window
func (s *HubService) SensorStats(ctx context.Context, deviceID, sensorID string, window query.TimeRange) (models.AggregateResult, error) {
	return s.Engine.Stats(ctx, query.Filter{DeviceID: deviceID, SensorID: sensorID, Range: window})
}

// ThresholdAlerts lists the devices whose maximum reading of sensorType
// exceeded threshold inside the window.
func (s *HubService) ThresholdAlerts(ctx context.Context, sensorType string, threshold *float64, window query.TimeRange) ([]models.ThresholdAlert, error) {
	sensorType = strings.TrimSpace(sensorType)
	if sensorType == "" {
		return nil, errors.NewFieldError("type", "Missing required field: type", nil)
	}
	if threshold == nil {
		return nil, errors.NewFieldError("threshold", "Missing required field: threshold", nil)
	}
	return s.Engine.ThresholdAlerts(ctx, models.SensorType(sensorType), *threshold, window)
}

// Report builds the full report of one device sensor
func (s *HubService) Report(ctx context.Context, req report.Request) (*models.Report, error) {
	if err := validateReportRequest(req); err != nil {
		return nil, err
	}
	return s.Generator.Generate(ctx, req)
}

// ReportCSV streams the report readings as timestamp,value rows
func (s *HubService) ReportCSV(ctx context.Context, w io.Writer, req report.Request) error {
	if err := validateReportRequest(req); err != nil {
		return err
	}
	readings, err := s.Generator.Readings(ctx, req)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, readings)
}

// ReportXLSX renders the report as a workbook
func (s *HubService) ReportXLSX(ctx context.Context, req report.Request) ([]byte, error) {
	rep, err := s.Report(ctx, req)
	if err != nil {
		return nil, err
	}
	return report.RenderXLSX(rep)
}

// DeviceReadingsCSV streams every reading of a device in the window
func (s *HubService) DeviceReadingsCSV(ctx context.Context, w io.Writer, deviceID string, window query.TimeRange) error {
	readings, err := s.DeviceReadingsRange(ctx, deviceID, window)
	if err != nil {
		return err
	}
	return report.WriteDeviceCSV(w, readings)
}

// RecordReading validates and stores one ingested reading
func (s *HubService) RecordReading(ctx context.Context, input models.ReadingInput) (*models.Reading, error) {
	reading, err := readingFromInput(input, s.now)
	if err != nil {
		return nil, err
	}
	reading.ID = nuts.NID("rd", 12)

	if err := s.Readings.Insert(ctx, reading); err != nil {
		nuts.L.Errorf("[HubService] Failed to store reading for sensor %s: %v", reading.SensorID, err)
		return nil, err
	}
	s.refreshLatest(ctx, *reading)
	s.Events.Emit(events.ReadingRecorded, reading.ID)
	return reading, nil
}

func (s *HubService) refreshLatest(ctx context.Context, reading models.Reading) {
	if s.Latest == nil {
		return
	}
	if err := s.Latest.SetLatest(ctx, reading); err != nil {
		nuts.L.Warnf("[HubService] Failed to cache latest reading for sensor %s: %v", reading.SensorID, err)
	}
}

func readingFromInput(in models.ReadingInput, now func() time.Time) (*models.Reading, error) {
	required := []struct {
		name    string
		present bool
	}{
		{"device_id", in.DeviceID != nil && strings.TrimSpace(*in.DeviceID) != ""},
		{"sensor_id", in.SensorID != nil && strings.TrimSpace(*in.SensorID) != ""},
		{"sensor_type", in.SensorType != nil && strings.TrimSpace(*in.SensorType) != ""},
		{"value", in.Value != nil},
		{"unit", in.Unit != nil},
	}
	for _, f := range required {
		if !f.present {
			return nil, errors.NewFieldError(f.name, "Missing required field: "+f.name, nil)
		}
	}

	if v := float64(*in.Value); math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.NewFieldError("value", "invalid value: must be a finite number", nil)
	}

	ts := now().UTC()
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC()
	}

	return &models.Reading{
		DeviceID:   *in.DeviceID,
		SensorID:   *in.SensorID,
		SensorType: models.SensorType(*in.SensorType),
		Timestamp:  ts,
		Value:      float64(*in.Value),
		Unit:       *in.Unit,
	}, nil
}

func validateReportRequest(req report.Request) error {
	if req.DeviceID == "" {
		return errors.NewFieldError("device_id", "Missing required field: device_id", nil)
	}
	if req.SensorID == "" {
		return errors.NewFieldError("sensor_id", "Missing required field: sensor_id", nil)
	}
	return nil
}
