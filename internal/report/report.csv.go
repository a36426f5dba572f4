package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/itsatony/envmon/internal/models"
)

var (
	reportHeader = []string{"timestamp", "value"}
	deviceHeader = []string{"device_id", "sensor_id", "sensor_type", "timestamp", "value", "unit"}
)

// FormatTimestamp renders an instant the way the JSON API does
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

// FormatValue renders a value with the shortest exact decimal form
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV renders readings as timestamp,value rows with a header
func WriteCSV(w io.Writer, readings []models.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range readings {
		if err := cw.Write([]string{FormatTimestamp(r.Timestamp), FormatValue(r.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDeviceCSV renders the six-column device export
func WriteDeviceCSV(w io.Writer, readings []models.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(deviceHeader); err != nil {
		return err
	}
	for _, r := range readings {
		row := []string{
			r.DeviceID,
			r.SensorID,
			string(r.SensorType),
			FormatTimestamp(r.Timestamp),
			FormatValue(r.Value),
			r.Unit,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
