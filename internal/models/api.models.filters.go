package models

// Query-string parameter sets, decoded with gorilla/schema. Numeric fields
// are kept as strings so malformed input can be reported with its field name.

// SensorReadingParams filters GET /sensors/{id}/readings
type SensorReadingParams struct {
	StartTime string `schema:"start_time"`
	EndTime   string `schema:"end_time"`
	Limit     string `schema:"limit"`
}

// DeviceReadingParams filters GET /devices/{id}/readings and its export
type DeviceReadingParams struct {
	StartTime string `schema:"start_time"`
	EndTime   string `schema:"end_time"`
	Page      string `schema:"page"`
	PerPage   string `schema:"per_page"`
}

// WindowParams bounds the stats endpoint
type WindowParams struct {
	Start string `schema:"start"`
	End   string `schema:"end"`
}

// ThresholdParams filters GET /alerts/threshold
type ThresholdParams struct {
	Type      string `schema:"type"`
	Threshold string `schema:"threshold"`
	Start     string `schema:"start"`
	End       string `schema:"end"`
}

// ReportParams selects the report window
type ReportParams struct {
	DeviceID  string `schema:"device_id"`
	SensorID  string `schema:"sensor_id"`
	Start     string `schema:"start"`
	End       string `schema:"end"`
	Threshold string `schema:"threshold"`
	Format    string `schema:"format"`
}
