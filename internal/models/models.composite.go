// FilePath: internal/models/models.composite.go
package models

import "time"

// Report combines window statistics, threshold alerts and the raw readings
type Report struct {
	Stats    AggregateResult  `json:"stats"`
	Exceed   []ThresholdAlert `json:"exceed"`
	Readings []Reading        `json:"readings"`
}

// DeviceStatus represents a device together with the latest reading of each sensor
type DeviceStatus struct {
	Device       *Device             `json:"device"`
	LastReadings map[string]*Reading `json:"last_readings"`
	OnlineStatus string              `json:"online_status"`
	LastActivity *time.Time          `json:"last_activity"`
}

// SystemStats is the fleet-wide overview
type SystemStats struct {
	TotalDevices   int64              `json:"total_devices"`
	TotalReadings  int64              `json:"total_readings"`
	LatestReadings map[string]Reading `json:"latest_readings"`
}

// ReportFile describes one archived analysis report
type ReportFile struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
