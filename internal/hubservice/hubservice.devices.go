package hubservice

import (
	"context"
	"fmt"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/events"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	nuts "github.com/vaudience/go-nuts"
)

const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// CreateDevice registers a device with its embedded sensors
func (s *HubService) CreateDevice(ctx context.Context, device *models.Device) error {
	if err := validateDevice(device); err != nil {
		return err
	}
	nuts.L.Infof("[HubService] Creating new device: %s (%s)", device.DeviceName, device.DeviceID)

	if err := s.Devices.Create(ctx, device); err != nil {
		return err
	}
	s.Events.Emit(events.DeviceCreated, device.DeviceID)
	return nil
}

// GetDevice retrieves a device by its ID
func (s *HubService) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return s.Devices.Get(ctx, deviceID)
}

// ListDevices returns every registered device
func (s *HubService) ListDevices(ctx context.Context) ([]models.Device, error) {
	devices, err := s.Devices.List(ctx)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []models.Device{}
	}
	return devices, nil
}

// GetDeviceStatus retrieves the device with the latest reading of each sensor
func (s *HubService) GetDeviceStatus(ctx context.Context, deviceID string) (*models.DeviceStatus, error) {
	device, err := s.Devices.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	status := &models.DeviceStatus{
		Device:       device,
		LastReadings: make(map[string]*models.Reading, len(device.Sensors)),
		OnlineStatus: StatusOffline,
	}

	for _, sensor := range device.Sensors {
		reading, err := s.LatestReading(ctx, sensor.SensorID)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			nuts.L.Warnf("[HubService] Failed to get latest reading for sensor %s of device %s: %v", sensor.SensorID, deviceID, err)
			continue
		}
		status.LastReadings[sensor.SensorID] = reading
		if status.LastActivity == nil || reading.Timestamp.After(*status.LastActivity) {
			ts := reading.Timestamp
			status.LastActivity = &ts
		}
	}

	if status.LastActivity != nil {
		status.OnlineStatus = determineOnlineStatus(s.now().Sub(*status.LastActivity))
	}
	return status, nil
}

// GetSystemStats returns fleet-wide counters and the latest reading per sensor type
func (s *HubService) GetSystemStats(ctx context.Context) (*models.SystemStats, error) {
	totalDevices, err := s.Devices.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalReadings, err := s.Readings.Count(ctx, query.Filter{})
	if err != nil {
		return nil, err
	}
	types, err := s.Readings.DistinctSensorTypes(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]models.Reading, len(types))
	for _, t := range types {
		rows, err := s.Readings.Find(ctx, query.Filter{SensorType: t}, query.Latest())
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			latest[string(t)] = rows[0]
		}
	}

	return &models.SystemStats{
		TotalDevices:   totalDevices,
		TotalReadings:  totalReadings,
		LatestReadings: latest,
	}, nil
}

func validateDevice(device *models.Device) error {
	if device == nil {
		return errors.NewValidationError("device payload is required", nil)
	}
	if device.DeviceID == "" {
		return errors.NewFieldError("device_id", "Missing required field: device_id", nil)
	}
	if device.DeviceName == "" {
		return errors.NewFieldError("device_name", "Missing required field: device_name", nil)
	}

	seen := make(map[string]bool, len(device.Sensors))
	for i, sensor := range device.Sensors {
		if sensor.SensorID == "" {
			return errors.NewFieldError("sensors", fmt.Sprintf("sensor %d is missing sensor_id", i), nil)
		}
		if sensor.Type == "" {
			return errors.NewFieldError("sensors", fmt.Sprintf("sensor %s is missing type", sensor.SensorID), nil)
		}
		if seen[sensor.SensorID] {
			return errors.NewFieldError("sensors", "duplicate sensor_id "+sensor.SensorID, nil)
		}
		seen[sensor.SensorID] = true
	}
	return nil
}

func determineOnlineStatus(sinceLastSeen time.Duration) string {
	switch {
	case sinceLastSeen < 5*time.Minute:
		return StatusOnline
	case sinceLastSeen < 15*time.Minute:
		return StatusAway
	default:
		return StatusOffline
	}
}
