// FilePath: internal/models/models.sensor.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type SensorType string

const (
	Temperature SensorType = "temperature"
	Humidity    SensorType = "humidity"
	CO2         SensorType = "co2"
	Other       SensorType = "other"
)

// Sensor is a typed measurement source owned by exactly one Device.
// SensorID is also used as the global lookup key for readings.
type Sensor struct {
	SensorID    string     `json:"sensor_id"`
	Type        SensorType `json:"type"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
}

// Sensors is the embedded sensor list of a device, stored as JSONB
type Sensors []Sensor

// Value implements the driver.Valuer interface
func (s Sensors) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface
func (s *Sensors) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = Sensors{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported sensors column type %T", value)
	}
	return json.Unmarshal(raw, s)
}

// Device is a named physical location hosting one or more sensors
type Device struct {
	DeviceID    string    `json:"device_id" db:"device_id"`
	DeviceName  string    `json:"device_name" db:"device_name"`
	Location    string    `json:"location" db:"location"`
	Description string    `json:"description" db:"description"`
	Sensors     Sensors   `json:"sensors" db:"sensors"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Sensor looks up an embedded sensor by id
func (d *Device) Sensor(sensorID string) (Sensor, bool) {
	for _, s := range d.Sensors {
		if s.SensorID == sensorID {
			return s, true
		}
	}
	return Sensor{}, false
}
