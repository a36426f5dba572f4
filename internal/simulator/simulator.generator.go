// FilePath: internal/simulator/simulator.generator.go
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/itsatony/envmon/internal/models"
)

// SensorSpec describes one simulated sensor
type SensorSpec struct {
	SensorID    string
	Type        models.SensorType
	Unit        string
	Description string
	BaseValue   float64
	Variation   float64
}

// DeviceSpec describes one simulated device and its publish interval
type DeviceSpec struct {
	DeviceID   string
	DeviceName string
	Location   string
	Interval   time.Duration
	Sensors    []SensorSpec
}

// Device converts the simulated device into its registry representation
func (d DeviceSpec) Device() *models.Device {
	sensors := make(models.Sensors, len(d.Sensors))
	for i, s := range d.Sensors {
		sensors[i] = models.Sensor{SensorID: s.SensorID, Type: s.Type, Unit: s.Unit, Description: s.Description}
	}
	return &models.Device{DeviceID: d.DeviceID, DeviceName: d.DeviceName, Location: d.Location, Sensors: sensors}
}

// Generator produces synthetic values for one kind of sensor
type Generator interface {
	Generate(at time.Time) float64
}

// NewGenerator picks the generation strategy for the sensor kind
func NewGenerator(spec SensorSpec, rng *rand.Rand) Generator {
	switch spec.Type {
	case models.Temperature:
		return temperatureGenerator{base: spec.BaseValue, variation: spec.Variation, rng: rng}
	case models.Humidity:
		return humidityGenerator{base: spec.BaseValue, rng: rng}
	case models.CO2:
		return co2Generator{base: spec.BaseValue, rng: rng}
	default:
		return uniformGenerator{base: spec.BaseValue, variation: spec.Variation, rng: rng}
	}
}

// cooler at night, warmer around midday
type temperatureGenerator struct {
	base, variation float64
	rng             *rand.Rand
}

func (g temperatureGenerator) Generate(at time.Time) float64 {
	v := g.base + uniform(g.rng, g.variation)
	switch h := at.Hour(); {
	case h >= 22 || h <= 6:
		v -= 2
	case h >= 10 && h <= 16:
		v += 3
	}
	return round2(v)
}

// more humid in the morning and at night
type humidityGenerator struct {
	base float64
	rng  *rand.Rand
}

func (g humidityGenerator) Generate(at time.Time) float64 {
	v := g.base + uniform(g.rng, 5)
	switch h := at.Hour(); {
	case h >= 6 && h <= 8:
		v += 10
	case h >= 22 || h < 6:
		v += 15
	}
	return round2(v)
}

// occupied rooms during working hours
type co2Generator struct {
	base float64
	rng  *rand.Rand
}

func (g co2Generator) Generate(at time.Time) float64 {
	v := g.base + uniform(g.rng, 20)
	if h := at.Hour(); h >= 8 && h <= 18 {
		v += 100
	}
	return round2(v)
}

type uniformGenerator struct {
	base, variation float64
	rng             *rand.Rand
}

func (g uniformGenerator) Generate(time.Time) float64 {
	return round2(g.base + uniform(g.rng, g.variation))
}

// uniform returns a value in [-spread, spread]
func uniform(rng *rand.Rand, spread float64) float64 {
	return (rng.Float64()*2 - 1) * spread
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SampleFleet is the demo fleet of three rooms
func SampleFleet() []DeviceSpec {
	return []DeviceSpec{
		{
			DeviceID:   "dev001",
			DeviceName: "Lab Room Air Sensor",
			Location:   "Lab Room",
			Interval:   30 * time.Second,
			Sensors: []SensorSpec{
				{SensorID: "temp001", Type: models.Temperature, Unit: "°C", BaseValue: 25, Variation: 2, Description: "Temperature sensor"},
				{SensorID: "hum001", Type: models.Humidity, Unit: "%", BaseValue: 60, Variation: 10, Description: "Humidity sensor"},
				{SensorID: "co2_001", Type: models.CO2, Unit: "ppm", BaseValue: 400, Variation: 50, Description: "CO2 sensor"},
			},
		},
		{
			DeviceID:   "dev002",
			DeviceName: "Server Room Air Sensor",
			Location:   "Server Room",
			Interval:   45 * time.Second,
			Sensors: []SensorSpec{
				{SensorID: "temp002", Type: models.Temperature, Unit: "°C", BaseValue: 22, Variation: 1.5, Description: "Temperature sensor"},
				{SensorID: "hum002", Type: models.Humidity, Unit: "%", BaseValue: 45, Variation: 8, Description: "Humidity sensor"},
			},
		},
		{
			DeviceID:   "dev003",
			DeviceName: "Meeting Room Air Sensor",
			Location:   "Meeting Room",
			Interval:   60 * time.Second,
			Sensors: []SensorSpec{
				{SensorID: "temp003", Type: models.Temperature, Unit: "°C", BaseValue: 24, Variation: 3, Description: "Temperature sensor"},
				{SensorID: "hum003", Type: models.Humidity, Unit: "%", BaseValue: 55, Variation: 12, Description: "Humidity sensor"},
				{SensorID: "co2_003", Type: models.CO2, Unit: "ppm", BaseValue: 450, Variation: 100, Description: "CO2 sensor"},
			},
		},
	}
}
