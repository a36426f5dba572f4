package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat_AcceptsNumbersAndNumericStrings(t *testing.T) {
	var in ReadingInput
	require.NoError(t, json.Unmarshal([]byte(`{"value": 21.5}`), &in))
	require.NotNil(t, in.Value)
	assert.Equal(t, 21.5, float64(*in.Value))

	in = ReadingInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"value": "400"}`), &in))
	assert.Equal(t, 400.0, float64(*in.Value))

	in = ReadingInput{}
	assert.Error(t, json.Unmarshal([]byte(`{"value": "warm"}`), &in))
}

func TestFlexFloat_RejectsNonFiniteStrings(t *testing.T) {
	for _, raw := range []string{`"NaN"`, `"Inf"`, `"-Inf"`, `"+Infinity"`} {
		var f FlexFloat
		err := f.UnmarshalJSON([]byte(raw))
		require.Error(t, err, raw)
		var numErr *NumberFormatError
		assert.ErrorAs(t, err, &numErr)
	}
}

func TestSensors_ValueScanRoundTrip(t *testing.T) {
	sensors := Sensors{
		{SensorID: "temp001", Type: Temperature, Unit: "°C", Description: "temperature"},
		{SensorID: "co2_001", Type: CO2, Unit: "ppm"},
	}
	v, err := sensors.Value()
	require.NoError(t, err)

	var scanned Sensors
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, sensors, scanned)

	var empty Sensors
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}

func TestDevice_SensorLookup(t *testing.T) {
	d := Device{DeviceID: "dev001", Sensors: Sensors{{SensorID: "hum001", Type: Humidity}}}

	s, ok := d.Sensor("hum001")
	assert.True(t, ok)
	assert.Equal(t, Humidity, s.Type)

	_, ok = d.Sensor("nope")
	assert.False(t, ok)
}
