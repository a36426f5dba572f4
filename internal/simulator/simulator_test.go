package simulator

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/envmon/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) time.Time {
	return time.Date(2024, 3, 1, hour, 30, 0, 0, time.UTC)
}

func assertRounded(t *testing.T, v float64) {
	t.Helper()
	assert.InDelta(t, math.Round(v*100), v*100, 1e-6, "%v has more than two decimals", v)
}

func TestGenerators_DailyOffsets(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cases := []struct {
		name   string
		spec   SensorSpec
		hour   int
		lo, hi float64
	}{
		{"temperature night", SensorSpec{Type: models.Temperature, BaseValue: 25, Variation: 2}, 23, 21, 25},
		{"temperature midday", SensorSpec{Type: models.Temperature, BaseValue: 25, Variation: 2}, 12, 26, 30},
		{"temperature evening", SensorSpec{Type: models.Temperature, BaseValue: 25, Variation: 2}, 19, 23, 27},
		{"humidity morning", SensorSpec{Type: models.Humidity, BaseValue: 60}, 7, 65, 75},
		{"humidity night", SensorSpec{Type: models.Humidity, BaseValue: 60}, 2, 70, 80},
		{"humidity afternoon", SensorSpec{Type: models.Humidity, BaseValue: 60}, 14, 55, 65},
		{"co2 working hours", SensorSpec{Type: models.CO2, BaseValue: 400}, 9, 480, 520},
		{"co2 off hours", SensorSpec{Type: models.CO2, BaseValue: 400}, 20, 380, 420},
		{"generic", SensorSpec{Type: models.Other, BaseValue: 10, Variation: 1}, 12, 9, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(tc.spec, rng)
			for i := 0; i < 50; i++ {
				v := g.Generate(at(tc.hour))
				assert.GreaterOrEqual(t, v, tc.lo)
				assert.LessOrEqual(t, v, tc.hi)
				assertRounded(t, v)
			}
		})
	}
}

func TestSampleFleet(t *testing.T) {
	fleet := SampleFleet()
	require.Len(t, fleet, 3)
	assert.Equal(t, []time.Duration{30 * time.Second, 45 * time.Second, time.Minute},
		[]time.Duration{fleet[0].Interval, fleet[1].Interval, fleet[2].Interval})

	d := fleet[0].Device()
	assert.Equal(t, "dev001", d.DeviceID)
	require.Len(t, d.Sensors, 3)
	assert.Equal(t, models.CO2, d.Sensors[2].Type)
}

type capturePublisher struct {
	mu       sync.Mutex
	payloads []Payload
	notify   chan struct{}
}

func (c *capturePublisher) Publish(ctx context.Context, p Payload) error {
	c.mu.Lock()
	c.payloads = append(c.payloads, p)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

func (c *capturePublisher) Close() {}

func (c *capturePublisher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func TestRunner_PublishesUntilCancelled(t *testing.T) {
	pub := &capturePublisher{notify: make(chan struct{}, 1)}
	devices := []DeviceSpec{
		{DeviceID: "a", Interval: 5 * time.Millisecond, Sensors: []SensorSpec{{SensorID: "a1", Type: models.Temperature, BaseValue: 20, Variation: 1}}},
		{DeviceID: "b", Interval: 5 * time.Millisecond, Sensors: []SensorSpec{{SensorID: "b1", Type: models.CO2, BaseValue: 400}}},
	}
	r := NewRunner(devices, pub, 42)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return pub.count() >= 6 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}

	seen := map[string]bool{}
	pub.mu.Lock()
	for _, p := range pub.payloads {
		seen[p.SensorID] = true
	}
	pub.mu.Unlock()
	assert.True(t, seen["a1"] && seen["b1"])
}

func TestHTTPPublisher(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/readings":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			if got.DeviceID == "broken" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
		case "/api/v1/devices":
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer srv.Close()

	p := NewHTTPPublisher(srv.URL + "/api/v1")
	require.NoError(t, p.Publish(context.Background(), Payload{DeviceID: "dev001", SensorID: "temp001", SensorType: models.Temperature, Value: 21.25, Unit: "°C"}))
	assert.Equal(t, 21.25, got.Value)
	assert.Equal(t, models.Temperature, got.SensorType)

	assert.Error(t, p.Publish(context.Background(), Payload{DeviceID: "broken"}))
	assert.NoError(t, p.RegisterDevice(context.Background(), SampleFleet()[0].Device()))
}

func TestRunClientID(t *testing.T) {
	a, b := runClientID("envmon"), runClientID("envmon")
	assert.True(t, strings.HasPrefix(a, "envmon-sim-"))
	assert.NotEqual(t, a, b)
}
