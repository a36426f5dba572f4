package aggregate

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// welfordStore adds a single-pass native aggregation on top of the
// memory store, standing in for a database grouping pipeline.
type welfordStore struct {
	*memory.ReadingRepo
}

func (s welfordStore) Aggregate(ctx context.Context, f query.Filter) (models.AggregateResult, error) {
	rows, err := s.Find(ctx, f, query.Unbounded())
	if err != nil {
		return models.AggregateResult{}, err
	}
	var n int64
	var mean, m2 float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		n++
		d := r.Value - mean
		mean += d / float64(n)
		m2 += d * (r.Value - mean)
		lo = math.Min(lo, r.Value)
		hi = math.Max(hi, r.Value)
	}
	if n == 0 {
		return models.AggregateResult{}, nil
	}
	std := math.Sqrt(m2 / float64(n))
	return models.AggregateResult{Avg: &mean, Min: &lo, Max: &hi, StdDev: &std, Count: n}, nil
}

func (s welfordStore) MaxByDevice(ctx context.Context, f query.Filter) ([]models.ThresholdAlert, error) {
	rows, err := s.Find(ctx, f, query.Unbounded())
	if err != nil {
		return nil, err
	}
	return MaxByDevice(rows), nil
}

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func insert(t *testing.T, repo *memory.ReadingRepo, device string, st models.SensorType, values ...float64) {
	t.Helper()
	for i, v := range values {
		require.NoError(t, repo.Insert(context.Background(), &models.Reading{
			DeviceID:   device,
			SensorID:   device + "-" + string(st),
			SensorType: st,
			Timestamp:  t0.Add(time.Duration(i) * time.Minute),
			Value:      v,
		}))
	}
}

func TestEngine_DetectsNativeAggregation(t *testing.T) {
	repo := memory.NewReadingRepository()
	assert.False(t, NewEngine(repo).Native())
	assert.True(t, NewEngine(welfordStore{repo}).Native())
}

func TestEngine_NativeAndReductionAgree(t *testing.T) {
	repo := memory.NewReadingRepository()
	insert(t, repo, "dev001", models.Temperature, 21.3, 22.8, 19.4, 25.1, 23.3, 20.05, 24.9)

	filter := query.Filter{DeviceID: "dev001", SensorID: "dev001-temperature"}
	reduced, err := NewEngine(repo).Stats(context.Background(), filter)
	require.NoError(t, err)
	native, err := NewEngine(welfordStore{repo}).Stats(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, native.Count, reduced.Count)
	assert.InDelta(t, *native.Avg, *reduced.Avg, 1e-9)
	assert.InDelta(t, *native.StdDev, *reduced.StdDev, 1e-9)
	assert.Equal(t, *native.Min, *reduced.Min)
	assert.Equal(t, *native.Max, *reduced.Max)
}

func TestEngine_EmptyWindowIsAbsent(t *testing.T) {
	repo := memory.NewReadingRepository()
	insert(t, repo, "dev001", models.Temperature, 21)

	res, err := NewEngine(repo).Stats(context.Background(), query.Filter{SensorID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Count)
	assert.Nil(t, res.Avg)
	assert.Nil(t, res.Min)
	assert.Nil(t, res.Max)
	assert.Nil(t, res.StdDev)
}

func TestEngine_ThresholdAlerts(t *testing.T) {
	store := memory.NewReadingRepository()
	insert(t, store, "A", models.Temperature, 5, 15)
	insert(t, store, "B", models.Temperature, 8)
	insert(t, store, "C", models.Humidity, 90)

	for _, eng := range []*Engine{NewEngine(store), NewEngine(welfordStore{store})} {
		alerts, err := eng.ThresholdAlerts(context.Background(), models.Temperature, 10, query.TimeRange{})
		require.NoError(t, err)
		assert.Equal(t, []models.ThresholdAlert{{DeviceID: "A", MaxValue: 15}}, alerts)

		alerts, err = eng.ThresholdAlerts(context.Background(), models.Temperature, 20, query.TimeRange{})
		require.NoError(t, err)
		assert.Empty(t, alerts)
	}
}

func TestEngine_ThresholdAlertsRespectsWindow(t *testing.T) {
	store := memory.NewReadingRepository()
	insert(t, store, "A", models.CO2, 400, 1200, 450)

	end := t0
	alerts, err := NewEngine(store).ThresholdAlerts(context.Background(), models.CO2, 1000, query.TimeRange{End: &end})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCompareMax(t *testing.T) {
	max := 15.0
	window := models.AggregateResult{Max: &max, Count: 2}

	thr := 10.0
	assert.Equal(t, []models.ThresholdAlert{{DeviceID: "A", MaxValue: 15}}, CompareMax("A", window, &thr))

	thr = 15.0
	assert.Empty(t, CompareMax("A", window, &thr))
	assert.NotNil(t, CompareMax("A", window, nil))
	assert.Empty(t, CompareMax("A", models.AggregateResult{}, &thr))
}
