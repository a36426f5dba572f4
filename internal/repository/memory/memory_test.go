package memory

import (
	"context"
	"testing"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *ReadingRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Insert(context.Background(), &models.Reading{
			DeviceID:   "dev001",
			SensorID:   "temp001",
			SensorType: models.Temperature,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Value:      float64(i),
			Unit:       "°C",
		}))
	}
}

func TestReadingRepo_FindIsNewestFirstAndWindowed(t *testing.T) {
	repo := NewReadingRepository()
	seed(t, repo, 23)
	ctx := context.Background()

	all, err := repo.Find(ctx, query.Filter{SensorID: "temp001"}, query.Unbounded())
	require.NoError(t, err)
	require.Len(t, all, 23)
	assert.Equal(t, 22.0, all[0].Value)
	assert.Equal(t, 0.0, all[22].Value)
	assert.NotEmpty(t, all[0].ID)

	page, err := repo.Find(ctx, query.Filter{DeviceID: "dev001"}, query.Window{Skip: 20, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	past, err := repo.Find(ctx, query.Filter{DeviceID: "dev001"}, query.Window{Skip: 30, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, past)
	assert.Empty(t, past)

	total, err := repo.Count(ctx, query.Filter{DeviceID: "dev001"})
	require.NoError(t, err)
	assert.Equal(t, int64(23), total)
}

func TestReadingRepo_InclusiveEnd(t *testing.T) {
	repo := NewReadingRepository()
	seed(t, repo, 5)

	start := base.Add(time.Minute)
	end := base.Add(3 * time.Minute)
	got, err := repo.Find(context.Background(), query.Filter{
		SensorID: "temp001",
		Range:    query.TimeRange{Start: &start, End: &end},
	}, query.Unbounded())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, end, got[0].Timestamp)
	assert.Equal(t, start, got[2].Timestamp)
}

func TestReadingRepo_DistinctSensorTypes(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()
	for _, st := range []models.SensorType{models.Humidity, models.Temperature, models.Humidity, models.CO2} {
		require.NoError(t, repo.Insert(ctx, &models.Reading{SensorType: st, Timestamp: base}))
	}
	types, err := repo.DistinctSensorTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.SensorType{models.CO2, models.Humidity, models.Temperature}, types)
}

func TestDeviceRepo_DuplicateIsConflict(t *testing.T) {
	repo := NewDeviceRepository()
	ctx := context.Background()
	dev := &models.Device{DeviceID: "dev001", DeviceName: "Server Room"}

	require.NoError(t, repo.Create(ctx, dev))
	assert.False(t, dev.CreatedAt.IsZero())

	err := repo.Create(ctx, &models.Device{DeviceID: "dev001", DeviceName: "Other"})
	assert.True(t, errors.IsConflict(err))

	got, err := repo.Get(ctx, "dev001")
	require.NoError(t, err)
	assert.Equal(t, "Server Room", got.DeviceName)

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReadingRepo_NegativeSkipStartsAtFirst(t *testing.T) {
	repo := NewReadingRepository()
	seed(t, repo, 3)

	got, err := repo.Find(context.Background(), query.Filter{DeviceID: "dev001"}, query.Window{Skip: -16, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Value)
}
