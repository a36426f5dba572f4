package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *LatestCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewLatestCache(client, time.Hour)
}

func TestLatestCache_MissIsNil(t *testing.T) {
	_, c := setupTestRedis(t)
	got, err := c.GetLatest(context.Background(), "temp001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestCache_SetAndGet(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rd := models.Reading{ID: "rd_1", DeviceID: "dev001", SensorID: "temp001", SensorType: models.Temperature, Timestamp: ts, Value: 22.4, Unit: "°C"}
	require.NoError(t, c.SetLatest(ctx, rd))
	assert.True(t, mr.Exists("reading:latest:temp001"))
	assert.Equal(t, time.Hour, mr.TTL("reading:latest:temp001"))

	got, err := c.GetLatest(ctx, "temp001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rd.Value, got.Value)
	assert.True(t, rd.Timestamp.Equal(got.Timestamp))
}

func TestLatestCache_KeepsNewest(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.SetLatest(ctx, models.Reading{SensorID: "hum001", Timestamp: ts, Value: 50}))
	require.NoError(t, c.SetLatest(ctx, models.Reading{SensorID: "hum001", Timestamp: ts.Add(-time.Minute), Value: 40}))

	got, err := c.GetLatest(ctx, "hum001")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Value)
}

func TestLatestCache_ExpiredEntryIsMiss(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.SetLatest(ctx, models.Reading{SensorID: "co2001", Timestamp: time.Now().UTC(), Value: 800}))

	mr.FastForward(2 * time.Hour)
	got, err := c.GetLatest(ctx, "co2001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestCache_ServerDownIsUnavailable(t *testing.T) {
	mr, c := setupTestRedis(t)
	mr.Close()
	_, err := c.GetLatest(context.Background(), "temp001")
	require.Error(t, err)
	assert.Equal(t, 503, errors.AsAPIError(err).Code)
}

func TestLatestCache_ConcurrentWritersKeepNewest(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// newest first so that older writers race against an already newer entry
	var wg sync.WaitGroup
	for i := 8; i > 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.SetLatest(ctx, models.Reading{
				SensorID:  "temp001",
				Timestamp: ts.Add(time.Duration(i) * time.Second),
				Value:     float64(i),
			}))
		}(i)
	}
	wg.Wait()

	got, err := c.GetLatest(ctx, "temp001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8.0, got.Value)
}

func TestLatestCache_SetWhileServerDownIsUnavailable(t *testing.T) {
	mr, c := setupTestRedis(t)
	mr.Close()
	err := c.SetLatest(context.Background(), models.Reading{SensorID: "temp001", Timestamp: time.Now().UTC()})
	require.Error(t, err)
	assert.Equal(t, 503, errors.AsAPIError(err).Code)
}
