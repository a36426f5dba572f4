// FilePath: internal/cache/cache.latest.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const (
	latestKeyPrefix = "reading:latest:"
	maxSetAttempts  = 10
)

// LatestCache keeps the newest reading of every sensor in redis. Entries
// expire so that silent sensors fall back to the store.
type LatestCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings the configured redis instance
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.NewUnavailableError("redis not reachable", err)
	}
	nuts.L.Infof("[Cache] Connected to redis at %s/%d", cfg.Addr(), cfg.DB)
	return client, nil
}

func NewLatestCache(client *redis.Client, ttl time.Duration) *LatestCache {
	return &LatestCache{client: client, ttl: ttl}
}

func latestKey(sensorID string) string {
	return latestKeyPrefix + sensorID
}

// GetLatest returns the cached reading, or nil on a miss
func (c *LatestCache) GetLatest(ctx context.Context, sensorID string) (*models.Reading, error) {
	raw, err := c.client.Get(ctx, latestKey(sensorID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errors.NewUnavailableError("failed to read latest reading cache", err)
	}
	var reading models.Reading
	if err := json.Unmarshal(raw, &reading); err != nil {
		return nil, errors.NewInternalError("corrupt latest reading cache entry", err)
	}
	return &reading, nil
}

// SetLatest stores reading unless a newer one is already cached. The
// compare and the write run in one WATCH transaction, retried when another
// writer touches the key in between.
func (c *LatestCache) SetLatest(ctx context.Context, reading models.Reading) error {
	raw, err := json.Marshal(reading)
	if err != nil {
		return errors.NewInternalError("failed to encode reading", err)
	}
	key := latestKey(reading.SensorID)

	setIfNewer := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var cached models.Reading
			if json.Unmarshal(current, &cached) == nil && cached.Timestamp.After(reading.Timestamp) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSetAttempts; attempt++ {
		err = c.client.Watch(ctx, setIfNewer, key)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err != nil {
		return errors.NewUnavailableError("failed to update latest reading cache", err)
	}
	return nil
}
