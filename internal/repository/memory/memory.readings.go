// FilePath: internal/repository/memory/memory.readings.go
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingRepo is an in-process reading store. It offers no native
// aggregation; callers reduce the materialized rows themselves.
type ReadingRepo struct {
	mu       sync.RWMutex
	readings []models.Reading
}

func NewReadingRepository() *ReadingRepo {
	return &ReadingRepo{}
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	if reading == nil {
		return errors.NewValidationError("reading is required", nil)
	}
	if reading.ID == "" {
		reading.ID = nuts.NID("rd", 12)
	}
	r.mu.Lock()
	r.readings = append(r.readings, *reading)
	r.mu.Unlock()
	return nil
}

func (r *ReadingRepo) Find(ctx context.Context, filter query.Filter, window query.Window) ([]models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewDatabaseError("failed to get readings", err)
	}
	matched := r.match(filter)

	// newest first; equal timestamps keep the most recently inserted first
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if window.Skip < 0 {
		window.Skip = 0
	}
	if window.Skip >= len(matched) {
		return []models.Reading{}, nil
	}
	matched = matched[window.Skip:]
	if window.Limit > 0 && window.Limit < len(matched) {
		matched = matched[:window.Limit]
	}
	return matched, nil
}

func (r *ReadingRepo) Count(ctx context.Context, filter query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.NewDatabaseError("failed to count readings", err)
	}
	return int64(len(r.match(filter))), nil
}

func (r *ReadingRepo) DistinctSensorTypes(ctx context.Context) ([]models.SensorType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[models.SensorType]struct{})
	types := []models.SensorType{}
	for _, rd := range r.readings {
		if _, ok := seen[rd.SensorType]; ok {
			continue
		}
		seen[rd.SensorType] = struct{}{}
		types = append(types, rd.SensorType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types, nil
}

func (r *ReadingRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

// match copies the matching readings, newest insert first
func (r *ReadingRepo) match(filter query.Filter) []models.Reading {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Reading{}
	for i := len(r.readings) - 1; i >= 0; i-- {
		if filter.Matches(r.readings[i]) {
			out = append(out, r.readings[i])
		}
	}
	return out
}
