// FilePath: internal/repository/memory/memory.devices.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
)

// DeviceRepo is an in-process device registry
type DeviceRepo struct {
	mu      sync.RWMutex
	devices map[string]models.Device
	order   []string
}

func NewDeviceRepository() *DeviceRepo {
	return &DeviceRepo{devices: make(map[string]models.Device)}
}

func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[device.DeviceID]; exists {
		return errors.NewConflictError(fmt.Sprintf("device %s already exists", device.DeviceID), nil)
	}
	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}
	stored := *device
	stored.Sensors = append(models.Sensors{}, device.Sensors...)
	r.devices[device.DeviceID] = stored
	r.order = append(r.order, device.DeviceID)
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("device %s not found", deviceID), nil)
	}
	return &d, nil
}

func (r *DeviceRepo) List(ctx context.Context) ([]models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out, nil
}

func (r *DeviceRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.devices)), nil
}

func (r *DeviceRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
