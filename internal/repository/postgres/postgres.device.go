// FilePath: internal/repository/postgres/postgres.device.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itsatony/envmon/internal/database"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
)

const uniqueViolation = "23505"

// DeviceRepo persists devices with their embedded sensor list as JSONB
type DeviceRepo struct {
	PostgresBaseRepo
}

func NewDeviceRepository(db database.DB) (*DeviceRepo, error) {
	repo := newDeviceRepo(db)
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func newDeviceRepo(db database.DB) *DeviceRepo {
	return &DeviceRepo{PostgresBaseRepo{db: db}}
}

func (r *DeviceRepo) initializeSchema() error {
	q := `
		CREATE TABLE IF NOT EXISTS devices (
			device_id TEXT PRIMARY KEY,
			device_name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			sensors JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := r.db.GetDB().Exec(q); err != nil {
		return errors.NewDatabaseError("failed to initialize schema", err)
	}
	nuts.L.Infof("[DeviceRepo] devices table ready")
	return nil
}

func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}
	q := `
		INSERT INTO devices (device_id, device_name, location, description, sensors, created_at)
		VALUES (:device_id, :device_name, :location, :description, :sensors, :created_at)`

	_, err := r.db.GetDB().NamedExecContext(ctx, q, device)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return errors.NewConflictError(fmt.Sprintf("device %s already exists", device.DeviceID), err)
		}
		return errors.NewDatabaseError("failed to create device", err)
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	device := &models.Device{}
	q := `SELECT device_id, device_name, location, description, sensors, created_at
		FROM devices WHERE device_id = $1`

	err := r.db.GetDB().GetContext(ctx, device, q, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError(fmt.Sprintf("device %s not found", deviceID), err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

func (r *DeviceRepo) List(ctx context.Context) ([]models.Device, error) {
	devices := []models.Device{}
	q := `SELECT device_id, device_name, location, description, sensors, created_at
		FROM devices ORDER BY created_at, device_id`

	if err := r.db.GetDB().SelectContext(ctx, &devices, q); err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}

func (r *DeviceRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM devices`); err != nil {
		return 0, errors.NewDatabaseError("failed to count devices", err)
	}
	return total, nil
}
