package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itsatony/envmon/internal/database"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*DeviceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newDeviceRepo(database.Wrap(sqlx.NewDb(db, "postgres"))), mock
}

var deviceColumns = []string{"device_id", "device_name", "location", "description", "sensors", "created_at"}

func TestDeviceRepo_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO devices`).
		WithArgs("dev001", "Server Room", "Building A", "", []byte(`[{"sensor_id":"temp001","type":"temperature","unit":"°C","description":""}]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	dev := &models.Device{
		DeviceID:   "dev001",
		DeviceName: "Server Room",
		Location:   "Building A",
		Sensors:    models.Sensors{{SensorID: "temp001", Type: models.Temperature, Unit: "°C"}},
	}
	require.NoError(t, repo.Create(context.Background(), dev))
	assert.False(t, dev.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepo_CreateDuplicateIsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO devices`).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.Device{DeviceID: "dev001", DeviceName: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestDeviceRepo_Get(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM devices WHERE device_id = \$1`).
		WithArgs("dev001").
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow("dev001", "Server Room", "Building A", "", []byte(`[{"sensor_id":"co2001","type":"co2","unit":"ppm"}]`), created))

	dev, err := repo.Get(context.Background(), "dev001")
	require.NoError(t, err)
	require.Len(t, dev.Sensors, 1)
	s, ok := dev.Sensor("co2001")
	assert.True(t, ok)
	assert.Equal(t, models.CO2, s.Type)
	assert.Equal(t, created, dev.CreatedAt)
}

func TestDeviceRepo_GetUnknownIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM devices WHERE device_id = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestDeviceRepo_ListAndCount(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM devices ORDER BY created_at, device_id`).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow("dev001", "a", "", "", []byte(`[]`), now).
			AddRow("dev002", "b", "", "", nil, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM devices`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	devices, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Empty(t, devices[1].Sensors)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
