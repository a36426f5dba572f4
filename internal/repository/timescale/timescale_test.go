package timescale

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itsatony/envmon/internal/database"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*ReadingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newReadingRepo(database.Wrap(sqlx.NewDb(db, "postgres"))), mock
}

var (
	t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 = time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(query.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	thr := 10.0
	where, args = whereClause(query.Filter{
		SensorType: models.Temperature,
		Range:      query.TimeRange{End: &t1},
		ValueAbove: &thr,
	})
	assert.Equal(t, " WHERE sensor_type = ? AND timestamp <= ? AND value > ?", where)
	assert.Equal(t, []interface{}{"temperature", t1, 10.0}, args)
}

func TestReadingRepo_FindPaged(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "device_id", "sensor_id", "sensor_type", "timestamp", "value", "unit"}).
		AddRow("rd_1", "dev001", "temp001", "temperature", t1, 23.5, "°C").
		AddRow("rd_2", "dev001", "hum001", "humidity", t0, 51.0, "%")
	mock.ExpectQuery(`SELECT id, device_id, sensor_id, sensor_type, timestamp, value, unit FROM sensor_readings WHERE device_id = \$1 AND timestamp >= \$2 AND timestamp <= \$3 ORDER BY timestamp DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("dev001", t0, t1, 10, 20).
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), query.Filter{
		DeviceID: "dev001",
		Range:    query.TimeRange{Start: &t0, End: &t1},
	}, query.Window{Skip: 20, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Temperature, got[0].SensorType)
	assert.Equal(t, 23.5, got[0].Value)
	assert.Equal(t, "%", got[1].Unit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingRepo_FindUnboundedHasNoLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM sensor_readings WHERE sensor_id = \$1 ORDER BY timestamp DESC$`).
		WithArgs("temp001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "sensor_id", "sensor_type", "timestamp", "value", "unit"}))

	got, err := repo.Find(context.Background(), query.Filter{SensorID: "temp001"}, query.Unbounded())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingRepo_Count(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sensor_readings WHERE device_id = \$1`).
		WithArgs("dev001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))

	total, err := repo.Count(context.Background(), query.Filter{DeviceID: "dev001"})
	require.NoError(t, err)
	assert.Equal(t, int64(23), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingRepo_AggregateEmptyWindowIsNull(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`STDDEV_POP\(value\) AS stddev`).
		WithArgs("dev001", "temp001").
		WillReturnRows(sqlmock.NewRows([]string{"avg", "min", "max", "stddev", "count"}).
			AddRow(nil, nil, nil, nil, 0))

	res, err := repo.Aggregate(context.Background(), query.Filter{DeviceID: "dev001", SensorID: "temp001"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Nil(t, res.Avg)
	assert.Nil(t, res.StdDev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingRepo_Aggregate(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT AVG\(value\) AS avg, MIN\(value\) AS min, MAX\(value\) AS max`).
		WithArgs("temp001").
		WillReturnRows(sqlmock.NewRows([]string{"avg", "min", "max", "stddev", "count"}).
			AddRow(5.0, 2.0, 9.0, 2.0, 8))

	res, err := repo.Aggregate(context.Background(), query.Filter{SensorID: "temp001"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.Count)
	assert.Equal(t, 2.0, *res.StdDev)
	assert.Equal(t, 9.0, *res.Max)
}

func TestReadingRepo_MaxByDevice(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT device_id, MAX\(value\) AS max_value\s+FROM sensor_readings WHERE sensor_type = \$1 AND value > \$2\s+GROUP BY device_id\s+ORDER BY device_id`).
		WithArgs("temperature", 10.0).
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "max_value"}).AddRow("A", 15.0))

	thr := 10.0
	alerts, err := repo.MaxByDevice(context.Background(), query.Filter{SensorType: models.Temperature, ValueAbove: &thr})
	require.NoError(t, err)
	assert.Equal(t, []models.ThresholdAlert{{DeviceID: "A", MaxValue: 15}}, alerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingRepo_InsertAssignsID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO sensor_readings`).
		WithArgs(sqlmock.AnyArg(), "dev001", "temp001", "temperature", t0, 21.5, "°C").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rd := &models.Reading{DeviceID: "dev001", SensorID: "temp001", SensorType: models.Temperature, Timestamp: t0, Value: 21.5, Unit: "°C"}
	require.NoError(t, repo.Insert(context.Background(), rd))
	assert.NotEmpty(t, rd.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadingRepo_StoreFailureIsDatabaseError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(assert.AnError)

	_, err := repo.Count(context.Background(), query.Filter{})
	assert.True(t, errors.IsDatabase(err))
}

func TestReadingRepo_DistinctSensorTypes(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT DISTINCT sensor_type FROM sensor_readings`).
		WillReturnRows(sqlmock.NewRows([]string{"sensor_type"}).AddRow("co2").AddRow("temperature"))

	types, err := repo.DistinctSensorTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.SensorType{models.CO2, models.Temperature}, types)
}
