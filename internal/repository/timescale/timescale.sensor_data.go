// FilePath: internal/repository/timescale/timescale.sensor_data.go
package timescale

import (
	"context"
	"fmt"

	"github.com/itsatony/envmon/internal/database"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	nuts "github.com/vaudience/go-nuts"
)

const readingColumns = "id, device_id, sensor_id, sensor_type, timestamp, value, unit"

// ReadingRepo stores readings in a TimescaleDB hypertable and aggregates
// them natively.
type ReadingRepo struct {
	TimeScaleBaseRepo
}

func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := newReadingRepo(db)
	err := repo.initializeSchema()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func newReadingRepo(db database.DB) *ReadingRepo {
	return &ReadingRepo{TimeScaleBaseRepo{db: db}}
}

func (r *ReadingRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			sensor_id TEXT NOT NULL,
			sensor_type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (id, timestamp)
		)`,
		`SELECT create_hypertable('sensor_readings', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_sensor_timestamp
			ON sensor_readings(sensor_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_device_timestamp
			ON sensor_readings(device_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_type_timestamp
			ON sensor_readings(sensor_type, timestamp DESC)`,
	}

	for _, q := range queries {
		_, err := r.db.GetDB().Exec(q)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	nuts.L.Infof("[ReadingRepo] sensor_readings hypertable ready")
	return nil
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = nuts.NID("rd", 12)
	}
	q := `
		INSERT INTO sensor_readings (id, device_id, sensor_id, sensor_type, timestamp, value, unit)
		VALUES (:id, :device_id, :sensor_id, :sensor_type, :timestamp, :value, :unit)`

	_, err := r.db.GetDB().NamedExecContext(ctx, q, reading)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

func (r *ReadingRepo) Find(ctx context.Context, filter query.Filter, window query.Window) ([]models.Reading, error) {
	where, args := whereClause(filter)
	q := "SELECT " + readingColumns + " FROM sensor_readings" + where + " ORDER BY timestamp DESC"
	if window.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, window.Limit)
	}
	if window.Skip > 0 {
		q += " OFFSET ?"
		args = append(args, window.Skip)
	}

	readings := []models.Reading{}
	err := r.db.GetDB().SelectContext(ctx, &readings, r.rebind(q), args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get readings", err)
	}
	return readings, nil
}

func (r *ReadingRepo) Count(ctx context.Context, filter query.Filter) (int64, error) {
	where, args := whereClause(filter)
	var total int64
	err := r.db.GetDB().GetContext(ctx, &total, r.rebind("SELECT COUNT(*) FROM sensor_readings"+where), args...)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count readings", err)
	}
	return total, nil
}

func (r *ReadingRepo) DistinctSensorTypes(ctx context.Context) ([]models.SensorType, error) {
	types := []models.SensorType{}
	err := r.db.GetDB().SelectContext(ctx, &types, "SELECT DISTINCT sensor_type FROM sensor_readings ORDER BY sensor_type")
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor types", err)
	}
	return types, nil
}

// Aggregate computes the window statistics in one pass. Every aggregate
// is NULL over an empty set, which leaves the result fields nil.
func (r *ReadingRepo) Aggregate(ctx context.Context, filter query.Filter) (models.AggregateResult, error) {
	where, args := whereClause(filter)
	q := `SELECT AVG(value) AS avg, MIN(value) AS min, MAX(value) AS max,
		STDDEV_POP(value) AS stddev, COUNT(*) AS count
		FROM sensor_readings` + where

	var res models.AggregateResult
	err := r.db.GetDB().GetContext(ctx, &res, r.rebind(q), args...)
	if err != nil {
		return models.AggregateResult{}, errors.NewDatabaseError("failed to aggregate readings", err)
	}
	return res, nil
}

// MaxByDevice groups the filtered readings by device and returns each
// group's maximum, ordered by device id.
func (r *ReadingRepo) MaxByDevice(ctx context.Context, filter query.Filter) ([]models.ThresholdAlert, error) {
	where, args := whereClause(filter)
	q := fmt.Sprintf(`SELECT device_id, MAX(value) AS max_value
		FROM sensor_readings%s
		GROUP BY device_id
		ORDER BY device_id`, where)

	alerts := []models.ThresholdAlert{}
	err := r.db.GetDB().SelectContext(ctx, &alerts, r.rebind(q), args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to group readings by device", err)
	}
	return alerts, nil
}
