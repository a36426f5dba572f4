package timescale

import (
	"context"
	"strings"

	"github.com/itsatony/envmon/internal/database"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/query"
)

type TimeScaleBaseRepo struct {
	db database.DB
}

func (r *TimeScaleBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.GetDB().PingContext(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

func (r *TimeScaleBaseRepo) Close() error {
	if err := r.db.GetDB().Close(); err != nil {
		return errors.NewDatabaseError("failed to close database", err)
	}
	return nil
}

// rebind converts ? placeholders into the driver's bindvar style
func (r *TimeScaleBaseRepo) rebind(q string) string {
	return r.db.GetDB().Rebind(q)
}

// whereClause translates a logical filter into a WHERE clause using ?
// placeholders. Both time bounds are inclusive and independent.
func whereClause(f query.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.DeviceID != "" {
		clauses = append(clauses, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if f.SensorID != "" {
		clauses = append(clauses, "sensor_id = ?")
		args = append(args, f.SensorID)
	}
	if f.SensorType != "" {
		clauses = append(clauses, "sensor_type = ?")
		args = append(args, string(f.SensorType))
	}
	if f.Range.Start != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, *f.Range.Start)
	}
	if f.Range.End != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, *f.Range.End)
	}
	if f.ValueAbove != nil {
		clauses = append(clauses, "value > ?")
		args = append(args, *f.ValueAbove)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
