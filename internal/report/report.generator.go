// Package report composes window statistics, threshold alerts and the raw
// readings of one device sensor, and renders them as CSV or XLSX.
package report

import (
	"context"

	"github.com/itsatony/envmon/internal/aggregate"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/repository"
)

// Request selects the report window
type Request struct {
	DeviceID  string
	SensorID  string
	Range     query.TimeRange
	Threshold *float64
}

// Filter is the store filter for the request
func (r Request) Filter() query.Filter {
	return query.Filter{DeviceID: r.DeviceID, SensorID: r.SensorID, Range: r.Range}
}

type Generator struct {
	readings repository.ReadingRepository
	engine   *aggregate.Engine
}

func NewGenerator(readings repository.ReadingRepository, engine *aggregate.Engine) *Generator {
	return &Generator{readings: readings, engine: engine}
}

// Generate builds the report. Readings are newest-first and unbounded.
func (g *Generator) Generate(ctx context.Context, req Request) (*models.Report, error) {
	filter := req.Filter()
	rows, err := g.readings.Find(ctx, filter, query.Unbounded())
	if err != nil {
		return nil, err
	}

	var stats models.AggregateResult
	if g.engine.Native() {
		stats, err = g.engine.Stats(ctx, filter)
		if err != nil {
			return nil, err
		}
	} else {
		stats = aggregate.Reduce(rows)
	}

	return &models.Report{
		Stats:    stats,
		Exceed:   aggregate.CompareMax(req.DeviceID, stats, req.Threshold),
		Readings: rows,
	}, nil
}

// Readings returns only the raw rows of the report window
func (g *Generator) Readings(ctx context.Context, req Request) ([]models.Reading, error) {
	return g.readings.Find(ctx, req.Filter(), query.Unbounded())
}
