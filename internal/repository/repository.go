// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
)

// ReadingRepository defines the logical operations consumed from the
// time-series store. Find always returns readings newest-first.
type ReadingRepository interface {
	Insert(ctx context.Context, reading *models.Reading) error
	Find(ctx context.Context, filter query.Filter, window query.Window) ([]models.Reading, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)
	DistinctSensorTypes(ctx context.Context) ([]models.SensorType, error)
	Ping(ctx context.Context) error
}

// ReadingAggregator is implemented by stores that can group and reduce
// natively in a single pass. Stores without it are reduced in-process.
type ReadingAggregator interface {
	Aggregate(ctx context.Context, filter query.Filter) (models.AggregateResult, error)
	MaxByDevice(ctx context.Context, filter query.Filter) ([]models.ThresholdAlert, error)
}

// DeviceRepository defines the interface for the device registry
type DeviceRepository interface {
	Create(ctx context.Context, device *models.Device) error
	Get(ctx context.Context, deviceID string) (*models.Device, error)
	List(ctx context.Context) ([]models.Device, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// LatestCache keeps the most recent reading per sensor close at hand
type LatestCache interface {
	GetLatest(ctx context.Context, sensorID string) (*models.Reading, error)
	SetLatest(ctx context.Context, reading models.Reading) error
}

// ReportArchive persists generated analysis reports
type ReportArchive interface {
	SaveReport(ctx context.Context, report any) (string, error)
	List(ctx context.Context) ([]models.ReportFile, error)
	StreamReport(ctx context.Context, name string, w io.Writer) error
	DeleteOldReports(ctx context.Context, before time.Time) (int, error)
}
