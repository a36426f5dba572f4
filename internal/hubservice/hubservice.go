package hubservice

import (
	"time"

	"github.com/itsatony/envmon/internal/aggregate"
	"github.com/itsatony/envmon/internal/analysis"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/events"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/report"
	"github.com/itsatony/envmon/internal/repository"
)

// Options carries the optional collaborators and tunables of the hub
type Options struct {
	Latest          repository.LatestCache
	Reports         repository.ReportArchive
	Events          *events.Bus
	DefaultLimit    int
	DefaultPerPage  int
	Analysis        analysis.Options
	ReportRetention time.Duration
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Devices   repository.DeviceRepository
	Readings  repository.ReadingRepository
	Latest    repository.LatestCache
	Reports   repository.ReportArchive
	Events    *events.Bus
	Engine    *aggregate.Engine
	Generator *report.Generator

	defaultLimit    int
	defaultPerPage  int
	analysis        analysis.Options
	reportRetention time.Duration
	now             func() time.Time
}

// New creates a new HubService instance
func New(devices repository.DeviceRepository, readings repository.ReadingRepository, opts Options) *HubService {
	engine := aggregate.NewEngine(readings)
	svc := &HubService{
		Devices:         devices,
		Readings:        readings,
		Latest:          opts.Latest,
		Reports:         opts.Reports,
		Events:          opts.Events,
		Engine:          engine,
		Generator:       report.NewGenerator(readings, engine),
		defaultLimit:    opts.DefaultLimit,
		defaultPerPage:  opts.DefaultPerPage,
		analysis:        opts.Analysis,
		reportRetention: opts.ReportRetention,
		now:             time.Now,
	}
	if svc.Events == nil {
		svc.Events = events.NewBus()
	}
	if svc.defaultLimit <= 0 {
		svc.defaultLimit = query.DefaultLimit
	}
	if svc.defaultPerPage <= 0 {
		svc.defaultPerPage = query.DefaultPerPage
	}
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Devices == nil {
		return ErrMissingRepository("devices")
	}
	if s.Readings == nil {
		return ErrMissingRepository("readings")
	}
	return nil
}

// DefaultLimit is the flat listing size used when none is requested
func (s *HubService) DefaultLimit() int {
	return s.defaultLimit
}

// DefaultPerPage is the page size used when none is requested
func (s *HubService) DefaultPerPage() int {
	return s.defaultPerPage
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
