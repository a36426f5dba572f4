package hubservice

import (
	"context"
	"io"

	"github.com/itsatony/envmon/internal/analysis"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/events"
	"github.com/itsatony/envmon/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// RunAnalysis analyzes the configured window of every registered sensor and
// archives the report. The archive name is empty when no archive is wired.
func (s *HubService) RunAnalysis(ctx context.Context) (*analysis.Report, string, error) {
	analyzer := analysis.NewAnalyzer(analysis.NewStoreSource(s.Devices, s.Readings), s.analysis)
	rep, err := analyzer.Run(ctx)
	if err != nil {
		nuts.L.Errorf("[HubService] Analysis run failed: %v", err)
		return nil, "", err
	}

	var name string
	if s.Reports != nil {
		name, err = s.Reports.SaveReport(ctx, rep)
		if err != nil {
			return rep, "", err
		}
		s.pruneReports(ctx)
	}

	s.Events.Emit(events.AnalysisCompleted, name)
	return rep, name, nil
}

func (s *HubService) pruneReports(ctx context.Context) {
	if s.reportRetention <= 0 {
		return
	}
	if _, err := s.Reports.DeleteOldReports(ctx, s.now().Add(-s.reportRetention)); err != nil {
		nuts.L.Warnf("[HubService] Failed to prune old reports: %v", err)
	}
}

// ListAnalysisReports lists the archived reports, newest first
func (s *HubService) ListAnalysisReports(ctx context.Context) ([]models.ReportFile, error) {
	if s.Reports == nil {
		return []models.ReportFile{}, nil
	}
	return s.Reports.List(ctx)
}

// StreamAnalysisReport copies one archived report to w
func (s *HubService) StreamAnalysisReport(ctx context.Context, name string, w io.Writer) error {
	if s.Reports == nil {
		return errors.NewNotFoundError("report archive is not configured", nil)
	}
	return s.Reports.StreamReport(ctx, name, w)
}

// Health pings the backing stores
func (s *HubService) Health(ctx context.Context) map[string]string {
	status := map[string]string{"devices": "ok", "readings": "ok"}
	if err := s.Devices.Ping(ctx); err != nil {
		status["devices"] = err.Error()
	}
	if err := s.Readings.Ping(ctx); err != nil {
		status["readings"] = err.Error()
	}
	return status
}
