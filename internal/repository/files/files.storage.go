// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultPermissions = 0755
	reportFilePrefix   = "sensor_analysis_report_"
	reportFileExt      = ".json"
	defaultDateFormat  = "20060102_150405"
)

// FileConfig holds configuration for the report archive
type FileConfig struct {
	BasePath string
}

// ReportRepo archives analysis reports as JSON files under BasePath
type ReportRepo struct {
	config FileConfig
	now    func() time.Time
}

// NewReportRepository creates the archive directory if needed
func NewReportRepository(config FileConfig) (*ReportRepo, error) {
	if err := createDirectoryIfNotExists(config.BasePath); err != nil {
		return nil, err
	}
	return &ReportRepo{config: config, now: time.Now}, nil
}

// SaveReport writes report as indented JSON and returns the file name
func (r *ReportRepo) SaveReport(ctx context.Context, report any) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.NewInternalError("failed to encode report", err)
	}

	name := r.generateFileName()
	dst, err := os.OpenFile(filepath.Join(r.config.BasePath, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", errors.NewInternalError("failed to create report file", err)
	}
	defer dst.Close()

	if _, err := dst.Write(data); err != nil {
		return "", errors.NewInternalError("failed to write report file", err)
	}

	nuts.L.Infof("[ReportRepo] Stored report: %s", name)
	return name, nil
}

// generateFileName picks sensor_analysis_report_YYYYMMDD_HHMMSS.json,
// suffixing a counter when a report was already saved within the second.
func (r *ReportRepo) generateFileName() string {
	stamp := r.now().UTC().Format(defaultDateFormat)
	name := reportFilePrefix + stamp + reportFileExt
	for i := 1; fileExists(filepath.Join(r.config.BasePath, name)); i++ {
		name = fmt.Sprintf("%s%s_%d%s", reportFilePrefix, stamp, i, reportFileExt)
	}
	return name
}

// List returns the archived reports, newest first
func (r *ReportRepo) List(ctx context.Context) ([]models.ReportFile, error) {
	entries, err := os.ReadDir(r.config.BasePath)
	if err != nil {
		return nil, errors.NewInternalError("failed to list reports", err)
	}

	reports := []models.ReportFile{}
	for _, e := range entries {
		if e.IsDir() || !isReportFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		reports = append(reports, models.ReportFile{
			Name:      e.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	// the timestamped names sort chronologically
	sort.Slice(reports, func(i, j int) bool { return reports[i].Name > reports[j].Name })
	return reports, nil
}

// StreamReport copies an archived report to w
func (r *ReportRepo) StreamReport(ctx context.Context, name string, w io.Writer) error {
	if !isReportFile(name) || filepath.Base(name) != name {
		return errors.NewNotFoundError("report not found", nil)
	}
	f, err := os.Open(filepath.Join(r.config.BasePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("report not found", err)
		}
		return errors.NewInternalError("failed to open report", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.NewInternalError("failed to stream report", err)
	}
	return nil
}

// DeleteOldReports removes reports last modified before the cutoff
func (r *ReportRepo) DeleteOldReports(ctx context.Context, before time.Time) (int, error) {
	var deletedCount int
	err := filepath.Walk(r.config.BasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isReportFile(info.Name()) {
			return nil
		}
		if info.ModTime().Before(before) {
			if err := os.Remove(path); err != nil {
				nuts.L.Errorf("[ReportRepo] Failed to delete old report %s: %v", path, err)
				return nil
			}
			deletedCount++
		}
		return nil
	})
	if err != nil {
		return deletedCount, errors.NewInternalError("failed to delete old reports", err)
	}

	nuts.L.Infof("[ReportRepo] Deleted %d reports older than %v", deletedCount, before)
	return deletedCount, nil
}

func isReportFile(name string) bool {
	return strings.HasPrefix(name, reportFilePrefix) && strings.HasSuffix(name, reportFileExt)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err := os.MkdirAll(path, defaultPermissions)
		if err != nil {
			return errors.NewInternalError("failed to create directory", err)
		}
	}
	return nil
}
