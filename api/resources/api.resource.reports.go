// FilePath: api/resources/api.resource.reports.go
package resources

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/hubservice"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/report"
	nuts "github.com/vaudience/go-nuts"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"

	csvDownloadName  = "laporan.csv"
	xlsxDownloadName = "laporan.xlsx"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHandlers encapsulates alerts, reports and the analysis archive
type ReportHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Threshold alerts
// @Description Devices whose maximum reading of a sensor type exceeded the threshold
// @Tags reports
// @Produce json
// @Param type query string true "Sensor type"
// @Param threshold query number true "Threshold"
// @Param start query string false "Start time (ISO-8601)"
// @Param end query string false "End time (ISO-8601)"
// @Success 200 {array} models.ThresholdAlert
// @Failure 400 {object} errors.APIError
// @Router /alerts/threshold [get]
func (h *ReportHandlers) GetThresholdAlerts(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var params models.ThresholdParams
	if err := decodeQuery(r, &params); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	threshold, err := query.ParseFloat("threshold", params.Threshold)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}
	window, err := query.ParseTimeRange("start", params.Start, "end", params.End)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	alerts, err := h.hubservice.ThresholdAlerts(r.Context(), params.Type, threshold, window)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, alerts)
}

// @Summary Sensor report
// @Description Statistics, threshold alerts and raw readings of one device sensor
// @Tags reports
// @Produce json
// @Param device_id query string true "Device ID"
// @Param sensor_id query string true "Sensor ID"
// @Param start query string false "Start time (ISO-8601)"
// @Param end query string false "End time (ISO-8601)"
// @Param threshold query number false "Threshold"
// @Success 200 {object} models.Report
// @Failure 400 {object} errors.APIError
// @Router /report [get]
func (h *ReportHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	req, _, apiErr := parseReportParams(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	rep, err := h.hubservice.Report(r.Context(), req)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, rep)
}

// @Summary Download a sensor report
// @Description The report readings as CSV (timestamp,value) or as an XLSX workbook
// @Tags reports
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param device_id query string true "Device ID"
// @Param sensor_id query string true "Sensor ID"
// @Param start query string false "Start time (ISO-8601)"
// @Param end query string false "End time (ISO-8601)"
// @Param threshold query number false "Threshold"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Router /report/download [get]
func (h *ReportHandlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	req, format, apiErr := parseReportParams(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	switch format {
	case formatCSV:
		var buf bytes.Buffer
		if err := h.hubservice.ReportCSV(r.Context(), &buf, req); err != nil {
			respondWithError(w, apiError(err, requestID))
			return
		}
		setAttachment(w, "text/csv", csvDownloadName)
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	case formatXLSX:
		data, err := h.hubservice.ReportXLSX(r.Context(), req)
		if err != nil {
			respondWithError(w, apiError(err, requestID))
			return
		}
		setAttachment(w, xlsxContentType, xlsxDownloadName)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		respondWithError(w, errors.NewFieldError("format", "format must be csv or xlsx", nil).WithRequestID(requestID))
	}
}

// @Summary List analysis reports
// @Tags analysis
// @Produce json
// @Success 200 {array} models.ReportFile
// @Router /analysis/reports [get]
func (h *ReportHandlers) ListAnalysisReports(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	reports, err := h.hubservice.ListAnalysisReports(r.Context())
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, reports)
}

// @Summary Get an analysis report
// @Tags analysis
// @Produce json
// @Param name path string true "Report file name"
// @Success 200 {object} analysis.Report
// @Failure 404 {object} errors.APIError
// @Router /analysis/reports/{name} [get]
func (h *ReportHandlers) GetAnalysisReport(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	requestID := nuts.NID("req", 12)

	var buf bytes.Buffer
	if err := h.hubservice.StreamAnalysisReport(r.Context(), name, &buf); err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// @Summary Run an analysis
// @Description Analyze the configured window of every sensor and archive the report
// @Tags analysis
// @Produce json
// @Success 201 {object} analysis.Report
// @Router /analysis/run [post]
func (h *ReportHandlers) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	rep, name, err := h.hubservice.RunAnalysis(r.Context())
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}
	if name != "" {
		w.Header().Set("X-Report-Name", name)
	}

	respondWithJSON(w, http.StatusCreated, rep)
}

func parseReportParams(r *http.Request) (report.Request, string, *errors.APIError) {
	var params models.ReportParams
	if err := decodeQuery(r, &params); err != nil {
		return report.Request{}, "", err
	}
	window, err := query.ParseTimeRange("start", params.Start, "end", params.End)
	if err != nil {
		return report.Request{}, "", errors.AsAPIError(err)
	}
	threshold, err := query.ParseFloat("threshold", params.Threshold)
	if err != nil {
		return report.Request{}, "", errors.AsAPIError(err)
	}

	format := strings.ToLower(strings.TrimSpace(params.Format))
	if format == "" {
		format = formatCSV
	}

	return report.Request{
		DeviceID:  params.DeviceID,
		SensorID:  params.SensorID,
		Range:     window,
		Threshold: threshold,
	}, format, nil
}
