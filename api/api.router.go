package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/envmon/api/middleware"
	"github.com/itsatony/envmon/api/resources"
	"github.com/itsatony/envmon/internal/hubservice"
)

type Router struct {
	router    *mux.Router
	ingest    *middleware.RateLimiter
	resources *resources.Resources
}

// NewRouter wires the /api/v1 routes. health and metrics may be nil.
func NewRouter(svc *hubservice.HubService, ingestLimit middleware.RateLimitConfig, health, metrics http.HandlerFunc) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		ingest:    middleware.NewRateLimiter(ingestLimit),
		resources: resources.NewResources(svc),
	}
	r.resources.SetHealthCheck(health)
	r.resources.SetMetrics(metrics)

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	if r.resources.HealthCheck != nil {
		api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	}
	if r.resources.Metrics != nil {
		api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	}

	// Devices
	devices := api.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("", r.resources.Devices.CreateDevice).Methods(http.MethodPost)
	devices.HandleFunc("/{id}", r.resources.Devices.GetDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/status", r.resources.Devices.GetDeviceStatus).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/readings", r.resources.Devices.GetDeviceReadings).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/readings/range", r.resources.Devices.GetDeviceReadingsRange).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/readings/export", r.resources.Devices.ExportDeviceReadings).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/sensors/{sensorId}/stats", r.resources.Devices.GetSensorStats).Methods(http.MethodGet)

	// Sensors and readings
	sensors := api.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("/{id}/readings", r.resources.Sensors.GetSensorReadings).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}/latest", r.resources.Sensors.GetLatestReading).Methods(http.MethodGet)
	api.Handle("/readings", r.ingest.Limit(http.HandlerFunc(r.resources.Sensors.RecordReading))).Methods(http.MethodPost)
	api.HandleFunc("/stats", r.resources.Sensors.GetSystemStats).Methods(http.MethodGet)

	// Alerts and reports
	api.HandleFunc("/alerts/threshold", r.resources.Reports.GetThresholdAlerts).Methods(http.MethodGet)
	api.HandleFunc("/report", r.resources.Reports.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/report/download", r.resources.Reports.DownloadReport).Methods(http.MethodGet)

	// Analysis archive
	analysis := api.PathPrefix("/analysis").Subrouter()
	analysis.HandleFunc("/reports", r.resources.Reports.ListAnalysisReports).Methods(http.MethodGet)
	analysis.HandleFunc("/reports/{name}", r.resources.Reports.GetAnalysisReport).Methods(http.MethodGet)
	analysis.HandleFunc("/run", r.resources.Reports.RunAnalysis).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
