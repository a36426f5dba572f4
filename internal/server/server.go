// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/itsatony/envmon/docs"
	"github.com/itsatony/envmon/api"
	"github.com/itsatony/envmon/api/middleware"
	"github.com/itsatony/envmon/internal/analysis"
	"github.com/itsatony/envmon/internal/cache"
	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/database"
	"github.com/itsatony/envmon/internal/events"
	"github.com/itsatony/envmon/internal/hubservice"
	"github.com/itsatony/envmon/internal/ingest"
	"github.com/itsatony/envmon/internal/monitoring"
	"github.com/itsatony/envmon/internal/repository"
	"github.com/itsatony/envmon/internal/repository/files"
	"github.com/itsatony/envmon/internal/repository/memory"
	"github.com/itsatony/envmon/internal/repository/postgres"
	"github.com/itsatony/envmon/internal/repository/timescale"
	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	subscriber *ingest.Subscriber
	closers    []io.Closer
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
		monitoring: monitoring.NewService(monitoring.Config{
			LogLevel: cfg.Monitoring.LogLevel,
		}),
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	svc, closers, err := initializeHubService(ctx, s.config)
	if err != nil {
		return err
	}
	s.hubservice = svc
	s.closers = closers

	// Set up event handlers
	s.setupEventHandlers()

	// Setup routes
	s.srv.Handler = s.Handler()

	if s.config.MQTT.Enabled {
		s.subscriber = ingest.NewSubscriber(s.config.MQTT, s.hubservice)
		if err := s.subscriber.Start(); err != nil {
			nuts.L.Warnf("[Server] MQTT ingestion disabled: %v", err)
			s.subscriber = nil
		}
	}

	if s.config.Analysis.Interval > 0 {
		go s.runScheduledAnalysis(ctx, s.config.Analysis.Interval)
	}

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown(cancel)
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(cancel context.CancelFunc) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")
	cancel()

	ctx, done := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer done()

	if s.subscriber != nil {
		s.subscriber.Stop()
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing connection: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// Handler builds the full middleware chain around the API router
func (s *Server) Handler() http.Handler {
	router := api.NewRouter(s.hubservice, middleware.RateLimitConfig{
		RequestsPerSecond: s.config.Server.IngestRPS,
		Burst:             s.config.Server.IngestBurst,
	}, s.handleHealth(), s.handleMetrics())

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept"}),
		handlers.ExposedHeaders([]string{"Content-Disposition", "X-Report-Name"}),
	)

	root := http.NewServeMux()
	root.Handle("/", router)
	root.HandleFunc("/swagger/doc.json", handleDocs)

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		cors(handlers.CombinedLoggingHandler(os.Stdout, root)),
	)
}

// handleDocs serves the registered OpenAPI document
func handleDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

// handleHealth reports the store connectivity and version
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := s.hubservice.Health(r.Context())
		status, code := "ok", http.StatusOK
		for _, v := range checks {
			if v != "ok" {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"version": nuts.GetVersion(),
			"checks":  checks,
		})
	}
}

// handleMetrics returns the event counters
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uptime_seconds": int64(s.monitoring.Uptime().Seconds()),
			"events":         s.monitoring.GetEventMetrics(0),
		})
	}
}

func (s *Server) setupEventHandlers() {
	s.hubservice.Events.On(events.ReadingRecorded, "monitoring", func(id string) {
		s.monitoring.RecordEvent("reading_recorded", map[string]string{
			"reading_id": id,
		})
	})

	s.hubservice.Events.On(events.DeviceCreated, "monitoring", func(id string) {
		nuts.L.Infof("[Events] Device %s registered", id)
		s.monitoring.RecordEvent("device_created", map[string]string{
			"device_id": id,
		})
	})

	s.hubservice.Events.On(events.AnalysisCompleted, "monitoring", func(name string) {
		nuts.L.Infof("[Events] Analysis report %s archived", name)
		s.monitoring.RecordEvent("analysis_completed", map[string]string{
			"report": name,
		})
	})
}

func (s *Server) runScheduledAnalysis(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	nuts.L.Infof("[Server] Scheduled analysis every %v", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := s.hubservice.RunAnalysis(ctx); err != nil {
				nuts.L.Errorf("[Server] Scheduled analysis failed: %v", err)
			}
		}
	}
}

// initializeHubService creates and configures the hub service
func initializeHubService(ctx context.Context, cfg *config.Config) (*hubservice.HubService, []io.Closer, error) {
	var (
		devices  repository.DeviceRepository
		readings repository.ReadingRepository
		closers  []io.Closer
	)

	switch cfg.Database.Driver {
	case config.DriverMemory:
		nuts.L.Warnf("[Server] Using in-memory stores, data is lost on restart")
		devices = memory.NewDeviceRepository()
		readings = memory.NewReadingRepository()
	default:
		tsdb := initTimescaleDB(cfg.Database.TimescaleDB)
		appDB := initAppDB(cfg.Database.AppDB)
		closers = append(closers, tsdb, appDB)

		readingRepo, err := timescale.NewReadingRepository(tsdb)
		if err != nil {
			return nil, closers, err
		}
		deviceRepo, err := postgres.NewDeviceRepository(appDB)
		if err != nil {
			return nil, closers, err
		}
		readings, devices = readingRepo, deviceRepo
	}

	archive, err := files.NewReportRepository(files.FileConfig{BasePath: cfg.FileStore.BasePath})
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize report archive: %v", err)
	}

	opts := hubservice.Options{
		Reports:        archive,
		DefaultLimit:   cfg.Query.DefaultLimit,
		DefaultPerPage: cfg.Query.DefaultPerPage,
		Analysis: analysis.Options{
			Window:     cfg.Analysis.Window,
			ZThreshold: cfg.Analysis.ZThreshold,
			MaxPoints:  cfg.Analysis.MaxPoints,
		},
		ReportRetention: cfg.FileStore.Retention,
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			nuts.L.Warnf("[Server] Latest-reading cache disabled: %v", err)
		} else {
			opts.Latest = cache.NewLatestCache(client, cfg.Redis.LatestTTL)
			closers = append(closers, client)
		}
	}

	svc := hubservice.New(devices, readings, opts)
	if err := svc.Validate(); err != nil {
		return nil, closers, err
	}
	return svc, closers, nil
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	db, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	return db
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	return db
}
