// FilePath: api/resources/api.resource.sensors.go
package resources

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/hubservice"
	"github.com/itsatony/envmon/internal/ingest"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	nuts "github.com/vaudience/go-nuts"
)

const maxReadingBody = 64 << 10

// SensorHandlers encapsulates the sensor and reading HTTP handlers
type SensorHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Get sensor readings
// @Description Readings of one sensor, newest first, capped by limit
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Param start_time query string false "Start time (ISO-8601)"
// @Param end_time query string false "End time (ISO-8601)"
// @Param limit query int false "Maximum number of readings (default 100)"
// @Success 200 {array} models.Reading
// @Failure 400 {object} errors.APIError
// @Router /sensors/{id}/readings [get]
func (h *SensorHandlers) GetSensorReadings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var params models.SensorReadingParams
	if err := decodeQuery(r, &params); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	window, err := query.ParseTimeRange("start_time", params.StartTime, "end_time", params.EndTime)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}
	limit, err := query.ParseInt("limit", params.Limit, h.hubservice.DefaultLimit())
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	readings, err := h.hubservice.ListSensorReadings(r.Context(), id, window, limit)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Latest sensor reading
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 200 {object} models.Reading
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/latest [get]
func (h *SensorHandlers) GetLatestReading(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	reading, err := h.hubservice.LatestReading(r.Context(), id)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Record a sensor reading
// @Description Record one reading from a device. value may be a number or a numeric string.
// @Tags sensors
// @Accept json
// @Produce json
// @Param reading body models.ReadingInput true "Reading"
// @Success 201 {object} models.Reading
// @Failure 400 {object} errors.APIError
// @Failure 429 {object} errors.APIError
// @Router /readings [post]
func (h *SensorHandlers) RecordReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReadingBody))
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	input, err := ingest.Decode(body)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	reading, err := h.hubservice.RecordReading(r.Context(), input)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, reading)
}

// @Summary System statistics
// @Description Device and reading totals with the latest reading per sensor type
// @Tags sensors
// @Produce json
// @Success 200 {object} models.SystemStats
// @Router /stats [get]
func (h *SensorHandlers) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	stats, err := h.hubservice.GetSystemStats(r.Context())
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
