// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/hubservice"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Register a device
// @Description Register a new device together with its sensors
// @Tags devices
// @Accept json
// @Produce json
// @Param device body models.Device true "Device details"
// @Success 201 {object} models.Device
// @Failure 400 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /devices [post]
func (h *DeviceHandlers) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var device models.Device
	requestID := nuts.NID("req", 12)

	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.CreateDevice(r.Context(), &device); err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, device)
}

// @Summary List devices
// @Tags devices
// @Produce json
// @Success 200 {array} models.Device
// @Router /devices [get]
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	devices, err := h.hubservice.ListDevices(r.Context())
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Get a device by ID
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.Device
// @Failure 404 {object} errors.APIError
// @Router /devices/{id} [get]
func (h *DeviceHandlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	device, err := h.hubservice.GetDevice(r.Context(), id)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// @Summary Get device status
// @Description Latest reading per sensor and the online status of a device
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.DeviceStatus
// @Failure 404 {object} errors.APIError
// @Router /devices/{id}/status [get]
func (h *DeviceHandlers) GetDeviceStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	status, err := h.hubservice.GetDeviceStatus(r.Context(), id)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// @Summary List device readings
// @Description Paginated readings of a device, newest first
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Param start_time query string false "Start time (ISO-8601)"
// @Param end_time query string false "End time (ISO-8601)"
// @Param page query int false "Page, starting at 1"
// @Param per_page query int false "Page size"
// @Success 200 {object} models.ReadingPage
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/readings [get]
func (h *DeviceHandlers) GetDeviceReadings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var params models.DeviceReadingParams
	if err := decodeQuery(r, &params); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	window, err := query.ParseTimeRange("start_time", params.StartTime, "end_time", params.EndTime)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}
	page, err := query.ParseInt("page", params.Page, query.DefaultPage)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}
	perPage, err := query.ParseInt("per_page", params.PerPage, h.hubservice.DefaultPerPage())
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	result, err := h.hubservice.ListDeviceReadings(r.Context(), id, window, page, perPage)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Device readings in a range
// @Description Every reading of a device between start_time and end_time, newest first
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Param start_time query string false "Start time (ISO-8601)"
// @Param end_time query string false "End time (ISO-8601)"
// @Success 200 {array} models.Reading
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/readings/range [get]
func (h *DeviceHandlers) GetDeviceReadingsRange(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var params models.DeviceReadingParams
	if err := decodeQuery(r, &params); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	window, err := query.ParseTimeRange("start_time", params.StartTime, "end_time", params.EndTime)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	readings, err := h.hubservice.DeviceReadingsRange(r.Context(), id, window)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Export device readings
// @Description Device readings as CSV with device_id, sensor_id, sensor_type, timestamp, value and unit columns
// @Tags devices
// @Produce text/csv
// @Param id path string true "Device ID"
// @Param start_time query string false "Start time (ISO-8601)"
// @Param end_time query string false "End time (ISO-8601)"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/readings/export [get]
func (h *DeviceHandlers) ExportDeviceReadings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var params models.DeviceReadingParams
	if err := decodeQuery(r, &params); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	window, err := query.ParseTimeRange("start_time", params.StartTime, "end_time", params.EndTime)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	// buffered so a store failure can still answer with a JSON error
	var buf bytes.Buffer
	if err := h.hubservice.DeviceReadingsCSV(r.Context(), &buf, id, window); err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	setAttachment(w, "text/csv", "readings_"+id+".csv")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// @Summary Sensor statistics
// @Description Count, average, min, max and population standard deviation of one device sensor
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Param sensorId path string true "Sensor ID"
// @Param start query string false "Start time (ISO-8601)"
// @Param end query string false "End time (ISO-8601)"
// @Success 200 {object} models.AggregateResult
// @Failure 400 {object} errors.APIError
// @Router /devices/{id}/sensors/{sensorId}/stats [get]
func (h *DeviceHandlers) GetSensorStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := nuts.NID("req", 12)

	var params models.WindowParams
	if err := decodeQuery(r, &params); err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}
	window, err := query.ParseTimeRange("start", params.Start, "end", params.End)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	stats, err := h.hubservice.SensorStats(r.Context(), vars["id"], vars["sensorId"], window)
	if err != nil {
		respondWithError(w, apiError(err, requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
