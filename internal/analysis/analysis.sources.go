package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	"github.com/itsatony/envmon/internal/query"
	"github.com/itsatony/envmon/internal/repository"
)

// APIClient reads windows from a running hub over its HTTP API
type APIClient struct {
	httpClient *resty.Client
}

func NewAPIClient(baseURL string) *APIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")
	return &APIClient{httpClient: client}
}

func (c *APIClient) SensorIDs(ctx context.Context) ([]string, error) {
	var devices []models.Device
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&devices).
		Get("/devices")
	if err != nil {
		return nil, errors.NewUnavailableError("failed to list devices", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.NewUnavailableError(fmt.Sprintf("listing devices returned %d", resp.StatusCode()), nil)
	}

	var ids []string
	for _, d := range devices {
		for _, s := range d.Sensors {
			ids = append(ids, s.SensorID)
		}
	}
	return ids, nil
}

func (c *APIClient) Window(ctx context.Context, sensorID string, start, end time.Time, maxPoints int) ([]models.Reading, error) {
	var readings []models.Reading
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("sensorID", sensorID).
		SetQueryParams(map[string]string{
			"start_time": start.UTC().Format(time.RFC3339Nano),
			"end_time":   end.UTC().Format(time.RFC3339Nano),
			"limit":      strconv.Itoa(maxPoints),
		}).
		SetResult(&readings).
		Get("/sensors/{sensorID}/readings")
	if err != nil {
		return nil, errors.NewUnavailableError("failed to fetch readings for "+sensorID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.NewUnavailableError(fmt.Sprintf("fetching readings for %s returned %d", sensorID, resp.StatusCode()), nil)
	}
	return readings, nil
}

// StoreSource reads windows straight from the repositories
type StoreSource struct {
	devices  repository.DeviceRepository
	readings repository.ReadingRepository
}

func NewStoreSource(devices repository.DeviceRepository, readings repository.ReadingRepository) *StoreSource {
	return &StoreSource{devices: devices, readings: readings}
}

func (s *StoreSource) SensorIDs(ctx context.Context) ([]string, error) {
	devices, err := s.devices.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, d := range devices {
		for _, sensor := range d.Sensors {
			ids = append(ids, sensor.SensorID)
		}
	}
	return ids, nil
}

func (s *StoreSource) Window(ctx context.Context, sensorID string, start, end time.Time, maxPoints int) ([]models.Reading, error) {
	filter := query.Filter{SensorID: sensorID, Range: query.TimeRange{Start: &start, End: &end}}
	return s.readings.Find(ctx, filter, query.Window{Limit: maxPoints})
}
