// FilePath: internal/simulator/simulator.publisher.go
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const publishTimeout = 5 * time.Second

// Payload is the ingestion body the hub accepts on POST /readings and
// on the readings topic
type Payload struct {
	DeviceID   string            `json:"device_id"`
	SensorID   string            `json:"sensor_id"`
	SensorType models.SensorType `json:"sensor_type"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit"`
	Timestamp  *time.Time        `json:"timestamp,omitempty"`
}

// Publisher delivers simulated readings to the hub
type Publisher interface {
	Publish(ctx context.Context, p Payload) error
	Close()
}

// HTTPPublisher posts readings to the hub API
type HTTPPublisher struct {
	httpClient *resty.Client
}

func NewHTTPPublisher(baseURL string) *HTTPPublisher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &HTTPPublisher{httpClient: client}
}

func (p *HTTPPublisher) Publish(ctx context.Context, payload Payload) error {
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/readings")
	if err != nil {
		return errors.NewUnavailableError("failed to post reading", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return errors.NewUnavailableError(fmt.Sprintf("posting reading returned %d: %s", resp.StatusCode(), resp.String()), nil)
	}
	return nil
}

// RegisterDevice creates the device on the hub; an existing device is fine
func (p *HTTPPublisher) RegisterDevice(ctx context.Context, device *models.Device) error {
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBody(device).
		Post("/devices")
	if err != nil {
		return errors.NewUnavailableError("failed to register device "+device.DeviceID, err)
	}
	switch resp.StatusCode() {
	case http.StatusCreated, http.StatusConflict:
		return nil
	default:
		return errors.NewUnavailableError(fmt.Sprintf("registering device %s returned %d", device.DeviceID, resp.StatusCode()), nil)
	}
}

func (p *HTTPPublisher) Close() {}

// MQTTPublisher publishes readings on the hub's readings topic
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTPublisher connects with a per-run client id so that several
// simulators can share a broker
func NewMQTTPublisher(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(runClientID(cfg.ClientID)).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, errors.NewUnavailableError("mqtt broker connect timed out", nil)
	}
	if err := token.Error(); err != nil {
		return nil, errors.NewUnavailableError("failed to connect to mqtt broker", err)
	}
	nuts.L.Infof("[Simulator] Connected to broker %s", cfg.Broker)
	return &MQTTPublisher{client: client, topic: cfg.Topic, qos: cfg.QoS}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError("failed to encode reading", err)
	}
	token := p.client.Publish(p.topic, p.qos, false, body)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return errors.NewUnavailableError("failed to publish reading", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

func runClientID(prefix string) string {
	return prefix + "-sim-" + uuid.NewString()[:8]
}
