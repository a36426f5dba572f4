// FilePath: internal/ingest/ingest.mqtt.go
package ingest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/errors"
	"github.com/itsatony/envmon/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250
	handleTimeout     = 5 * time.Second
)

// Recorder stores one decoded ingestion payload
type Recorder interface {
	RecordReading(ctx context.Context, input models.ReadingInput) (*models.Reading, error)
}

// Subscriber feeds readings published on the broker into the hub
type Subscriber struct {
	client   mqtt.Client
	topic    string
	qos      byte
	recorder Recorder
}

// NewSubscriber prepares a client for cfg; nothing connects until Start
func NewSubscriber(cfg config.MQTTConfig, recorder Recorder) *Subscriber {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true)

	s := &Subscriber{topic: cfg.Topic, qos: cfg.QoS, recorder: recorder}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		// subscriptions do not survive a clean-session reconnect
		if token := c.Subscribe(s.topic, s.qos, s.handleMessage); token.Wait() && token.Error() != nil {
			nuts.L.Errorf("[Ingest] Subscribe to %s failed: %v", s.topic, token.Error())
			return
		}
		nuts.L.Infof("[Ingest] Listening on topic %s", s.topic)
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		nuts.L.Warnf("[Ingest] Connection to broker lost: %v", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.NewUnavailableError("mqtt broker connect timed out", nil)
	}
	if err := token.Error(); err != nil {
		return errors.NewUnavailableError("failed to connect to mqtt broker", err)
	}
	return nil
}

// Stop unsubscribes and disconnects
func (s *Subscriber) Stop() {
	if !s.client.IsConnected() {
		return
	}
	s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
	s.client.Disconnect(disconnectQuiesce)
	nuts.L.Infof("[Ingest] Disconnected from broker")
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	input, err := Decode(msg.Payload())
	if err != nil {
		nuts.L.Warnf("[Ingest] Dropping message on %s: %v", msg.Topic(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if _, err := s.recorder.RecordReading(ctx, input); err != nil {
		nuts.L.Warnf("[Ingest] Rejected reading on %s: %v", msg.Topic(), err)
	}
}

// Decode parses the JSON ingestion payload shared by HTTP and MQTT
func Decode(payload []byte) (models.ReadingInput, error) {
	var input models.ReadingInput
	if err := json.Unmarshal(payload, &input); err != nil {
		var numErr *models.NumberFormatError
		if stderrors.As(err, &numErr) {
			return input, errors.NewFieldError("value", "invalid value: must be a number", err)
		}
		return input, errors.NewValidationError("invalid reading payload", err)
	}
	return input, nil
}
