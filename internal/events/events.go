package events

import (
	nuts "github.com/vaudience/go-nuts"
)

// Event names emitted by the hub
const (
	ReadingRecorded   = "reading.recorded"
	DeviceCreated     = "device.created"
	AnalysisCompleted = "analysis.completed"
)

// Bus fans domain events out to registered handlers. Every event carries
// the id of the affected entity.
type Bus struct {
	emitter *nuts.EventEmitter
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{emitter: nuts.NewEventEmitter()}
}

// Emit publishes event for id
func (b *Bus) Emit(event string, id string) {
	b.emitter.Emit(event, id)
}

// On registers a callback for event. handlerID must be unique per event.
func (b *Bus) On(event, handlerID string, handler func(id string)) {
	b.emitter.On(event, handlerID, func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
