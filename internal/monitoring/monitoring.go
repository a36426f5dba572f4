package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Config holds monitoring configuration
type Config struct {
	LogLevel string
}

// EventMetric is the running tally for one event name
type EventMetric struct {
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// Service counts monitored events in process
type Service struct {
	config  Config
	started time.Time

	mu     sync.RWMutex
	events map[string]*EventMetric
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config:  config,
		started: time.Now().UTC(),
		events:  make(map[string]*EventMetric),
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := time.Now().UTC()

	s.mu.Lock()
	m, ok := s.events[eventName]
	if !ok {
		m = &EventMetric{}
		s.events[eventName] = m
	}
	m.Count++
	m.LastSeen = ts
	s.mu.Unlock()

	if s.config.LogLevel == "debug" {
		nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts, labels)
	}
}

// GetEventMetrics returns a snapshot of every event seen within the last
// duration. A zero duration returns all of them.
func (s *Service) GetEventMetrics(duration time.Duration) map[string]EventMetric {
	cutoff := time.Time{}
	if duration > 0 {
		cutoff = time.Now().UTC().Add(-duration)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]EventMetric, len(s.events))
	for name, m := range s.events {
		if m.LastSeen.Before(cutoff) {
			continue
		}
		out[name] = *m
	}
	return out
}

// Uptime is the time since the service was created
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}
