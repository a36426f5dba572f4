package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestService_RecordEvent(t *testing.T) {
	s := NewService(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordEvent("reading_recorded", map[string]string{"sensor_id": "temp001"})
		}()
	}
	wg.Wait()
	s.RecordEvent("device_created", nil)

	metrics := s.GetEventMetrics(0)
	assert.Equal(t, int64(50), metrics["reading_recorded"].Count)
	assert.Equal(t, int64(1), metrics["device_created"].Count)
	assert.False(t, metrics["device_created"].LastSeen.IsZero())

	assert.Len(t, s.GetEventMetrics(time.Hour), 2)
	assert.True(t, s.Uptime() >= 0)
}
