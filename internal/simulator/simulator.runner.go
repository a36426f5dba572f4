// FilePath: internal/simulator/simulator.runner.go
package simulator

import (
	"context"
	stderrors "errors"
	"math/rand"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/sync/errgroup"
)

// Runner drives one periodic task per device until its context ends
type Runner struct {
	devices   []DeviceSpec
	publisher Publisher
	seed      int64
	now       func() time.Time
}

// NewRunner creates a runner; a zero seed draws one from the clock
func NewRunner(devices []DeviceSpec, publisher Publisher, seed int64) *Runner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Runner{devices: devices, publisher: publisher, seed: seed, now: time.Now}
}

// Run blocks until ctx is cancelled. Publish failures are logged and the
// device keeps its schedule.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, device := range r.devices {
		device := device
		rng := rand.New(rand.NewSource(r.seed + int64(i)))
		g.Go(func() error {
			return r.simulateDevice(ctx, device, rng)
		})
	}

	nuts.L.Infof("[Simulator] Running %d devices", len(r.devices))
	err := g.Wait()
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		nuts.L.Infof("[Simulator] Stopped")
		return nil
	}
	return err
}

func (r *Runner) simulateDevice(ctx context.Context, device DeviceSpec, rng *rand.Rand) error {
	generators := make([]Generator, len(device.Sensors))
	for i, s := range device.Sensors {
		generators[i] = NewGenerator(s, rng)
	}

	interval := device.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	nuts.L.Infof("[Simulator] Starting device %s (%s), every %v", device.DeviceName, device.DeviceID, interval)
	for {
		r.publishAll(ctx, device, generators)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) publishAll(ctx context.Context, device DeviceSpec, generators []Generator) {
	at := r.now()
	for i, s := range device.Sensors {
		if ctx.Err() != nil {
			return
		}
		p := Payload{
			DeviceID:   device.DeviceID,
			SensorID:   s.SensorID,
			SensorType: s.Type,
			Value:      generators[i].Generate(at),
			Unit:       s.Unit,
		}
		if err := r.publisher.Publish(ctx, p); err != nil {
			nuts.L.Warnf("[Simulator] %s/%s: %v", device.DeviceID, s.SensorID, err)
			continue
		}
		nuts.L.Infof("[Simulator] %s/%s: %v %s", device.DeviceID, s.SensorID, p.Value, p.Unit)
	}
}
