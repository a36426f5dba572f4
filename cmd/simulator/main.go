// FilePath: cmd/simulator/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/simulator"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()

	flags := pflag.NewFlagSet("simulator", pflag.ExitOnError)
	flags.String("transport", config.TransportHTTP, "publish readings over http or mqtt")
	flags.String("api-url", "http://localhost:8080/api/v1", "hub API base URL")
	flags.String("broker", "tcp://localhost:1883", "MQTT broker for the mqtt transport")
	flags.Int64("seed", 0, "random seed, 0 picks one from the clock")
	flags.Parse(os.Args[1:])

	v := viper.New()
	v.BindPFlag("simulator.transport", flags.Lookup("transport"))
	v.BindPFlag("simulator.api_url", flags.Lookup("api-url"))
	v.BindPFlag("simulator.seed", flags.Lookup("seed"))
	v.BindPFlag("mqtt.broker", flags.Lookup("broker"))

	cfg, err := config.LoadWith(v)
	if err != nil {
		nuts.L.Fatalf("[Simulator] Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		nuts.L.Errorf("[Simulator] %v", err)
		os.Exit(1)
	}
	nuts.L.Infof("[Simulator] Stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	fleet := simulator.SampleFleet()
	registrar := simulator.NewHTTPPublisher(cfg.Simulator.APIURL)

	for _, d := range fleet {
		if err := registrar.RegisterDevice(ctx, d.Device()); err != nil {
			nuts.L.Warnf("[Simulator] Could not register %s: %v", d.DeviceID, err)
			continue
		}
		nuts.L.Infof("[Simulator] Registered %s (%s)", d.DeviceID, d.DeviceName)
	}

	var publisher simulator.Publisher = registrar
	if cfg.Simulator.Transport == config.TransportMQTT {
		mqttPublisher, err := simulator.NewMQTTPublisher(cfg.MQTT)
		if err != nil {
			return err
		}
		publisher = mqttPublisher
	}
	defer publisher.Close()

	nuts.L.Infof("[Simulator] Publishing %d devices over %s", len(fleet), cfg.Simulator.Transport)
	return simulator.NewRunner(fleet, publisher, cfg.Simulator.Seed).Run(ctx)
}
