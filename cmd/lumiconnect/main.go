// LumiConnect - Ambient Light Telemetry Agent
//
// This is the main entry point for the LumiConnect agent. The agent brings up
// the wireless link and the sensor bus, then samples a BH1750 ambient-light
// sensor at a fixed cadence and publishes each reading to an MQTT broker,
// reconnecting forever when the broker session drops.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumiconnect/agent/internal/console"
	"github.com/lumiconnect/agent/internal/hardware"
	"github.com/lumiconnect/agent/internal/infrastructure/config"
	"github.com/lumiconnect/agent/internal/infrastructure/influxdb"
	"github.com/lumiconnect/agent/internal/infrastructure/logging"
	"github.com/lumiconnect/agent/internal/infrastructure/mqtt"
	"github.com/lumiconnect/agent/internal/sensor"
	"github.com/lumiconnect/agent/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting LumiConnect agent",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// The console protocol owns stdout; structured logs go to stderr.
	cons := console.New(os.Stdout)

	// Hardware bring-up: console wait, radio, association, sensor bus.
	// Any failure here is fatal, matching the one-shot bring-up contract.
	radio := hardware.NewNMCLIRadio(cfg.Network)
	bringup := hardware.NewBringup(cfg, radio, openBus, cons, log)

	bus, err := bringup.Run(ctx)
	if err != nil {
		return fmt.Errorf("hardware bring-up: %w", err)
	}
	defer func() {
		if closer, ok := bus.(io.Closer); ok {
			if closeErr := closer.Close(); closeErr != nil {
				log.Error("error closing sensor bus", "error", closeErr)
			}
		}
	}()

	// Initialise the ambient-light sensor
	cons.ModulesStage()

	lightSensor := sensor.NewBH1750(bus, byte(cfg.Sensor.Address))
	if err := lightSensor.Init(); err != nil {
		return fmt.Errorf("initialising sensor: %w", err)
	}
	cons.SensorReady()
	log.Info("sensor initialised", "address", fmt.Sprintf("0x%02X", cfg.Sensor.Address))

	// Create the MQTT client; the orchestrator requests the first session.
	mqttClient := mqtt.New(cfg.MQTT)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Telemetry loop: read, publish, retry forever.
	orchestrator := telemetry.New(cfg, lightSensor, mqttClient, cons, log)

	// Connect to InfluxDB (optional reading mirror)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB mirror connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
		orchestrator.SetMirror(influxClient)
	} else {
		log.Info("InfluxDB mirror disabled")
	}

	log.Info("initialisation complete, entering telemetry loop")

	if err := orchestrator.Run(ctx); err != nil {
		return fmt.Errorf("telemetry loop: %w", err)
	}

	log.Info("LumiConnect agent stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMICONNECT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMICONNECT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openBus adapts OpenSerialBus to the bring-up sequence's BusOpener signature.
func openBus(cfg config.BusConfig) (sensor.Bus, error) {
	return hardware.OpenSerialBus(cfg)
}
