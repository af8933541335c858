package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the LumiConnect agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
// The loaded value is immutable: it is constructed once before any component
// starts and never mutated afterwards.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Network   NetworkConfig   `yaml:"network"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Bus       BusConfig       `yaml:"bus"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Console   ConsoleConfig   `yaml:"console"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies this device on the broker.
type DeviceConfig struct {
	// ID is the device identifier and the first segment of the publish topic.
	ID string `yaml:"id"`

	// TopicSuffix is the second segment of the publish topic.
	// The full topic is "<id>/<topic_suffix>".
	TopicSuffix string `yaml:"topic_suffix"`
}

// NetworkConfig contains wireless association settings.
type NetworkConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`

	// Interface is the wireless interface to associate (e.g. "wlan0").
	Interface string `yaml:"interface"`

	// AssociationTimeoutSeconds bounds the one-shot association attempt
	// during bring-up. Association failure is fatal.
	AssociationTimeoutSeconds int `yaml:"association_timeout_seconds"`

	// NMCLIBinary is the path to the nmcli executable used to drive the radio.
	NMCLIBinary string `yaml:"nmcli_binary"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
// The paho client manages handshake timing itself; these bound its backoff.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// BusConfig contains shared sensor-bus settings.
//
// The sensor is attached through a serial I2C bridge adapter. BaudRate is the
// UART rate to the adapter; ClockHz, SDAPin and SCLPin are forwarded to the
// adapter during bus bring-up.
type BusConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	ClockHz  int    `yaml:"clock_hz"`
	SDAPin   int    `yaml:"sda_pin"`
	SCLPin   int    `yaml:"scl_pin"`
}

// SensorConfig contains ambient-light sensor settings.
type SensorConfig struct {
	// Address is the sensor's bus address. The BH1750 answers on 0x23
	// (ADDR pin low) or 0x5C (ADDR pin high).
	Address int `yaml:"address"`
}

// TelemetryConfig contains acquisition/publish loop settings.
type TelemetryConfig struct {
	// SampleIntervalMS is the fixed cycle cadence in milliseconds.
	SampleIntervalMS int `yaml:"sample_interval_ms"`

	// GraceAttempts is the number of connectivity polls performed after
	// requesting the first broker session, before the loop proceeds anyway.
	GraceAttempts int `yaml:"grace_attempts"`

	// GraceDelayMS is the delay between grace polls in milliseconds.
	GraceDelayMS int `yaml:"grace_delay_ms"`
}

// ConsoleConfig contains boot-console settings.
type ConsoleConfig struct {
	// Device is an optional console device node to wait for before any other
	// logic runs (e.g. "/dev/ttyGS0" for a USB gadget console). Empty means
	// the process stdout, which is always considered attached.
	Device string `yaml:"device"`

	// WaitPollMS is the attach-poll interval in milliseconds.
	WaitPollMS int `yaml:"wait_poll_ms"`

	// WaitMaxAttempts bounds the attach wait. 0 means wait forever, which
	// preserves the guarantee that no boot diagnostics are lost.
	WaitMaxAttempts int `yaml:"wait_max_attempts"`
}

// InfluxDBConfig contains settings for the optional reading mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	Measurement   string `yaml:"measurement"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded, equal to the reference firmware constants)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LUMICONNECT_SECTION_KEY
// For example: LUMICONNECT_NETWORK_SSID, LUMICONNECT_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Timing and bus defaults match the reference firmware cadence: 30 s
// association timeout, 20 x 500 ms startup grace, 1000 ms sample interval,
// 100 kHz bus clock on pins 2/3.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:          "lumiconnect-001",
			TopicSuffix: "luminosidade",
		},
		Network: NetworkConfig{
			Interface:                 "wlan0",
			AssociationTimeoutSeconds: 30,
			NMCLIBinary:               "/usr/bin/nmcli",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Bus: BusConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 115200,
			ClockHz:  100_000,
			SDAPin:   2,
			SCLPin:   3,
		},
		Sensor: SensorConfig{
			Address: 0x23,
		},
		Telemetry: TelemetryConfig{
			SampleIntervalMS: 1000,
			GraceAttempts:    20,
			GraceDelayMS:     500,
		},
		Console: ConsoleConfig{
			WaitPollMS:      100,
			WaitMaxAttempts: 0,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:     false,
			Measurement: "lux",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LUMICONNECT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("LUMICONNECT_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// Network credentials - prefer these over baking secrets into a file on disk
	if v := os.Getenv("LUMICONNECT_NETWORK_SSID"); v != "" {
		cfg.Network.SSID = v
	}
	if v := os.Getenv("LUMICONNECT_NETWORK_PASSWORD"); v != "" {
		cfg.Network.Password = v
	}

	// MQTT
	if v := os.Getenv("LUMICONNECT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LUMICONNECT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LUMICONNECT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Bus
	if v := os.Getenv("LUMICONNECT_BUS_PORT"); v != "" {
		cfg.Bus.Port = v
	}

	// InfluxDB
	if v := os.Getenv("LUMICONNECT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}
	if c.Device.TopicSuffix == "" {
		errs = append(errs, "device.topic_suffix is required")
	}
	if strings.ContainsAny(c.Device.ID, "/#+") {
		errs = append(errs, "device.id must not contain MQTT topic separators or wildcards")
	}

	if c.Network.SSID == "" {
		errs = append(errs, "network.ssid is required (set LUMICONNECT_NETWORK_SSID environment variable)")
	}
	if c.Network.AssociationTimeoutSeconds <= 0 {
		errs = append(errs, "network.association_timeout_seconds must be positive")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if c.Bus.ClockHz <= 0 {
		errs = append(errs, "bus.clock_hz must be positive")
	}
	if c.Bus.SDAPin == c.Bus.SCLPin {
		errs = append(errs, "bus.sda_pin and bus.scl_pin must differ")
	}

	if c.Sensor.Address != 0x23 && c.Sensor.Address != 0x5C {
		errs = append(errs, "sensor.address must be 0x23 or 0x5C")
	}

	if c.Telemetry.SampleIntervalMS <= 0 {
		errs = append(errs, "telemetry.sample_interval_ms must be positive")
	}
	if c.Telemetry.GraceAttempts < 0 {
		errs = append(errs, "telemetry.grace_attempts must not be negative")
	}
	if c.Telemetry.GraceDelayMS <= 0 {
		errs = append(errs, "telemetry.grace_delay_ms must be positive")
	}

	if c.Console.WaitPollMS <= 0 {
		errs = append(errs, "console.wait_poll_ms must be positive")
	}
	if c.Console.WaitMaxAttempts < 0 {
		errs = append(errs, "console.wait_max_attempts must not be negative (0 means unbounded)")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// AssociationTimeout returns the network association timeout as a Duration.
func (c *Config) AssociationTimeout() time.Duration {
	return time.Duration(c.Network.AssociationTimeoutSeconds) * time.Second
}

// SampleInterval returns the telemetry cycle cadence as a Duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Telemetry.SampleIntervalMS) * time.Millisecond
}

// GraceDelay returns the startup grace poll spacing as a Duration.
func (c *Config) GraceDelay() time.Duration {
	return time.Duration(c.Telemetry.GraceDelayMS) * time.Millisecond
}

// ConsoleWaitPoll returns the console attach-poll interval as a Duration.
func (c *Config) ConsoleWaitPoll() time.Duration {
	return time.Duration(c.Console.WaitPollMS) * time.Millisecond
}
