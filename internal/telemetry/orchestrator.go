package telemetry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/lumiconnect/agent/internal/console"
	"github.com/lumiconnect/agent/internal/infrastructure/config"
	"github.com/lumiconnect/agent/internal/infrastructure/mqtt"
	"github.com/lumiconnect/agent/internal/poll"
	"github.com/lumiconnect/agent/internal/sensor"
)

// Connectivity is the broker-session surface the orchestrator consumes.
// Satisfied by mqtt.Client.
type Connectivity interface {
	// StartOrRestart requests a (re)initialized session; idempotent.
	StartOrRestart()

	// IsConnected is a non-blocking point-in-time session query.
	IsConnected() bool

	// PublishString publishes one payload to one topic.
	PublishString(topic, payload string) error
}

// ReadingMirror receives a copy of each reading. Satisfied by influxdb.Client.
type ReadingMirror interface {
	WriteReading(deviceID string, lux float64, ts time.Time)
}

// Logger is the logging interface the orchestrator needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Stats counts cycle outcomes. Read/publish failures never escalate - the
// loop is designed to run unattended forever - but they are surfaced here
// and in the structured log instead of vanishing.
type Stats struct {
	Cycles        uint64
	Published     uint64
	ReadErrors    uint64
	PublishErrors uint64
	Restarts      uint64
}

// Orchestrator runs the agent's only unbounded loop: it polls connectivity,
// reads the sensor, formats and publishes readings, and requests session
// restarts, pacing cycles at the configured fixed interval.
type Orchestrator struct {
	cfg  *config.Config
	sens sensor.Sensor
	conn Connectivity
	cons *console.Console
	log  Logger

	// topic is fixed at construction: "<device_id>/<topic_suffix>".
	topic string

	// sleep and now are injectable for tests.
	sleep poll.Sleeper
	now   func() time.Time

	mirror ReadingMirror

	mu    sync.Mutex
	stats Stats
}

// New creates an orchestrator with production timers.
func New(cfg *config.Config, sens sensor.Sensor, conn Connectivity, cons *console.Console, log Logger) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		sens:  sens,
		conn:  conn,
		cons:  cons,
		log:   log,
		topic: mqtt.TelemetryTopic(cfg.Device.ID, cfg.Device.TopicSuffix),
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// SetSleeper replaces the cycle/grace sleep. Tests use this to avoid real timers.
func (o *Orchestrator) SetSleeper(sleep poll.Sleeper) {
	o.sleep = sleep
}

// SetMirror attaches an optional reading mirror.
func (o *Orchestrator) SetMirror(mirror ReadingMirror) {
	o.mirror = mirror
}

// Run requests the first broker session, waits out the startup grace period,
// then cycles forever at the configured cadence. It returns only when ctx is
// cancelled; there is no other exit from steady state.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.conn.StartOrRestart()
	o.cons.ClientStarted()

	o.awaitFirstConnection()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		o.cycle()
		o.sleep(o.cfg.SampleInterval())
	}
}

// awaitFirstConnection polls the session up to the configured number of
// grace attempts, then proceeds regardless: a broker that is down at boot is
// a transient condition the steady-state loop recovers from on its own.
func (o *Orchestrator) awaitFirstConnection() {
	if o.cfg.Telemetry.GraceAttempts <= 0 {
		return
	}

	connected := poll.Until(o.cfg.Telemetry.GraceAttempts, o.cfg.GraceDelay(), o.sleep, o.conn.IsConnected)
	if connected {
		o.cons.GraceConnected()
		o.log.Info("broker session established", "topic", o.topic)
		return
	}
	o.cons.GraceWarning()
	o.log.Warn("broker unreachable during startup grace period, continuing",
		"attempts", o.cfg.Telemetry.GraceAttempts,
	)
}

// cycle performs one acquisition/publish iteration.
//
// Connected: read one value, emit the console reading line, publish.
// Disconnected: emit the warning line and request a restart - once per
// cycle, forever, with no backoff and no attempt cap.
func (o *Orchestrator) cycle() {
	o.mu.Lock()
	o.stats.Cycles++
	o.mu.Unlock()

	if !o.conn.IsConnected() {
		o.cons.ReconnectWarning()
		o.conn.StartOrRestart()

		o.mu.Lock()
		o.stats.Restarts++
		o.mu.Unlock()
		return
	}

	lux, err := o.sens.ReadLux()
	if err != nil {
		o.log.Warn("sensor read failed", "error", err)
		o.mu.Lock()
		o.stats.ReadErrors++
		o.mu.Unlock()
		return
	}

	o.cons.Reading(lux)

	// The payload is an ephemeral pair (topic, formatted value), rebuilt
	// each cycle and discarded after the publish returns.
	payload := FormatLux(lux)
	if err := o.conn.PublishString(o.topic, payload); err != nil {
		o.log.Warn("publish failed", "topic", o.topic, "error", err)
		o.mu.Lock()
		o.stats.PublishErrors++
		o.mu.Unlock()
	} else {
		o.mu.Lock()
		o.stats.Published++
		o.mu.Unlock()
	}

	if o.mirror != nil {
		o.mirror.WriteReading(o.cfg.Device.ID, lux, o.now())
	}
}

// Stats returns a snapshot of the cycle counters.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// FormatLux renders an illuminance value as the wire payload: base-10
// decimal with exactly two fractional digits and "." as the separator,
// independent of any locale (e.g. 305.0 -> "305.00").
func FormatLux(lux float64) string {
	return strconv.FormatFloat(lux, 'f', 2, 64)
}
