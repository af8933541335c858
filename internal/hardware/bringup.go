package hardware

import (
	"context"
	"os"
	"time"

	"github.com/lumiconnect/agent/internal/console"
	"github.com/lumiconnect/agent/internal/infrastructure/config"
	"github.com/lumiconnect/agent/internal/poll"
	"github.com/lumiconnect/agent/internal/sensor"
)

// Logger is the logging interface the bring-up sequence needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BusOpener opens the sensor bus. Production code passes OpenSerialBus
// (adapted to this signature); tests pass a fake.
type BusOpener func(cfg config.BusConfig) (sensor.Bus, error)

// Bringup sequences the platform to a usable state before any sampling or
// networking occurs. The sequence is strictly ordered and fail-fast:
//
//	console wait -> radio init -> station mode -> association -> bus init
//
// Run returns only on success. Radio and association failures are fatal;
// retrying them is deliberately not this layer's job - association is a
// one-shot precondition, unlike the broker session the orchestrator retries
// forever.
type Bringup struct {
	cfg     *config.Config
	radio   Radio
	openBus BusOpener
	cons    *console.Console
	log     Logger

	// sleep and consoleReady are injectable for tests.
	sleep        poll.Sleeper
	consoleReady func() bool
}

// NewBringup creates a bring-up sequence with production timers and the
// console-attach predicate derived from config.
func NewBringup(cfg *config.Config, radio Radio, openBus BusOpener, cons *console.Console, log Logger) *Bringup {
	return &Bringup{
		cfg:          cfg,
		radio:        radio,
		openBus:      openBus,
		cons:         cons,
		log:          log,
		sleep:        time.Sleep,
		consoleReady: consoleAttached(cfg.Console.Device),
	}
}

// SetSleeper replaces the inter-poll sleep. Tests use this to avoid real timers.
func (b *Bringup) SetSleeper(sleep poll.Sleeper) {
	b.sleep = sleep
}

// SetConsoleReady replaces the console-attach predicate.
func (b *Bringup) SetConsoleReady(ready func() bool) {
	b.consoleReady = ready
}

// consoleAttached returns the attach predicate for the configured console
// endpoint. With no device configured the process stdout is the endpoint and
// is always attached; with a device node configured (USB gadget consoles
// appear only once a host attaches), readiness is the node existing.
func consoleAttached(device string) func() bool {
	if device == "" {
		return func() bool { return true }
	}
	return func() bool {
		_, err := os.Stat(device)
		return err == nil
	}
}

// Run executes the bring-up sequence and returns the initialized sensor bus.
func (b *Bringup) Run(ctx context.Context) (sensor.Bus, error) {
	b.waitForConsole()

	b.cons.Banner()
	b.cons.HardwareStage()

	if err := b.radio.Init(ctx); err != nil {
		b.cons.RadioInitError()
		return nil, err
	}

	if err := b.radio.EnableStationMode(ctx); err != nil {
		b.cons.RadioInitError()
		return nil, err
	}

	assocCtx, cancel := context.WithTimeout(ctx, b.cfg.AssociationTimeout())
	defer cancel()
	if err := b.radio.Associate(assocCtx, b.cfg.Network.SSID, b.cfg.Network.Password); err != nil {
		b.cons.AssociationError()
		return nil, err
	}
	b.cons.Associated(b.cfg.Network.SSID)
	b.log.Info("network associated",
		"ssid", b.cfg.Network.SSID,
		"interface", b.cfg.Network.Interface,
	)

	bus, err := b.openBus(b.cfg.Bus)
	if err != nil {
		return nil, err
	}
	b.cons.BusReady()
	b.log.Info("sensor bus initialized",
		"port", b.cfg.Bus.Port,
		"clock_hz", b.cfg.Bus.ClockHz,
	)

	return bus, nil
}

// waitForConsole blocks until a log-capturing endpoint attaches, polling at
// the configured interval. With wait_max_attempts at its default of 0 the
// wait is unbounded, so no boot diagnostics are ever lost; a deployment that
// prefers booting headless can bound it in config.
func (b *Bringup) waitForConsole() {
	attached := poll.Until(b.cfg.Console.WaitMaxAttempts, b.cfg.ConsoleWaitPoll(), b.sleep, b.consoleReady)
	if !attached {
		b.log.Warn("console endpoint never attached, boot diagnostics will be unobserved",
			"device", b.cfg.Console.Device,
			"attempts", b.cfg.Console.WaitMaxAttempts,
		)
	}
}
