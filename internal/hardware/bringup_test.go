package hardware

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lumiconnect/agent/internal/console"
	"github.com/lumiconnect/agent/internal/infrastructure/config"
	"github.com/lumiconnect/agent/internal/sensor"
)

// fakeRadio records the order of calls and fails on demand.
type fakeRadio struct {
	calls []string

	initErr    error
	stationErr error
	assocErr   error

	assocSSID     string
	assocPassword string
	assocDeadline bool
}

func (f *fakeRadio) Init(_ context.Context) error {
	f.calls = append(f.calls, "init")
	return f.initErr
}

func (f *fakeRadio) EnableStationMode(_ context.Context) error {
	f.calls = append(f.calls, "station")
	return f.stationErr
}

func (f *fakeRadio) Associate(ctx context.Context, ssid, password string) error {
	f.calls = append(f.calls, "associate")
	f.assocSSID = ssid
	f.assocPassword = password
	_, f.assocDeadline = ctx.Deadline()
	return f.assocErr
}

// noopLogger discards structured logs in tests.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// fakeBusSensor is a sensor.Bus stand-in returned by the fake opener.
type fakeBusSensor struct{}

func (fakeBusSensor) WriteByte(byte, byte) error { return nil }
func (fakeBusSensor) Read(byte, []byte) error    { return nil }

func testBringupConfig() *config.Config {
	return &config.Config{
		Network: config.NetworkConfig{
			SSID:                      "test-net",
			Password:                  "secret",
			Interface:                 "wlan0",
			AssociationTimeoutSeconds: 30,
		},
		Bus: config.BusConfig{
			Port:    "/dev/null",
			ClockHz: 100_000,
			SDAPin:  2,
			SCLPin:  3,
		},
		Console: config.ConsoleConfig{
			WaitPollMS:      100,
			WaitMaxAttempts: 1,
		},
	}
}

// newTestBringup wires a Bringup with fakes; calls records the bus open.
func newTestBringup(cfg *config.Config, radio Radio, out *strings.Builder, calls *[]string, busErr error) *Bringup {
	openBus := func(config.BusConfig) (sensor.Bus, error) {
		*calls = append(*calls, "openBus")
		if busErr != nil {
			return nil, busErr
		}
		return fakeBusSensor{}, nil
	}

	b := NewBringup(cfg, radio, openBus, console.New(out), noopLogger{})
	b.SetSleeper(func(time.Duration) {})
	b.SetConsoleReady(func() bool { return true })
	return b
}

func TestBringupOrder(t *testing.T) {
	radio := &fakeRadio{}
	var out strings.Builder
	var busCalls []string

	b := newTestBringup(testBringupConfig(), radio, &out, &busCalls, nil)

	bus, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if bus == nil {
		t.Fatal("Run() returned nil bus")
	}

	got := append(radio.calls, busCalls...)
	want := []string{"init", "station", "associate", "openBus"}
	if len(got) != len(want) {
		t.Fatalf("call order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call order = %v, want %v", got, want)
		}
	}

	if radio.assocSSID != "test-net" || radio.assocPassword != "secret" {
		t.Errorf("Associate(%q, %q), want configured credentials", radio.assocSSID, radio.assocPassword)
	}
	if !radio.assocDeadline {
		t.Error("Associate() context carried no deadline")
	}

	if !strings.Contains(out.String(), "Conectado ao Wi-Fi: test-net") {
		t.Errorf("console output missing association line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Barramento I2C inicializado.") {
		t.Errorf("console output missing bus line:\n%s", out.String())
	}
}

func TestBringupRadioInitFailureAborts(t *testing.T) {
	radio := &fakeRadio{initErr: ErrRadioInitFailed}
	var out strings.Builder
	var busCalls []string

	b := newTestBringup(testBringupConfig(), radio, &out, &busCalls, nil)

	_, err := b.Run(context.Background())
	if !errors.Is(err, ErrRadioInitFailed) {
		t.Errorf("Run() error = %v, want ErrRadioInitFailed", err)
	}

	// Fail-fast: nothing after the failed stage may run.
	if len(radio.calls) != 1 {
		t.Errorf("radio calls = %v, want [init] only", radio.calls)
	}
	if len(busCalls) != 0 {
		t.Error("bus opened despite radio init failure")
	}
	if !strings.Contains(out.String(), "ERRO: Falha ao inicializar Wi-Fi") {
		t.Errorf("console output missing radio error line:\n%s", out.String())
	}
}

func TestBringupAssociationFailureAborts(t *testing.T) {
	radio := &fakeRadio{assocErr: ErrAssociationFailed}
	var out strings.Builder
	var busCalls []string

	b := newTestBringup(testBringupConfig(), radio, &out, &busCalls, nil)

	_, err := b.Run(context.Background())
	if !errors.Is(err, ErrAssociationFailed) {
		t.Errorf("Run() error = %v, want ErrAssociationFailed", err)
	}

	if len(busCalls) != 0 {
		t.Error("bus opened despite association failure")
	}
	if !strings.Contains(out.String(), "ERRO: Falha ao conectar ao Wi-Fi") {
		t.Errorf("console output missing association error line:\n%s", out.String())
	}
}

func TestBringupBusFailureAborts(t *testing.T) {
	radio := &fakeRadio{}
	var out strings.Builder
	var busCalls []string

	b := newTestBringup(testBringupConfig(), radio, &out, &busCalls, ErrBusInitFailed)

	_, err := b.Run(context.Background())
	if !errors.Is(err, ErrBusInitFailed) {
		t.Errorf("Run() error = %v, want ErrBusInitFailed", err)
	}
	if strings.Contains(out.String(), "Barramento I2C inicializado.") {
		t.Error("console reported bus ready despite open failure")
	}
}

func TestBringupWaitsForConsole(t *testing.T) {
	radio := &fakeRadio{}
	var out strings.Builder
	var busCalls []string

	cfg := testBringupConfig()
	cfg.Console.WaitMaxAttempts = 10

	b := newTestBringup(cfg, radio, &out, &busCalls, nil)

	polls := 0
	b.SetConsoleReady(func() bool {
		polls++
		return polls == 3
	})

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if polls != 3 {
		t.Errorf("console predicate polled %d times, want exactly 3", polls)
	}
}

func TestConsoleAttachedDefaultStdout(t *testing.T) {
	ready := consoleAttached("")
	if !ready() {
		t.Error("consoleAttached(\"\") = false, stdout is always attached")
	}
}

func TestConsoleAttachedMissingDevice(t *testing.T) {
	ready := consoleAttached("/nonexistent/ttyGS0")
	if ready() {
		t.Error("consoleAttached() = true for missing device node")
	}
}
