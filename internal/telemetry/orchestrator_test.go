package telemetry

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/lumiconnect/agent/internal/console"
	"github.com/lumiconnect/agent/internal/infrastructure/config"
)

// =============================================================================
// Test Fakes
// =============================================================================

type publication struct {
	topic   string
	payload string
}

// fakeConn scripts IsConnected responses and records session activity.
// The last scripted response repeats once the script is exhausted.
type fakeConn struct {
	script   []bool
	idx      int
	restarts int
	pubs     []publication
	pubErr   error
}

func (c *fakeConn) StartOrRestart() {
	c.restarts++
}

func (c *fakeConn) IsConnected() bool {
	i := c.idx
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	c.idx++
	return c.script[i]
}

func (c *fakeConn) PublishString(topic, payload string) error {
	if c.pubErr != nil {
		return c.pubErr
	}
	c.pubs = append(c.pubs, publication{topic: topic, payload: payload})
	return nil
}

// fakeSensor returns scripted readings; the last value repeats.
type fakeSensor struct {
	values []float64
	idx    int
	err    error
}

func (s *fakeSensor) Init() error { return nil }

func (s *fakeSensor) ReadLux() (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	i := s.idx
	if i >= len(s.values) {
		i = len(s.values) - 1
	}
	s.idx++
	return s.values[i], nil
}

type mirrorWrite struct {
	deviceID string
	lux      float64
}

type fakeMirror struct {
	writes []mirrorWrite
}

func (m *fakeMirror) WriteReading(deviceID string, lux float64, _ time.Time) {
	m.writes = append(m.writes, mirrorWrite{deviceID: deviceID, lux: lux})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

func testConfig() *config.Config {
	return &config.Config{
		Device: config.DeviceConfig{ID: "lumi-test", TopicSuffix: "luminosidade"},
		Telemetry: config.TelemetryConfig{
			SampleIntervalMS: 1000,
			GraceAttempts:    1,
			GraceDelayMS:     500,
		},
	}
}

// runSleeps runs the orchestrator until the injected sleeper has been called
// totalSleeps times (grace sleeps included), then cancels. Returns the sleep
// durations observed.
func runSleeps(t *testing.T, o *Orchestrator, totalSleeps int) []time.Duration {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	o.SetSleeper(func(d time.Duration) {
		sleeps = append(sleeps, d)
		if len(sleeps) >= totalSleeps {
			cancel()
		}
	})

	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}

	return sleeps
}

// =============================================================================
// Steady-State Cycle Tests
// =============================================================================

func TestRunPublishesOncePerConnectedCycle(t *testing.T) {
	conn := &fakeConn{script: []bool{true}}
	sens := &fakeSensor{values: []float64{305.0, 0.5, 123.456}}
	out := &bytes.Buffer{}

	o := New(testConfig(), sens, conn, console.New(out), nopLogger{})
	runSleeps(t, o, 3)

	want := []publication{
		{topic: "lumi-test/luminosidade", payload: "305.00"},
		{topic: "lumi-test/luminosidade", payload: "0.50"},
		{topic: "lumi-test/luminosidade", payload: "123.46"},
	}
	if len(conn.pubs) != len(want) {
		t.Fatalf("publish count = %d, want %d (pubs: %v)", len(conn.pubs), len(want), conn.pubs)
	}
	for i, p := range conn.pubs {
		if p != want[i] {
			t.Errorf("publish[%d] = %+v, want %+v", i, p, want[i])
		}
	}

	// One console reading line per connected cycle, exact format.
	if !strings.Contains(out.String(), "Luminosidade: 305.00 Lux\n") {
		t.Errorf("console output missing reading line, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Luminosidade: 0.50 Lux\n") {
		t.Errorf("console output missing low-value reading line, got:\n%s", out.String())
	}

	stats := o.Stats()
	if stats.Cycles != 3 || stats.Published != 3 {
		t.Errorf("stats = %+v, want 3 cycles / 3 published", stats)
	}

	// Run issues exactly one session request; connected cycles issue none.
	if conn.restarts != 1 {
		t.Errorf("restarts = %d, want 1 (initial request only)", conn.restarts)
	}
}

func TestRunDisconnectedCycleWarnsAndRestarts(t *testing.T) {
	// Grace poll sees connected once, then every cycle sees disconnected.
	conn := &fakeConn{script: []bool{true, false}}
	sens := &fakeSensor{values: []float64{305.0}}
	out := &bytes.Buffer{}

	o := New(testConfig(), sens, conn, console.New(out), nopLogger{})
	runSleeps(t, o, 2)

	if len(conn.pubs) != 0 {
		t.Errorf("publishes while disconnected = %d, want 0", len(conn.pubs))
	}

	// Initial request plus one restart per disconnected cycle.
	if conn.restarts != 3 {
		t.Errorf("restarts = %d, want 3", conn.restarts)
	}

	warnings := strings.Count(out.String(), "[AVISO] Cliente MQTT desconectado. Tentando reconectar...")
	if warnings != 2 {
		t.Errorf("reconnect warnings = %d, want 2, output:\n%s", warnings, out.String())
	}

	stats := o.Stats()
	if stats.Restarts != 2 {
		t.Errorf("stats.Restarts = %d, want 2", stats.Restarts)
	}
}

func TestRunSensorReadFailureSkipsPublish(t *testing.T) {
	conn := &fakeConn{script: []bool{true}}
	sens := &fakeSensor{err: errors.New("bus nack")}
	out := &bytes.Buffer{}

	o := New(testConfig(), sens, conn, console.New(out), nopLogger{})
	runSleeps(t, o, 2)

	if len(conn.pubs) != 0 {
		t.Errorf("publishes after read failure = %d, want 0", len(conn.pubs))
	}
	if strings.Contains(out.String(), "Luminosidade:") {
		t.Errorf("reading line emitted despite read failure:\n%s", out.String())
	}

	stats := o.Stats()
	if stats.ReadErrors != 2 {
		t.Errorf("stats.ReadErrors = %d, want 2", stats.ReadErrors)
	}
}

func TestRunPublishFailureCountedNotFatal(t *testing.T) {
	conn := &fakeConn{script: []bool{true}, pubErr: errors.New("token timeout")}
	sens := &fakeSensor{values: []float64{305.0}}
	out := &bytes.Buffer{}

	o := New(testConfig(), sens, conn, console.New(out), nopLogger{})
	runSleeps(t, o, 3)

	stats := o.Stats()
	if stats.Cycles != 3 {
		t.Errorf("stats.Cycles = %d, want 3 (loop must survive publish failures)", stats.Cycles)
	}
	if stats.PublishErrors != 3 || stats.Published != 0 {
		t.Errorf("stats = %+v, want 3 publish errors / 0 published", stats)
	}

	// Reading lines still appear: console output precedes the publish.
	if !strings.Contains(out.String(), "Luminosidade: 305.00 Lux\n") {
		t.Errorf("reading line missing despite publish failure:\n%s", out.String())
	}
}

func TestRunCycleCadence(t *testing.T) {
	conn := &fakeConn{script: []bool{true}}
	sens := &fakeSensor{values: []float64{100.0}}

	cfg := testConfig()
	cfg.Telemetry.SampleIntervalMS = 250

	o := New(cfg, sens, conn, console.New(&bytes.Buffer{}), nopLogger{})
	sleeps := runSleeps(t, o, 4)

	// Grace succeeds on the first poll, so every sleep is a cycle sleep.
	for i, d := range sleeps {
		if d != 250*time.Millisecond {
			t.Errorf("sleep[%d] = %v, want 250ms", i, d)
		}
	}
}

func TestRunMirrorsReadings(t *testing.T) {
	conn := &fakeConn{script: []bool{true}}
	sens := &fakeSensor{values: []float64{305.0}}
	mirror := &fakeMirror{}

	o := New(testConfig(), sens, conn, console.New(&bytes.Buffer{}), nopLogger{})
	o.SetMirror(mirror)
	runSleeps(t, o, 2)

	if len(mirror.writes) != 2 {
		t.Fatalf("mirror writes = %d, want 2", len(mirror.writes))
	}
	if mirror.writes[0].deviceID != "lumi-test" || mirror.writes[0].lux != 305.0 {
		t.Errorf("mirror write = %+v, want device lumi-test / 305.0", mirror.writes[0])
	}
}

// =============================================================================
// Startup Grace Period Tests
// =============================================================================

func TestGraceEarlyExit(t *testing.T) {
	// Connected on the third poll: exactly two grace sleeps, then success.
	conn := &fakeConn{script: []bool{false, false, true}}
	sens := &fakeSensor{values: []float64{305.0}}
	out := &bytes.Buffer{}

	cfg := testConfig()
	cfg.Telemetry.GraceAttempts = 20
	cfg.Telemetry.GraceDelayMS = 500

	o := New(cfg, sens, conn, console.New(out), nopLogger{})
	sleeps := runSleeps(t, o, 3)

	if sleeps[0] != 500*time.Millisecond || sleeps[1] != 500*time.Millisecond {
		t.Errorf("grace sleeps = %v, want two 500ms waits", sleeps[:2])
	}
	if sleeps[2] != 1000*time.Millisecond {
		t.Errorf("first cycle sleep = %v, want 1s", sleeps[2])
	}

	if !strings.Contains(out.String(), "Conexão MQTT estabelecida com sucesso!\n\n") {
		t.Errorf("missing grace success line, output:\n%s", out.String())
	}
}

func TestGraceExhaustedProceedsAnyway(t *testing.T) {
	conn := &fakeConn{script: []bool{false}}
	sens := &fakeSensor{values: []float64{305.0}}
	out := &bytes.Buffer{}

	cfg := testConfig()
	cfg.Telemetry.GraceAttempts = 2
	cfg.Telemetry.GraceDelayMS = 500

	o := New(cfg, sens, conn, console.New(out), nopLogger{})

	// 2 grace sleeps + 1 cycle sleep.
	sleeps := runSleeps(t, o, 3)

	if sleeps[0] != 500*time.Millisecond || sleeps[1] != 500*time.Millisecond {
		t.Errorf("grace sleeps = %v, want two 500ms waits", sleeps[:2])
	}

	if !strings.Contains(out.String(), "[AVISO] Não foi possível conectar ao broker MQTT inicialmente.\n\n") {
		t.Errorf("missing grace warning line, output:\n%s", out.String())
	}

	// The loop still runs: the disconnected first cycle warns and restarts.
	if !strings.Contains(out.String(), "[AVISO] Cliente MQTT desconectado. Tentando reconectar...") {
		t.Errorf("steady-state loop did not run after grace expiry, output:\n%s", out.String())
	}
	if conn.restarts != 2 {
		t.Errorf("restarts = %d, want 2 (initial + first cycle)", conn.restarts)
	}
}

func TestGraceDisabledSkipsPolling(t *testing.T) {
	conn := &fakeConn{script: []bool{true}}
	sens := &fakeSensor{values: []float64{305.0}}
	out := &bytes.Buffer{}

	cfg := testConfig()
	cfg.Telemetry.GraceAttempts = 0

	o := New(cfg, sens, conn, console.New(out), nopLogger{})
	runSleeps(t, o, 1)

	if strings.Contains(out.String(), "Conexão MQTT estabelecida") {
		t.Errorf("grace outcome line emitted with grace disabled:\n%s", out.String())
	}
	if len(conn.pubs) != 1 {
		t.Errorf("publishes = %d, want 1", len(conn.pubs))
	}
}

// =============================================================================
// Payload Formatting Tests
// =============================================================================

func TestFormatLux(t *testing.T) {
	wire := regexp.MustCompile(`^-?\d+\.\d{2}$`)

	tests := []struct {
		lux  float64
		want string
	}{
		{305.0, "305.00"},
		{0.5, "0.50"},
		{0.0, "0.00"},
		{123.456, "123.46"},
		{65535 / 1.2, "54612.50"},
		{-1.0, "-1.00"},
	}

	for _, tt := range tests {
		got := FormatLux(tt.lux)
		if got != tt.want {
			t.Errorf("FormatLux(%v) = %q, want %q", tt.lux, got, tt.want)
		}
		if !wire.MatchString(got) {
			t.Errorf("FormatLux(%v) = %q does not match wire grammar", tt.lux, got)
		}
	}
}
