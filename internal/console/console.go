// Package console emits the agent's fixed-format console protocol.
//
// The boot banner, stage-progress lines, per-cycle reading lines and
// disconnection warnings are consumed by existing log scrapers, so their
// formatting is preserved byte-for-byte from the reference firmware. This is
// deliberately separate from structured logging: the console protocol goes to
// stdout, slog output goes to stderr.
package console

import (
	"fmt"
	"io"
)

// Literal protocol lines. Do not reword: downstream scrapers match on these.
const (
	bannerLine        = "Projeto LumiConnect"
	hardwareStageLine = "Inicializando hardware e conexões..."
	radioInitErrLine  = "ERRO: Falha ao inicializar Wi-Fi"
	associationErr    = "ERRO: Falha ao conectar ao Wi-Fi"
	associatedFmt     = "Conectado ao Wi-Fi: %s\n"
	busReadyLine      = "Barramento I2C inicializado."
	modulesStageLine  = "Inicializando módulos..."
	sensorReadyLine   = "Sensor BH1750 pronto."
	clientStartedLine = "Cliente MQTT iniciado. Aguardando conexão inicial..."
	connectedLines    = "Conexão MQTT estabelecida com sucesso!\n\n"
	graceWarnLines    = "[AVISO] Não foi possível conectar ao broker MQTT inicialmente.\n\n"
	readingFmt        = "Luminosidade: %.2f Lux\n"
	reconnectWarn     = "[AVISO] Cliente MQTT desconectado. Tentando reconectar..."
)

// Console writes the protocol lines to an attached endpoint.
// Output is best-effort: write errors are ignored, matching the original
// firmware's fire-and-forget printf behavior.
type Console struct {
	w io.Writer
}

// New returns a Console writing to w (os.Stdout in production).
func New(w io.Writer) *Console {
	return &Console{w: w}
}

// Banner prints the boot banner.
func (c *Console) Banner() {
	fmt.Fprintln(c.w, bannerLine)
}

// HardwareStage announces the hardware/connectivity bring-up stage.
func (c *Console) HardwareStage() {
	fmt.Fprintln(c.w, hardwareStageLine)
}

// RadioInitError reports a fatal radio initialization failure.
func (c *Console) RadioInitError() {
	fmt.Fprintln(c.w, radioInitErrLine)
}

// AssociationError reports a fatal network association failure.
func (c *Console) AssociationError() {
	fmt.Fprintln(c.w, associationErr)
}

// Associated reports a successful network association.
func (c *Console) Associated(ssid string) {
	fmt.Fprintf(c.w, associatedFmt, ssid)
}

// BusReady reports completed bus bring-up.
func (c *Console) BusReady() {
	fmt.Fprintln(c.w, busReadyLine)
}

// ModulesStage announces the software-module initialization stage.
func (c *Console) ModulesStage() {
	fmt.Fprintln(c.w, modulesStageLine)
}

// SensorReady reports a completed sensor init.
func (c *Console) SensorReady() {
	fmt.Fprintln(c.w, sensorReadyLine)
}

// ClientStarted reports that the first broker session has been requested.
func (c *Console) ClientStarted() {
	fmt.Fprintln(c.w, clientStartedLine)
}

// GraceConnected reports that the startup grace period ended connected.
func (c *Console) GraceConnected() {
	fmt.Fprint(c.w, connectedLines)
}

// GraceWarning reports that the startup grace period expired disconnected.
func (c *Console) GraceWarning() {
	fmt.Fprint(c.w, graceWarnLines)
}

// Reading prints one per-cycle illuminance line.
// fmt's %.2f never applies a locale; the decimal separator is always ".".
func (c *Console) Reading(lux float64) {
	fmt.Fprintf(c.w, readingFmt, lux)
}

// ReconnectWarning reports a disconnected cycle and the restart request.
func (c *Console) ReconnectWarning() {
	fmt.Fprintln(c.w, reconnectWarn)
}
