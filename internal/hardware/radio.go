package hardware

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lumiconnect/agent/internal/infrastructure/config"
)

// Radio abstracts the wireless subsystem the bring-up sequence drives.
//
// Association is a one-shot precondition: it is attempted once with a bounded
// timeout and never retried at this layer. Ongoing broker reachability is the
// orchestrator's problem, not the radio's.
type Radio interface {
	// Init brings the radio subsystem up. Failure is unrecoverable without
	// external intervention.
	Init(ctx context.Context) error

	// EnableStationMode switches the radio to client (station) mode.
	EnableStationMode(ctx context.Context) error

	// Associate joins the configured network. The context carries the
	// association timeout.
	Associate(ctx context.Context, ssid, password string) error
}

// NMCLIRadio drives the wireless subsystem through NetworkManager's nmcli.
type NMCLIRadio struct {
	binary string
	iface  string
}

// NewNMCLIRadio creates a radio backed by the configured nmcli binary and
// wireless interface.
func NewNMCLIRadio(cfg config.NetworkConfig) *NMCLIRadio {
	return &NMCLIRadio{
		binary: cfg.NMCLIBinary,
		iface:  cfg.Interface,
	}
}

// Init enables the Wi-Fi radio.
func (r *NMCLIRadio) Init(ctx context.Context) error {
	if err := r.run(ctx, "radio", "wifi", "on"); err != nil {
		return fmt.Errorf("%w: %w", ErrRadioInitFailed, err)
	}
	return nil
}

// EnableStationMode puts the interface under NetworkManager control as a
// managed client.
func (r *NMCLIRadio) EnableStationMode(ctx context.Context) error {
	if err := r.run(ctx, "device", "set", r.iface, "managed", "yes"); err != nil {
		return fmt.Errorf("%w: enabling station mode: %w", ErrRadioInitFailed, err)
	}
	return nil
}

// Associate joins the network. nmcli blocks until the association and
// authentication complete or the context expires.
func (r *NMCLIRadio) Associate(ctx context.Context, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid, "ifname", r.iface}
	if password != "" {
		args = append(args, "password", password)
	}
	if err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("%w: ssid %q: %w", ErrAssociationFailed, ssid, err)
	}
	return nil
}

// run executes one nmcli invocation, folding its output into the error.
func (r *NMCLIRadio) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("nmcli %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("nmcli %s: %w", args[0], err)
	}
	return nil
}
