package hardware

import (
	"encoding/binary"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/lumiconnect/agent/internal/infrastructure/config"
	"github.com/lumiconnect/agent/internal/sensor"
)

// Bridge command opcodes. The UART-I2C adapter firmware acknowledges every
// frame with a single status byte; 0x00 means the bus transaction completed.
const (
	cmdBusSetup = 'C'
	cmdWrite    = 'W'
	cmdRead     = 'R'

	statusOK = 0x00
)

// SerialBus implements sensor.Bus over a UART-attached I2C bridge adapter.
//
// Frames on the wire:
//
//	setup: 'C' clock_hz[4,BE] sda scl  -> status
//	write: 'W' addr len data...        -> status
//	read:  'R' addr len                -> status data...
//
// The bus is singly-owned by the process; no locking is needed.
type SerialBus struct {
	rw     io.ReadWriter
	closer io.Closer
}

// OpenSerialBus opens the adapter's serial port and brings the bus up at the
// configured clock rate with the two signal lines configured and pulled up.
//
// Returns only when the adapter has acknowledged the setup frame; any attached
// peripheral can be addressed afterwards.
func OpenSerialBus(cfg config.BusConfig) (*SerialBus, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrBusInitFailed, cfg.Port, err)
	}

	b := &SerialBus{rw: port, closer: port}
	if err := b.setup(cfg); err != nil {
		port.Close()
		return nil, err
	}

	return b, nil
}

// newSerialBus wires the bridge protocol over an arbitrary transport.
// Tests use this with an in-memory pipe.
func newSerialBus(rw io.ReadWriter) *SerialBus {
	return &SerialBus{rw: rw}
}

// setup sends the bus configuration frame to the adapter.
func (b *SerialBus) setup(cfg config.BusConfig) error {
	frame := make([]byte, 0, 7)
	frame = append(frame, cmdBusSetup)
	frame = binary.BigEndian.AppendUint32(frame, uint32(cfg.ClockHz))
	frame = append(frame, byte(cfg.SDAPin), byte(cfg.SCLPin))

	if err := b.transact(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrBusInitFailed, err)
	}
	return nil
}

// WriteByte implements sensor.Bus.
func (b *SerialBus) WriteByte(addr byte, v byte) error {
	return b.transact([]byte{cmdWrite, addr, 1, v})
}

// Read implements sensor.Bus.
func (b *SerialBus) Read(addr byte, buf []byte) error {
	if err := b.transact([]byte{cmdRead, addr, byte(len(buf))}); err != nil {
		return err
	}
	if _, err := io.ReadFull(b.rw, buf); err != nil {
		return fmt.Errorf("reading %d bytes from 0x%02X: %w", len(buf), addr, err)
	}
	return nil
}

// transact writes one frame and consumes the adapter's status byte.
func (b *SerialBus) transact(frame []byte) error {
	if _, err := b.rw.Write(frame); err != nil {
		return fmt.Errorf("writing bridge frame: %w", err)
	}

	var status [1]byte
	if _, err := io.ReadFull(b.rw, status[:]); err != nil {
		return fmt.Errorf("reading bridge status: %w", err)
	}
	if status[0] != statusOK {
		return fmt.Errorf("%w: adapter status 0x%02X", ErrBusNack, status[0])
	}
	return nil
}

// Close releases the serial port.
func (b *SerialBus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// SerialBus must satisfy the sensor's bus contract.
var _ sensor.Bus = (*SerialBus)(nil)
