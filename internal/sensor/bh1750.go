package sensor

import (
	"encoding/binary"
	"fmt"
)

// BH1750 opcodes (datasheet section 5, "Instruction Set Architecture").
const (
	opPowerOn = 0x01

	// opContinuousHighRes starts continuous 1 lx resolution measurement.
	// The first conversion completes within 180 ms, well inside the agent's
	// sample cadence.
	opContinuousHighRes = 0x10
)

// countsPerLux converts the BH1750's raw 16-bit count to lux.
const countsPerLux = 1.2

// rawReadingSize is the measurement register width in bytes.
const rawReadingSize = 2

// BH1750 drives the ROHM BH1750FVI ambient-light sensor.
//
// The device reports illuminance as a big-endian 16-bit count at 1.2
// counts/lux in high-resolution mode.
type BH1750 struct {
	bus  Bus
	addr byte
}

// NewBH1750 creates a driver for the sensor at addr on the given bus.
// The bus must already be brought up. Valid addresses are 0x23 and 0x5C.
func NewBH1750(bus Bus, addr byte) *BH1750 {
	return &BH1750{bus: bus, addr: addr}
}

// Init powers the sensor on and selects continuous high-resolution mode.
func (s *BH1750) Init() error {
	if err := s.bus.WriteByte(s.addr, opPowerOn); err != nil {
		return fmt.Errorf("%w: power on: %w", ErrInitFailed, err)
	}
	if err := s.bus.WriteByte(s.addr, opContinuousHighRes); err != nil {
		return fmt.Errorf("%w: set measurement mode: %w", ErrInitFailed, err)
	}
	return nil
}

// ReadLux reads the latest measurement and converts it to lux.
func (s *BH1750) ReadLux() (float64, error) {
	buf := make([]byte, rawReadingSize)
	if err := s.bus.Read(s.addr, buf); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	raw := binary.BigEndian.Uint16(buf)
	return float64(raw) / countsPerLux, nil
}
