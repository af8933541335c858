// Package sensor provides the ambient-light sensor driver.
//
// The orchestrator consumes the Sensor interface only; the concrete BH1750
// driver speaks its register protocol over an injected Bus, so tests and
// alternative transports never touch real hardware.
package sensor

// Sensor is an ambient-light sensor producing one illuminance value per read.
type Sensor interface {
	// Init prepares the device for continuous measurement.
	Init() error

	// ReadLux returns the current illuminance in lux.
	ReadLux() (float64, error)
}

// Bus is the shared communication bus the sensor is attached to.
//
// The bus is brought up once, before any attached peripheral is addressed,
// and is singly-owned by the process; implementations need no locking.
type Bus interface {
	// WriteByte writes a single command byte to the device at addr.
	WriteByte(addr byte, b byte) error

	// Read fills buf with len(buf) bytes from the device at addr.
	Read(addr byte, buf []byte) error
}
