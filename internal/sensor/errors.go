package sensor

import "errors"

// Domain-specific errors for sensor operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInitFailed is returned when the sensor does not acknowledge its
	// initialization sequence.
	ErrInitFailed = errors.New("sensor: init failed")

	// ErrReadFailed is returned when a measurement read fails.
	ErrReadFailed = errors.New("sensor: read failed")
)
