package hardware

import "errors"

// Bring-up failures are split in two tiers: radio/association failures are
// fatal (the process exits non-zero), bus failures likewise - nothing past
// bring-up can run without the bus.
var (
	// ErrRadioInitFailed is returned when the radio subsystem cannot be
	// brought up or switched to station mode.
	ErrRadioInitFailed = errors.New("hardware: radio init failed")

	// ErrAssociationFailed is returned when the one-shot network association
	// does not complete within its timeout.
	ErrAssociationFailed = errors.New("hardware: network association failed")

	// ErrBusInitFailed is returned when the sensor bus cannot be brought up.
	ErrBusInitFailed = errors.New("hardware: bus init failed")

	// ErrBusNack is returned when the bridge adapter reports a failed bus
	// transaction.
	ErrBusNack = errors.New("hardware: bus transaction not acknowledged")
)
