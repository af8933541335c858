// Package hardware brings the platform to a usable state: console attach
// wait, radio init, station mode, one-shot network association, and sensor
// bus bring-up, in that order, fail-fast.
//
// Two failure tiers apply. Everything in this package is in the fatal tier:
// a radio init failure or an association timeout aborts the process with a
// non-zero exit, because neither can be remediated without external
// intervention (hardware fault, credential misconfiguration). The transient
// tier - broker disconnection - lives in the telemetry loop, not here.
//
// The wireless subsystem is driven through nmcli; the sensor bus through a
// UART-attached I2C bridge adapter. Both sit behind small interfaces
// (Radio, BusOpener) so the sequencing is testable without hardware.
package hardware
