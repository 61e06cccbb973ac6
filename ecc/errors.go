package ecc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the SWI transport.
var (
	// ErrTimeout indicates that no valid reply was produced within the
	// configured retry and poll budgets, or that a reply declared a length
	// outside the legal frame bounds.
	ErrTimeout = errors.New("ecc: timeout waiting for a valid device reply")

	// ErrPort indicates that the underlying serial device could not be
	// opened, configured, or written. Port failures are fatal and are never
	// retried by this layer.
	ErrPort = errors.New("ecc: serial port failure")

	// ErrWakeFailure indicates that the device did not produce a valid
	// acknowledgment after the wake pulse.
	ErrWakeFailure = errors.New("ecc: device wake failed")

	// ErrParseFailure indicates a malformed reply frame: a length byte that
	// disagrees with the received data, or a frame too short to carry the
	// status and checksum fields.
	ErrParseFailure = errors.New("ecc: malformed reply frame")

	// ErrEmptyFrame indicates that an empty logical frame was submitted.
	ErrEmptyFrame = errors.New("ecc: logical frame is empty")

	// ErrFrameTooLarge indicates that a logical frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("ecc: logical frame exceeds maximum size")
)

// DeviceError is a fault reported by the secure element itself via a
// status frame. Recoverable faults (watchdog, communication CRC, transient
// parse or ECC faults) may clear on retry; the remainder will not.
type DeviceError struct {
	// Status is the raw status code from the device's status frame.
	Status byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("ecc: device error 0x%02X (%s)", e.Status, statusName(e.Status))
}

// Recoverable reports whether the fault may clear if the command is
// retried after a backoff delay.
func (e *DeviceError) Recoverable() bool {
	switch e.Status {
	case StatusParseError, StatusEccFault, StatusWatchdogExpiring, StatusCommsError:
		return true
	default:
		return false
	}
}

// isFatal reports whether err must surface immediately, bypassing the
// remaining retry budget.
func isFatal(err error) bool {
	if errors.Is(err, ErrPort) || errors.Is(err, ErrEmptyFrame) || errors.Is(err, ErrFrameTooLarge) {
		return true
	}

	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return !devErr.Recoverable()
	}

	return false
}
