package ecc

import (
	"fmt"

	"github.com/ecclabs/go-swi/internal/util"
)

// Status codes reported by the secure element in a status frame.
const (
	// StatusSuccess indicates the command completed with no data payload.
	StatusSuccess = 0x00
	// StatusCheckmacMiscompare indicates a CheckMac/Verify comparison failed.
	StatusCheckmacMiscompare = 0x01
	// StatusParseError indicates the device could not parse the command.
	StatusParseError = 0x03
	// StatusEccFault indicates a transient ECC computation fault.
	StatusEccFault = 0x05
	// StatusSelfTestError indicates a power-on self test failure.
	StatusSelfTestError = 0x07
	// StatusExecutionError indicates the command cannot execute in the
	// device's current state (e.g. locked configuration zone).
	StatusExecutionError = 0x0F
	// StatusAfterWake is the token the device reports after a successful
	// wake sequence.
	StatusAfterWake = 0x11
	// StatusWatchdogExpiring indicates the watchdog is about to expire and
	// the command was dropped.
	StatusWatchdogExpiring = 0xEE
	// StatusCommsError indicates a CRC or other communication fault on the
	// received command.
	StatusCommsError = 0xFF
)

// Reply frame layout: [count, payload..., crc16lo, crc16hi]. The count
// byte includes itself and the checksum, so a status frame is exactly
// 4 bytes with the status code in the second position.
const (
	statusFrameSize = 4
	checksumSize    = 2
)

func statusName(status byte) string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusCheckmacMiscompare:
		return "checkmac miscompare"
	case StatusParseError:
		return "parse error"
	case StatusEccFault:
		return "ecc fault"
	case StatusSelfTestError:
		return "self test failure"
	case StatusExecutionError:
		return "execution error"
	case StatusAfterWake:
		return "after wake"
	case StatusWatchdogExpiring:
		return "watchdog about to expire"
	case StatusCommsError:
		return "communication error"
	default:
		return "unknown"
	}
}

// classifyReply partitions a logical reply frame into a data payload or a
// device-reported error.
//
// A frame whose count byte disagrees with its length, or which is shorter
// than a status frame, is a parse failure. A 4-byte frame is a status
// frame: success and after-wake classify as data-less success, everything
// else as a DeviceError. Longer frames are data frames whose payload
// excludes the count byte and trailing checksum.
//
// Checksum verification belongs to the command layer and is not performed
// here.
func classifyReply(frame []byte) ([]byte, error) {
	if len(frame) < statusFrameSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrParseFailure, len(frame), statusFrameSize)
	}
	if int(frame[0]) != len(frame) {
		return nil, fmt.Errorf("%w: count byte %d disagrees with frame length %d", ErrParseFailure, frame[0], len(frame))
	}

	if len(frame) == statusFrameSize {
		switch status := frame[1]; status {
		case StatusSuccess, StatusAfterWake:
			return nil, nil
		case StatusCheckmacMiscompare, StatusParseError, StatusEccFault,
			StatusSelfTestError, StatusExecutionError, StatusWatchdogExpiring, StatusCommsError:
			return nil, &DeviceError{Status: status}
		default:
			return nil, fmt.Errorf("%w: unknown status code 0x%02X", ErrParseFailure, status)
		}
	}

	return util.CloneSlice(frame[1:len(frame)-checksumSize], 0), nil
}
