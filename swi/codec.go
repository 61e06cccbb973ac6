package swi

import "math/bits"

// Physical symbols emitted by the host for each logical bit.
const (
	// SymbolZero is the physical UART byte representing a logical 0 bit.
	SymbolZero = 0xFD
	// SymbolOne is the physical UART byte representing a logical 1 bit.
	SymbolOne = 0xFF
)

// One-symbols observed on the receive path. The device drives the shared
// line open-drain, so a reply bit pulled low inside the bit-unstable
// interval is sampled by the host UART as 0x7F or 0x7E. The host's own
// one-symbol 0xFF is also accepted so that a loopback echo decodes to the
// bytes that produced it.
const (
	recvOneFull    = 0x7F
	recvOnePartial = 0x7E
)

// BitsPerByte is the physical expansion factor: one logical byte becomes
// 8 physical bytes, one per bit, LSB first.
const BitsPerByte = 8

// Reserved logical byte values of the wire protocol.
const (
	// WakeRequest is the logical byte written at the wake baud rate to pull
	// the device out of its low-power state.
	WakeRequest = 0x00
	// TransmitFlag is the logical byte that requests the device drive its
	// reply onto the shared line.
	TransmitFlag = 0x88
	// SleepRequest is the logical byte that sends the device back to its
	// low-power state.
	SleepRequest = 0xCC
)

// Encode converts a logical byte buffer into its SWI pulse-train form.
// Each bit of each byte, least-significant first, becomes one physical
// symbol byte. The result is always 8x the input length.
func Encode(logical []byte) []byte {
	physical := make([]byte, 0, len(logical)*BitsPerByte)
	for _, b := range logical {
		for bit := 0; bit < BitsPerByte; bit++ {
			if b&(1<<bit) == 0 {
				physical = append(physical, SymbolZero)
			} else {
				physical = append(physical, SymbolOne)
			}
		}
	}

	return physical
}

// EncodeByte encodes a single logical byte. Convenience for the one-byte
// control pulses (wake, transmit flag, sleep).
func EncodeByte(b byte) []byte {
	return Encode([]byte{b})
}

// Decode converts a physical buffer back into logical bytes.
//
// For every run of 8 physical bytes one logical byte is rebuilt: the low
// bit of an accumulator is toggled for each one-symbol, then the
// accumulator is rotated right, so sample i lands in bit i (the inverse of
// the LSB-first encoding). Any physical byte that is not a one-symbol
// counts as a 0 bit, which makes zero-filled slack in a receive buffer
// decode to trailing zero bytes.
//
// len(physical) must be a multiple of 8; violating this is a contract
// error and panics.
func Decode(physical []byte) []byte {
	if len(physical)%BitsPerByte != 0 {
		panic("swi: physical frame length is not a multiple of 8")
	}

	logical := make([]byte, len(physical)/BitsPerByte)
	for i := range logical {
		var acc byte
		for _, sample := range physical[i*BitsPerByte : (i+1)*BitsPerByte] {
			if sample == recvOneFull || sample == recvOnePartial || sample == SymbolOne {
				acc ^= 1
			}
			acc = bits.RotateLeft8(acc, -1)
		}
		logical[i] = acc
	}

	return logical
}
