// Package swi implements the bit-level codec for the Single-Wire Interface
// (SWI) protocol tunneled over a standard asynchronous UART.
//
// The secure element exposes no multi-wire bus. Each logical bit is instead
// stretched into one full UART character whose low/high timing the device
// samples directly off the line:
//
//   - logical 0 → physical symbol 0xFD
//   - logical 1 → physical symbol 0xFF
//
// Bits are emitted least-significant first, so one logical byte always
// expands to exactly 8 physical bytes. The UART's own start/stop framing
// supplies the sub-bit timing; no additional clock line is needed.
//
// The receive direction is asymmetric. The device drives the shared line
// open-drain, and the host UART samples each reply bit as a single physical
// byte: a bit pulled low inside the unstable interval arrives as 0x7F or
// 0x7E. Decode therefore reconstructs one logical byte per 8 physical bytes
// by toggling an accumulator on one-symbols and rotating it into place.
//
// Both directions share the invariant that a physical frame length is a
// multiple of 8; Decode treats a violation as a programming error and panics.
package swi
