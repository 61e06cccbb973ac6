// Package ecc implements the transport and recovery layer for a secure
// element driven over a Single-Wire Interface (SWI) tunneled through a
// standard asynchronous UART.
//
// The device shares one electrical line for both directions, so the
// protocol is half-duplex and self-echoing: every byte the host transmits
// reappears on its own receive path and must be drained before a real
// reply can be read. Replies are requested explicitly by writing a
// transmit-flag pulse.
//
// # Protocol Phases
//
// Each phase opens the serial port with the electrical profile it needs
// and closes it afterwards; no handle persists between operations:
//
//   - Wake: 115200 baud, 8 data bits. A single zero byte stretched across
//     the slow frame forms the wake pulse.
//   - Command/response: 230400 baud, 7 data bits. Logical bytes travel
//     SWI-encoded, 8 physical bytes per logical byte (see package swi).
//
// # Exchange Cycle
//
// A command exchange is: wake the device and validate its acknowledgment,
// write the encoded frame, sleep for the modeled transmission time, drain
// the self-echo, sleep for the command's execution delay, then poll for
// the reply with bounded transmit-flag retries. The decoded reply is
// classified as data or as a device-reported error; recoverable errors
// and parse failures consume one retry of the bounded command loop, fatal
// errors surface immediately, and exhausting any budget yields ErrTimeout.
//
// Every protocol delay is a hard real-time constraint of the electrical
// interface, honored by blocking the calling goroutine. Calls are
// therefore not cancellable; the package serializes operations per port
// path and expects a single logical operation in flight per device.
package ecc
