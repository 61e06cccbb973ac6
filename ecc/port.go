package ecc

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/ecclabs/go-swi/logger"
)

// portReadTimeout bounds a single blocking read on the port. Reply timing
// is governed by the protocol's own settle delays, so this only needs to
// cover scheduling jitter.
const portReadTimeout = 100 * time.Millisecond

// serialPort is the subset of go.bug.st/serial.Port the transport uses.
// Narrowing the interface keeps the mock surface small in tests.
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// opener opens a physical serial port with the given mode. Injectable so
// tests can substitute a scripted port.
type opener func(portName string, mode *serial.Mode) (serialPort, error)

func openSerialPort(portName string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(portName, mode)
}

// wakeMode returns the electrical profile of the wake phase: lower baud,
// 8 data bits, so the zero byte stretches into the long wake pulse.
func (cfg *Config) wakeMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: cfg.wakeBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// commandMode returns the electrical profile of the command/response
// phases: higher baud, 7 data bits, matching the device's SWI symbol
// timing.
func (cfg *Config) commandMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: cfg.commandBaudRate,
		DataBits: 7,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// session is a scoped acquisition of the serial port for one protocol
// phase. It is opened with the phase's electrical profile and must be
// released with Close on every exit path.
type session struct {
	port   serialPort
	logger logger.Logger
}

// openSession opens the port for one protocol phase. Failures wrap
// ErrPort and are fatal to the surrounding operation.
func openSession(open opener, portName string, mode *serial.Mode, l logger.Logger) (*session, error) {
	port, err := open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPort, portName, err)
	}

	if err := port.SetReadTimeout(portReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: set read timeout on %s: %w", ErrPort, portName, err)
	}

	return &session{port: port, logger: l}, nil
}

// Close releases the port. Safe to call on every exit path.
func (s *session) Close() {
	if err := s.port.Close(); err != nil {
		s.logger.Warn("ecc: closing port session", "error", err)
	}
}

// clearInput discards any buffered input left over from a previous phase.
func (s *session) clearInput() {
	if err := s.port.ResetInputBuffer(); err != nil {
		s.logger.Warn("ecc: resetting input buffer", "error", err)
	}
}

// write transmits the whole buffer, wrapping failures as ErrPort.
func (s *session) write(data []byte) error {
	for written := 0; written < len(data); {
		n, err := s.port.Write(data[written:])
		written += n

		if err != nil {
			return fmt.Errorf("%w: write: %w", ErrPort, err)
		}
	}

	return nil
}

// readFull reads exactly len(buf) bytes. A read that makes no progress
// means the line went silent before the expected bytes arrived.
func (s *session) readFull(buf []byte) error {
	for read := 0; read < len(buf); {
		n, err := s.port.Read(buf[read:])
		if err != nil {
			return fmt.Errorf("%w: read: %w", ErrPort, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: line silent after %d of %d bytes", ErrTimeout, read, len(buf))
		}
		read += n
	}

	return nil
}

// readAvailable performs a single bounded read, returning however many
// bytes the device has driven onto the line. A zero count means the read
// timeout expired with the line idle.
func (s *session) readAvailable(buf []byte) (int, error) {
	n, err := s.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("%w: read: %w", ErrPort, err)
	}

	return n, nil
}
