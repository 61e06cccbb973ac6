package ecc

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/ecclabs/go-swi/swi"
)

// mockBus emulates the shared single-wire line behind the serial device.
// Every open returns a fresh port whose writes echo back onto its own
// receive buffer (the line is self-echoing), and each transmit-flag write
// pops one scripted device reply. A nil scripted reply models a device
// that has not driven the line yet, so the poll sees only the flag echo.
type mockBus struct {
	modes    []*serial.Mode
	ports    []*mockPort
	replies  [][]byte
	writeLog [][]byte

	openErr  error
	writeErr error
}

func (b *mockBus) opener() opener {
	return func(portName string, mode *serial.Mode) (serialPort, error) {
		if b.openErr != nil {
			return nil, b.openErr
		}
		b.modes = append(b.modes, mode)
		p := &mockPort{bus: b}
		b.ports = append(b.ports, p)

		return p, nil
	}
}

// script queues device replies, popped one per transmit-flag write.
func (b *mockBus) script(replies ...[]byte) {
	b.replies = append(b.replies, replies...)
}

// countWrites returns how many writes across all sessions equal data.
func (b *mockBus) countWrites(data []byte) int {
	count := 0
	for _, w := range b.writeLog {
		if bytes.Equal(w, data) {
			count++
		}
	}

	return count
}

type mockPort struct {
	bus     *mockBus
	pending []byte
	closed  bool
	resets  int
}

var flagPulse = swi.EncodeByte(swi.TransmitFlag)

func (p *mockPort) Write(data []byte) (int, error) {
	if p.bus.writeErr != nil {
		return 0, p.bus.writeErr
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	p.bus.writeLog = append(p.bus.writeLog, cp)

	// Self-echo: the transmit path reappears on the receive path.
	p.pending = append(p.pending, cp...)

	if bytes.Equal(data, flagPulse) && len(p.bus.replies) > 0 {
		p.pending = append(p.pending, p.bus.replies[0]...)
		p.bus.replies = p.bus.replies[1:]
	}

	return len(data), nil
}

func (p *mockPort) Read(buf []byte) (int, error) {
	n := copy(buf, p.pending)
	p.pending = p.pending[n:]

	// n == 0 models an expired read timeout on an idle line.
	return n, nil
}

func (p *mockPort) ResetInputBuffer() error {
	p.pending = nil
	p.resets++

	return nil
}

func (p *mockPort) SetReadTimeout(t time.Duration) error { return nil }

func (p *mockPort) Close() error {
	p.closed = true
	return nil
}

// deviceEncode renders a logical frame the way the open-drain device
// drives it: a one bit arrives as 0x7F, a zero bit leaves the sample low.
func deviceEncode(logical []byte) []byte {
	physical := make([]byte, 0, len(logical)*swi.BitsPerByte)
	for _, b := range logical {
		for bit := 0; bit < swi.BitsPerByte; bit++ {
			if b&(1<<bit) != 0 {
				physical = append(physical, 0x7F)
			} else {
				physical = append(physical, 0x00)
			}
		}
	}

	return physical
}

// statusReply builds the physical form of a 4-byte status frame.
func statusReply(status byte) []byte {
	return deviceEncode([]byte{statusFrameSize, status, 0x5A, 0xA5})
}

// dataReply builds the physical form of a data frame carrying payload.
func dataReply(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, byte(len(payload)+3))
	frame = append(frame, payload...)
	frame = append(frame, 0x5A, 0xA5)

	return deviceEncode(frame)
}

func wakeAck() []byte {
	return statusReply(StatusAfterWake)
}

// newTestDevice builds a Device wired to the mock bus with all protocol
// delays skipped.
func newTestDevice(t *testing.T, bus *mockBus, opts ...Option) *Device {
	t.Helper()

	cfg, err := NewConfig("mock-"+t.Name(), opts...)
	require.NoError(t, err)

	dev := NewDevice(cfg)
	dev.open = bus.opener()
	dev.wait = func(time.Duration) {}

	return dev
}
