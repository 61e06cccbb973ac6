package ecc

import (
	"fmt"
	"time"

	"github.com/ecclabs/go-swi/internal/util"
	"github.com/ecclabs/go-swi/swi"
)

// Hard real-time delays of the SWI electrical protocol. Each one is a
// constraint of the device's sampling, not a tunable.
const (
	// wakeSettleDelay is the time the device needs after the wake pulse
	// before it can accept the transmit flag.
	wakeSettleDelay = 1500 * time.Microsecond

	// byteTransmitTime is the modeled wire time of one physical byte at
	// the command baud rate. The SWI output is self-timed by the host, so
	// the host must block for the full modeled transmission.
	byteTransmitTime = 45 * time.Microsecond

	// wakeAckSettle is the wait between the wake-phase transmit flag and
	// reading the acknowledgment window.
	wakeAckSettle = 5 * time.Millisecond

	// receivePollSettle is the wait between a reply-poll transmit flag and
	// the read attempt.
	receivePollSettle = 40 * time.Millisecond
)

const (
	// flagEchoSize is the physical size of the host's own transmit-flag
	// echo: one logical byte.
	flagEchoSize = 1 * swi.BitsPerByte

	// replyMinSize is the poll threshold: a read longer than this is a
	// real device reply rather than echo remnants.
	replyMinSize = 2 * swi.BitsPerByte

	// wakeAckWindow is the physical read window for the wake
	// acknowledgment: the flag echo plus a 4-byte status frame.
	wakeAckWindow = (1 + statusFrameSize) * swi.BitsPerByte

	// maxEncodedReply is the physical read window for a command reply:
	// the flag echo plus a maximum-size logical frame.
	maxEncodedReply = (1 + MaxFrameSize) * swi.BitsPerByte
)

// wake pulls the device out of its low-power state and validates the
// acknowledgment. The wake pulse is a raw zero byte at the wake profile;
// the acknowledgment is then challenged with a transmit flag at the
// command profile. Every failure wraps ErrWakeFailure.
func (d *Device) wake() error {
	d.metrics.incWakeCount()

	ws, err := openSession(d.open, d.cfg.portName, d.cfg.wakeMode(), d.logger)
	if err != nil {
		return d.wakeFailed(err)
	}

	err = ws.write([]byte{swi.WakeRequest})
	ws.Close()
	if err != nil {
		return d.wakeFailed(err)
	}

	d.wait(wakeSettleDelay)

	cs, err := openSession(d.open, d.cfg.portName, d.cfg.commandMode(), d.logger)
	if err != nil {
		return d.wakeFailed(err)
	}
	defer cs.Close()

	if err := cs.write(swi.EncodeByte(swi.TransmitFlag)); err != nil {
		return d.wakeFailed(err)
	}
	d.wait(wakeAckSettle)

	window := make([]byte, wakeAckWindow)
	if _, err := cs.readAvailable(window); err != nil {
		return d.wakeFailed(err)
	}

	logical := swi.Decode(window)
	// logical[0] is the transmit-flag echo; the ack status frame follows.
	if _, err := classifyReply(logical[1:]); err != nil {
		return d.wakeFailed(err)
	}

	return nil
}

func (d *Device) wakeFailed(err error) error {
	d.metrics.incWakeErrCount()
	return fmt.Errorf("%w: %w", ErrWakeFailure, err)
}

// sendSleep writes the sleep pulse at the command profile. Sleep is
// fire-and-forget: no reply is awaited or validated, and failures are
// only logged.
func (d *Device) sendSleep() {
	s, err := openSession(d.open, d.cfg.portName, d.cfg.commandMode(), d.logger)
	if err != nil {
		d.logger.Warn("ecc: opening port for sleep pulse", "error", err)
		return
	}
	defer s.Close()

	if err := s.write(swi.EncodeByte(swi.SleepRequest)); err != nil {
		d.logger.Warn("ecc: writing sleep pulse", "error", err)
		return
	}

	d.metrics.incSleepCount()
}

// exchange performs one physical send+receive cycle: write the encoded
// frame, block for its modeled transmission time, drain the self-echo,
// wait out the command's execution delay, then poll for and decode the
// reply. The returned logical reply starts at its count byte, truncated
// to the declared length.
func (d *Device) exchange(frame []byte, execDelay time.Duration) ([]byte, error) {
	s, err := openSession(d.open, d.cfg.portName, d.cfg.commandMode(), d.logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	s.clearInput()

	encoded := swi.Encode(frame)
	if err := s.write(encoded); err != nil {
		return nil, err
	}
	d.wait(time.Duration(len(encoded)) * byteTransmitTime)

	// Tx and Rx share one electrical line, so everything just written
	// reappears on the receive path and must be drained first.
	echo := make([]byte, len(encoded))
	if err := s.readFull(echo); err != nil {
		d.logger.Debug("ecc: draining self-echo", "error", err)
	}

	d.wait(execDelay)

	encodedReply, err := d.pollReply(s)
	if err != nil {
		return nil, err
	}

	logical := swi.Decode(encodedReply)
	// logical[0] echoes the transmit flag; logical[1] is the declared
	// frame length, counting itself and the checksum.
	declared := int(logical[1])
	if declared > MaxFrameSize {
		return nil, fmt.Errorf("%w: declared reply length %d exceeds %d", ErrTimeout, declared, MaxFrameSize)
	}

	return util.CloneSlice(logical[1:1+declared], 0), nil
}

// pollReply requests the device's reply with bounded transmit-flag polls.
// A read of exactly the flag echo means the device has not driven its
// reply yet; anything longer than replyMinSize is the reply.
func (d *Device) pollReply(s *session) ([]byte, error) {
	flag := swi.EncodeByte(swi.TransmitFlag)
	buf := make([]byte, maxEncodedReply)

	s.clearInput()

	for attempt := 0; attempt < d.cfg.receiveRetries; attempt++ {
		if attempt > 0 {
			d.wait(d.cfg.receiveRetryWait)
		}
		d.metrics.incReceivePollCount()

		if err := s.write(flag); err != nil {
			return nil, err
		}
		d.wait(receivePollSettle)

		n, err := s.readAvailable(buf)
		if err != nil {
			return nil, err
		}

		switch {
		case n > replyMinSize:
			d.logger.Debug("ecc: reply received", "physicalBytes", n, "polls", attempt+1)
			return buf, nil
		case n == flagEchoSize:
			d.logger.Debug("ecc: reply poll saw flag echo only", "attempt", attempt+1)
		default:
			d.logger.Debug("ecc: reply poll read", "physicalBytes", n, "attempt", attempt+1)
		}
	}

	return nil, fmt.Errorf("%w: no reply after %d polls", ErrTimeout, d.cfg.receiveRetries)
}
