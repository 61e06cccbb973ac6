package ecc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecclabs/go-swi/swi"
)

func signRequests() (Request, Request) {
	nonce := Request{
		Frame:     append([]byte{0x27, 0x16, 0x43, 0x00, 0x00}, make([]byte, 32)...),
		ExecDelay: 29 * time.Millisecond,
	}
	sign := Request{
		Frame:     []byte{0x07, 0x41, 0x80, 0x00, 0x00},
		ExecDelay: 115 * time.Millisecond,
	}

	return nonce, sign
}

func signature() []byte {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}

	return sig
}

func TestDevice_Sign_SingleAttempt(t *testing.T) {
	nonce, sign := signRequests()

	bus := &mockBus{}
	bus.script(
		wakeAck(), statusReply(StatusSuccess), // digest load
		wakeAck(), dataReply(signature()), // signature
	)

	dev := newTestDevice(t, bus)

	sig, err := dev.Sign(nonce, sign)
	require.NoError(t, err)
	assert.Equal(t, signature(), sig)

	// The digest load leaves the device awake; only the signature
	// exchange is followed by a sleep pulse.
	assert.Equal(t, uint64(1), dev.Metrics().SleepCount.Load())
}

func TestDevice_Sign_PhaseBFailureRestartsBothPhases(t *testing.T) {
	nonce, sign := signRequests()

	bus := &mockBus{}
	bus.script(
		// Attempt 1: digest load succeeds, signature reply never arrives.
		wakeAck(), statusReply(StatusSuccess),
		wakeAck(), nil, nil,
		// Attempt 2: both phases succeed.
		wakeAck(), statusReply(StatusSuccess),
		wakeAck(), dataReply(signature()),
	)

	dev := newTestDevice(t, bus, WithSignAttempts(2), WithReceiveRetries(2))

	sig, err := dev.Sign(nonce, sign)
	require.NoError(t, err)
	assert.Equal(t, signature(), sig)

	// Phase (a) ran again on the second attempt; phase (b) was never
	// retried in isolation.
	assert.Equal(t, 2, bus.countWrites(swi.Encode(nonce.Frame)))
	assert.Equal(t, 2, bus.countWrites(swi.Encode(sign.Frame)))

	// The inter-attempt reset pulse plus the final post-signature sleep.
	assert.Equal(t, 2, bus.countWrites(swi.EncodeByte(swi.SleepRequest)))
}

func TestDevice_Sign_PhaseAFailureRestarts(t *testing.T) {
	nonce, sign := signRequests()

	bus := &mockBus{}
	bus.script(
		// Attempt 1: digest load rejected with a recoverable fault.
		wakeAck(), statusReply(StatusWatchdogExpiring),
		// Attempt 2: clean run.
		wakeAck(), statusReply(StatusSuccess),
		wakeAck(), dataReply(signature()),
	)

	dev := newTestDevice(t, bus, WithSignAttempts(2))

	sig, err := dev.Sign(nonce, sign)
	require.NoError(t, err)
	assert.Equal(t, signature(), sig)

	// The failed attempt never reached phase (b).
	assert.Equal(t, 2, bus.countWrites(swi.Encode(nonce.Frame)))
	assert.Equal(t, 1, bus.countWrites(swi.Encode(sign.Frame)))
}

func TestDevice_Sign_ExhaustionSurfacesLastError(t *testing.T) {
	nonce, sign := signRequests()

	bus := &mockBus{}
	// Every digest load fails; no attempt reaches phase (b).
	bus.script(
		wakeAck(), statusReply(StatusCommsError),
		wakeAck(), statusReply(StatusCommsError),
		wakeAck(), statusReply(StatusCommsError),
	)

	dev := newTestDevice(t, bus, WithSignAttempts(3))

	_, err := dev.Sign(nonce, sign)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, bus.countWrites(swi.Encode(sign.Frame)))
}
