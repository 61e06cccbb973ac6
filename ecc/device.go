package ecc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ecclabs/go-swi/internal/pool"
	"github.com/ecclabs/go-swi/logger"
)

// Request is one logical command frame plus the modeled time the device
// needs to execute it before a reply can be polled. Frame content
// (opcode, parameters, checksum) is the command layer's responsibility;
// the transport treats it as opaque.
type Request struct {
	Frame     []byte
	ExecDelay time.Duration
}

// portLocks serializes operations per port path, so two Device values
// sharing one physical device cannot interleave half-duplex cycles.
var portLocks = xsync.NewMapOf[string, *sync.Mutex]()

// Device drives one secure element over SWI. It holds no open port
// handle; every protocol phase acquires and releases the port with the
// electrical profile that phase requires.
//
// All methods block for the protocol's real-time delays and are not
// cancellable once started.
type Device struct {
	cfg     *Config
	logger  logger.Logger
	metrics DeviceMetrics

	// open and wait are injection points for tests.
	open opener
	wait func(time.Duration)

	mu *sync.Mutex
}

// NewDevice creates a Device for the configured port.
func NewDevice(cfg *Config) *Device {
	mu, _ := portLocks.LoadOrStore(cfg.portName, &sync.Mutex{})

	return &Device{
		cfg:    cfg,
		logger: cfg.logger,
		open:   openSerialPort,
		wait:   pool.Sleep,
		mu:     mu,
	}
}

// Metrics returns the device's metrics.
func (d *Device) Metrics() *DeviceMetrics {
	return &d.metrics
}

// Send runs the full command cycle for req and returns the reply payload,
// sending the device back to sleep after a successful exchange. A nil
// payload with a nil error means the device acknowledged with a bare
// status frame.
func (d *Device) Send(req Request) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.run(req, true, d.cfg.commandRetries)
}

// SendNoSleep is Send without the trailing sleep pulse, leaving the
// device awake for a follow-up command.
func (d *Device) SendNoSleep(req Request) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.run(req, false, d.cfg.commandRetries)
}

// Wake runs one wake sequence and validates the device's acknowledgment.
func (d *Device) Wake() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.wake()
}

// Sleep sends the device to its low-power state. Fire-and-forget: no
// reply is awaited and failures are only logged.
func (d *Device) Sleep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sendSleep()
}

// run is the command retry engine: wake, exchange, classify, optionally
// sleep, bounded by retries attempts with a fixed backoff.
//
// Recoverable device errors and parse failures both consume one retry;
// fatal errors (port failures, oversized frames, non-recoverable device
// faults) surface immediately. Exhausting the budget yields ErrTimeout
// wrapping the last underlying cause.
//
// The caller must hold d.mu.
func (d *Device) run(req Request, sleepAfter bool, retries int) ([]byte, error) {
	if len(req.Frame) == 0 {
		return nil, ErrEmptyFrame
	}
	if len(req.Frame) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrFrameTooLarge, len(req.Frame), MaxFrameSize)
	}

	var lastErr error

	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			d.metrics.incCommandRetryCount()
			d.wait(d.cfg.commandRetryWait)
		}

		if err := d.wake(); err != nil {
			// Any wake failure short of a dead port retries the cycle.
			if errors.Is(err, ErrPort) {
				return nil, err
			}
			d.logger.Debug("ecc: wake attempt failed", "attempt", attempt+1, "error", err)
			lastErr = err

			continue
		}

		d.metrics.incExchangeCount()

		reply, err := d.exchange(req.Frame, req.ExecDelay)
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			d.logger.Debug("ecc: exchange attempt failed", "attempt", attempt+1, "error", err)
			lastErr = err

			continue
		}

		payload, cerr := classifyReply(reply)
		if sleepAfter {
			d.sendSleep()
		}

		if cerr == nil {
			return payload, nil
		}

		d.metrics.incDeviceErrCount()
		if isFatal(cerr) {
			return nil, cerr
		}

		d.logger.Debug("ecc: reply classified for retry", "attempt", attempt+1, "error", cerr)
		lastErr = cerr
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted: %w", ErrTimeout, retries, lastErr)
}
