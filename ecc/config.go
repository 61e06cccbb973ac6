package ecc

import (
	"errors"
	"fmt"
	"time"

	"github.com/ecclabs/go-swi/logger"
)

// Default retry policies and electrical profiles.
const (
	// DefaultWakeBaudRate is the baud rate of the wake phase. The wake
	// phase always uses 8 data bits so the zero byte forms one long low
	// pulse on the line.
	DefaultWakeBaudRate = 115200

	// DefaultCommandBaudRate is the baud rate of every command and
	// response phase. Command phases always use 7 data bits.
	DefaultCommandBaudRate = 230400

	// DefaultCommandRetries is the number of full wake+exchange attempts
	// per top-level command.
	DefaultCommandRetries = 10

	// DefaultCommandRetryWait is the fixed backoff between command attempts.
	DefaultCommandRetryWait = 100 * time.Millisecond

	// DefaultReceiveRetries is the number of transmit-flag poll attempts
	// per exchange while waiting for the device to drive its reply.
	DefaultReceiveRetries = 2

	// DefaultReceiveRetryWait is the fixed delay between poll attempts.
	DefaultReceiveRetryWait = 50 * time.Millisecond

	// DefaultSignAttempts is the number of attempts of the two-phase sign
	// sequence; each attempt restarts both phases.
	DefaultSignAttempts = 4
)

// Retry policy limits.
const (
	MinCommandRetries = 1
	MaxCommandRetries = 100

	MinReceiveRetries = 1
	MaxReceiveRetries = 31

	MinSignAttempts = 1
	MaxSignAttempts = 16
)

// MaxFrameSize is the maximum logical frame size in bytes, in either
// direction. A reply declaring a larger length is treated as corrupted.
const MaxFrameSize = 151

// Config holds the immutable configuration of a Device: the port path,
// the electrical profiles of both protocol phases, and the independently
// scoped retry policies.
type Config struct {
	portName string

	wakeBaudRate    int
	commandBaudRate int

	commandRetries   int
	commandRetryWait time.Duration

	receiveRetries   int
	receiveRetryWait time.Duration

	signAttempts int

	logger logger.Logger
}

// NewConfig creates a Device configuration for the named serial port.
//
// portName is the path of the serial device (e.g. "/dev/ttyS1").
// opts are functional options applied in order; see With* functions.
func NewConfig(portName string, opts ...Option) (*Config, error) {
	if portName == "" {
		return nil, errors.New("ecc: port name is empty")
	}

	cfg := &Config{
		portName:         portName,
		wakeBaudRate:     DefaultWakeBaudRate,
		commandBaudRate:  DefaultCommandBaudRate,
		commandRetries:   DefaultCommandRetries,
		commandRetryWait: DefaultCommandRetryWait,
		receiveRetries:   DefaultReceiveRetries,
		receiveRetryWait: DefaultReceiveRetryWait,
		signAttempts:     DefaultSignAttempts,
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// PortName returns the serial device path.
func (cfg *Config) PortName() string { return cfg.portName }

// WakeBaudRate returns the baud rate of the wake phase.
func (cfg *Config) WakeBaudRate() int { return cfg.wakeBaudRate }

// CommandBaudRate returns the baud rate of the command/response phases.
func (cfg *Config) CommandBaudRate() int { return cfg.commandBaudRate }

// CommandRetries returns the number of wake+exchange attempts per command.
func (cfg *Config) CommandRetries() int { return cfg.commandRetries }

// CommandRetryWait returns the fixed backoff between command attempts.
func (cfg *Config) CommandRetryWait() time.Duration { return cfg.commandRetryWait }

// ReceiveRetries returns the number of reply poll attempts per exchange.
func (cfg *Config) ReceiveRetries() int { return cfg.receiveRetries }

// ReceiveRetryWait returns the fixed delay between reply poll attempts.
func (cfg *Config) ReceiveRetryWait() time.Duration { return cfg.receiveRetryWait }

// SignAttempts returns the number of two-phase sign sequence attempts.
func (cfg *Config) SignAttempts() int { return cfg.signAttempts }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithWakeBaudRate overrides the wake phase baud rate.
func WithWakeBaudRate(baud int) Option {
	return optFunc(func(cfg *Config) error {
		if baud <= 0 {
			return fmt.Errorf("ecc: wake baud rate %d must be positive", baud)
		}
		cfg.wakeBaudRate = baud

		return nil
	})
}

// WithCommandBaudRate overrides the command phase baud rate.
func WithCommandBaudRate(baud int) Option {
	return optFunc(func(cfg *Config) error {
		if baud <= 0 {
			return fmt.Errorf("ecc: command baud rate %d must be positive", baud)
		}
		cfg.commandBaudRate = baud

		return nil
	})
}

// WithCommandRetries sets the number of wake+exchange attempts per command.
func WithCommandRetries(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < MinCommandRetries || n > MaxCommandRetries {
			return fmt.Errorf("ecc: command retries %d out of range [%d, %d]", n, MinCommandRetries, MaxCommandRetries)
		}
		cfg.commandRetries = n

		return nil
	})
}

// WithCommandRetryWait sets the fixed backoff between command attempts.
func WithCommandRetryWait(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return errors.New("ecc: command retry wait must not be negative")
		}
		cfg.commandRetryWait = d

		return nil
	})
}

// WithReceiveRetries sets the number of reply poll attempts per exchange.
func WithReceiveRetries(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < MinReceiveRetries || n > MaxReceiveRetries {
			return fmt.Errorf("ecc: receive retries %d out of range [%d, %d]", n, MinReceiveRetries, MaxReceiveRetries)
		}
		cfg.receiveRetries = n

		return nil
	})
}

// WithReceiveRetryWait sets the fixed delay between reply poll attempts.
func WithReceiveRetryWait(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return errors.New("ecc: receive retry wait must not be negative")
		}
		cfg.receiveRetryWait = d

		return nil
	})
}

// WithSignAttempts sets the number of two-phase sign sequence attempts.
func WithSignAttempts(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < MinSignAttempts || n > MaxSignAttempts {
			return fmt.Errorf("ecc: sign attempts %d out of range [%d, %d]", n, MinSignAttempts, MaxSignAttempts)
		}
		cfg.signAttempts = n

		return nil
	})
}

// WithLogger sets the logger for the device.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("ecc: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
