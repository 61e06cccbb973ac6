package ecc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecclabs/go-swi/logger"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig("/dev/ttyS1")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS1", cfg.PortName())
	assert.Equal(t, DefaultWakeBaudRate, cfg.WakeBaudRate())
	assert.Equal(t, DefaultCommandBaudRate, cfg.CommandBaudRate())
	assert.Equal(t, DefaultCommandRetries, cfg.CommandRetries())
	assert.Equal(t, DefaultCommandRetryWait, cfg.CommandRetryWait())
	assert.Equal(t, DefaultReceiveRetries, cfg.ReceiveRetries())
	assert.Equal(t, DefaultReceiveRetryWait, cfg.ReceiveRetryWait())
	assert.Equal(t, DefaultSignAttempts, cfg.SignAttempts())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewConfig_EmptyPortName(t *testing.T) {
	_, err := NewConfig("")
	require.Error(t, err)
}

func TestNewConfig_Options(t *testing.T) {
	mockLog := logger.NewMockLogger()

	cfg, err := NewConfig("/dev/ttyAMA0",
		WithWakeBaudRate(57600),
		WithCommandBaudRate(115200),
		WithCommandRetries(5),
		WithCommandRetryWait(250*time.Millisecond),
		WithReceiveRetries(4),
		WithReceiveRetryWait(20*time.Millisecond),
		WithSignAttempts(2),
		WithLogger(mockLog),
	)
	require.NoError(t, err)

	assert.Equal(t, 57600, cfg.WakeBaudRate())
	assert.Equal(t, 115200, cfg.CommandBaudRate())
	assert.Equal(t, 5, cfg.CommandRetries())
	assert.Equal(t, 250*time.Millisecond, cfg.CommandRetryWait())
	assert.Equal(t, 4, cfg.ReceiveRetries())
	assert.Equal(t, 20*time.Millisecond, cfg.ReceiveRetryWait())
	assert.Equal(t, 2, cfg.SignAttempts())
	assert.Same(t, mockLog, cfg.GetLogger().(*logger.MockLogger))
}

func TestNewConfig_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero wake baud", WithWakeBaudRate(0)},
		{"negative command baud", WithCommandBaudRate(-9600)},
		{"zero command retries", WithCommandRetries(0)},
		{"excessive command retries", WithCommandRetries(MaxCommandRetries + 1)},
		{"negative command retry wait", WithCommandRetryWait(-time.Second)},
		{"zero receive retries", WithReceiveRetries(0)},
		{"excessive receive retries", WithReceiveRetries(MaxReceiveRetries + 1)},
		{"negative receive retry wait", WithReceiveRetryWait(-time.Millisecond)},
		{"zero sign attempts", WithSignAttempts(0)},
		{"excessive sign attempts", WithSignAttempts(MaxSignAttempts + 1)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig("/dev/ttyS1", tt.opt)
			assert.Error(t, err)
		})
	}
}
