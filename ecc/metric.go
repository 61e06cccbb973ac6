package ecc

import (
	"sync/atomic"
)

// DeviceMetrics contains atomic metrics for a Device.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type DeviceMetrics struct {
	// WakeCount indicates the number of wake sequences attempted.
	WakeCount atomic.Uint64
	// WakeErrCount indicates the number of failed wake sequences.
	WakeErrCount atomic.Uint64

	// ExchangeCount indicates the number of frame exchanges started.
	ExchangeCount atomic.Uint64
	// CommandRetryCount indicates the number of full command cycle retries.
	CommandRetryCount atomic.Uint64
	// ReceivePollCount indicates the number of transmit-flag reply polls.
	ReceivePollCount atomic.Uint64

	// DeviceErrCount indicates the number of device-reported error frames.
	DeviceErrCount atomic.Uint64
	// SleepCount indicates the number of sleep pulses sent.
	SleepCount atomic.Uint64
}

func (m *DeviceMetrics) incWakeCount() {
	m.WakeCount.Add(1)
}

func (m *DeviceMetrics) incWakeErrCount() {
	m.WakeErrCount.Add(1)
}

func (m *DeviceMetrics) incExchangeCount() {
	m.ExchangeCount.Add(1)
}

func (m *DeviceMetrics) incCommandRetryCount() {
	m.CommandRetryCount.Add(1)
}

func (m *DeviceMetrics) incReceivePollCount() {
	m.ReceivePollCount.Add(1)
}

func (m *DeviceMetrics) incDeviceErrCount() {
	m.DeviceErrCount.Add(1)
}

func (m *DeviceMetrics) incSleepCount() {
	m.SleepCount.Add(1)
}
