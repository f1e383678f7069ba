// Package power reports the host's charge state, the signal used to decide
// whether a USB cable to a powered companion device is attached.
//
// Monitors must be enabled before they report anything; a disabled monitor
// reports StateUnknown. Callers enable monitoring only for the duration of a
// check so the capability is never left on as a side effect.
package power

import (
	"errors"
	"sync"
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from charge-state monitors.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// ChargeState is the reported battery/charger state.
type ChargeState int

const (
	StateUnknown ChargeState = iota
	StateUnplugged
	StateCharging
	StateFull
)

func (s ChargeState) String() string {
	switch s {
	case StateUnplugged:
		return "unplugged"
	case StateCharging:
		return "charging"
	case StateFull:
		return "full"
	default:
		return "unknown"
	}
}

// ErrNoMonitor is returned by Fallback when no monitor could be enabled.
var ErrNoMonitor = errors.New("no charge-state monitor available")

// Monitor reports the charge state while monitoring is enabled.
type Monitor interface {
	SetMonitoringEnabled(enabled bool) error
	ChargeState() ChargeState
}

// Fallback enables the first monitor that accepts and reports through it.
type Fallback struct {
	Monitors []Monitor

	mu     sync.Mutex
	active Monitor
}

// NewFallback returns a Fallback over the given monitors, tried in order.
func NewFallback(monitors ...Monitor) *Fallback {
	return &Fallback{Monitors: monitors}
}

// SetMonitoringEnabled implements Monitor.
func (f *Fallback) SetMonitoringEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !enabled {
		if f.active == nil {
			return nil
		}
		err := f.active.SetMonitoringEnabled(false)
		f.active = nil
		return err
	}

	if f.active != nil {
		return nil
	}
	for _, m := range f.Monitors {
		if err := m.SetMonitoringEnabled(true); err != nil {
			debugLog("monitor %T unavailable: %v", m, err)
			continue
		}
		f.active = m
		return nil
	}
	return ErrNoMonitor
}

// ChargeState implements Monitor.
func (f *Fallback) ChargeState() ChargeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return StateUnknown
	}
	return f.active.ChargeState()
}

// NewDefaultMonitor returns UPower with a sysfs fallback.
func NewDefaultMonitor() Monitor {
	return NewFallback(NewUPowerMonitor(), NewSysfsMonitor(DefaultSysfsRoot))
}
