package power

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	upowerService       = "org.freedesktop.UPower"
	upowerDisplayDevice = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	upowerStateProperty = "org.freedesktop.UPower.Device.State"
)

// UPower device states.
const (
	upowerUnknown          uint32 = 0
	upowerCharging         uint32 = 1
	upowerDischarging      uint32 = 2
	upowerEmpty            uint32 = 3
	upowerFullyCharged     uint32 = 4
	upowerPendingCharge    uint32 = 5
	upowerPendingDischarge uint32 = 6
)

// UPowerMonitor reads the display device's state from UPower over the
// system bus. Enabling opens a private bus connection; disabling closes it.
type UPowerMonitor struct {
	// Connect opens the bus connection. Replaced in tests.
	Connect func() (*dbus.Conn, error)

	mu   sync.Mutex
	conn *dbus.Conn
}

// NewUPowerMonitor returns a monitor bound to the system bus.
func NewUPowerMonitor() *UPowerMonitor {
	return &UPowerMonitor{Connect: func() (*dbus.Conn, error) {
		return dbus.ConnectSystemBus()
	}}
}

// SetMonitoringEnabled implements Monitor.
func (u *UPowerMonitor) SetMonitoringEnabled(enabled bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !enabled {
		if u.conn == nil {
			return nil
		}
		err := u.conn.Close()
		u.conn = nil
		return err
	}

	if u.conn != nil {
		return nil
	}
	conn, err := u.Connect()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}
	u.conn = conn
	return nil
}

// ChargeState implements Monitor.
func (u *UPowerMonitor) ChargeState() ChargeState {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()

	if conn == nil {
		return StateUnknown
	}

	v, err := conn.Object(upowerService, upowerDisplayDevice).GetProperty(upowerStateProperty)
	if err != nil {
		debugLog("upower state: %v", err)
		return StateUnknown
	}
	state, ok := v.Value().(uint32)
	if !ok {
		debugLog("upower state: unexpected type %T", v.Value())
		return StateUnknown
	}
	return upowerChargeState(state)
}

func upowerChargeState(state uint32) ChargeState {
	switch state {
	case upowerCharging, upowerPendingCharge:
		return StateCharging
	case upowerFullyCharged:
		return StateFull
	case upowerDischarging, upowerEmpty, upowerPendingDischarge:
		return StateUnplugged
	default:
		return StateUnknown
	}
}
