package power

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSupply(t *testing.T, root, name string, attrs map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for k, v := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v+"\n"), 0o644))
	}
}

func TestSysfsMonitor_States(t *testing.T) {
	tests := []struct {
		name     string
		supplies map[string]map[string]string
		want     ChargeState
	}{
		{
			name:     "battery charging",
			supplies: map[string]map[string]string{"BAT0": {"type": "Battery", "status": "Charging"}},
			want:     StateCharging,
		},
		{
			name:     "battery full",
			supplies: map[string]map[string]string{"BAT0": {"type": "Battery", "status": "Full"}},
			want:     StateFull,
		},
		{
			name:     "battery discharging",
			supplies: map[string]map[string]string{"BAT0": {"type": "Battery", "status": "Discharging"}},
			want:     StateUnplugged,
		},
		{
			name: "usb supply online",
			supplies: map[string]map[string]string{
				"BAT0": {"type": "Battery", "status": "Not charging"},
				"usb":  {"type": "USB", "online": "1"},
			},
			want: StateCharging,
		},
		{
			name:     "mains offline, no battery",
			supplies: map[string]map[string]string{"AC": {"type": "Mains", "online": "0"}},
			want:     StateUnknown,
		},
		{
			name:     "empty class",
			supplies: nil,
			want:     StateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, attrs := range tt.supplies {
				writeSupply(t, root, name, attrs)
			}

			m := NewSysfsMonitor(root)
			require.NoError(t, m.SetMonitoringEnabled(true))
			assert.Equal(t, tt.want, m.ChargeState())
			require.NoError(t, m.SetMonitoringEnabled(false))
		})
	}
}

func TestSysfsMonitor_DisabledReportsUnknown(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{"type": "Battery", "status": "Charging"})

	m := NewSysfsMonitor(root)
	assert.Equal(t, StateUnknown, m.ChargeState())

	require.NoError(t, m.SetMonitoringEnabled(true))
	assert.Equal(t, StateCharging, m.ChargeState())

	require.NoError(t, m.SetMonitoringEnabled(false))
	assert.Equal(t, StateUnknown, m.ChargeState())
}

func TestSysfsMonitor_MissingRoot(t *testing.T) {
	m := NewSysfsMonitor(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, m.SetMonitoringEnabled(true))
	assert.Equal(t, StateUnknown, m.ChargeState())
}

func TestUPowerChargeState(t *testing.T) {
	tests := []struct {
		state uint32
		want  ChargeState
	}{
		{upowerUnknown, StateUnknown},
		{upowerCharging, StateCharging},
		{upowerDischarging, StateUnplugged},
		{upowerEmpty, StateUnplugged},
		{upowerFullyCharged, StateFull},
		{upowerPendingCharge, StateCharging},
		{upowerPendingDischarge, StateUnplugged},
		{42, StateUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, upowerChargeState(tt.state), "state %d", tt.state)
	}
}

func TestUPowerMonitor_ConnectFailure(t *testing.T) {
	m := &UPowerMonitor{Connect: func() (*dbus.Conn, error) {
		return nil, errors.New("no system bus")
	}}
	assert.Error(t, m.SetMonitoringEnabled(true))
	assert.Equal(t, StateUnknown, m.ChargeState())
	assert.NoError(t, m.SetMonitoringEnabled(false))
}

type stubMonitor struct {
	enableErr error
	state     ChargeState
	enabled   bool
	enables   int
	disables  int
}

func (s *stubMonitor) SetMonitoringEnabled(enabled bool) error {
	if enabled {
		s.enables++
		if s.enableErr != nil {
			return s.enableErr
		}
	} else {
		s.disables++
	}
	s.enabled = enabled
	return nil
}

func (s *stubMonitor) ChargeState() ChargeState {
	if !s.enabled {
		return StateUnknown
	}
	return s.state
}

func TestFallback_UsesFirstAvailable(t *testing.T) {
	broken := &stubMonitor{enableErr: errors.New("unavailable"), state: StateFull}
	working := &stubMonitor{state: StateCharging}

	f := NewFallback(broken, working)
	require.NoError(t, f.SetMonitoringEnabled(true))
	assert.Equal(t, StateCharging, f.ChargeState())

	require.NoError(t, f.SetMonitoringEnabled(false))
	assert.False(t, working.enabled)
	assert.Equal(t, 1, working.disables)
	assert.Equal(t, 0, broken.disables)
	assert.Equal(t, StateUnknown, f.ChargeState())
}

func TestFallback_NoneAvailable(t *testing.T) {
	f := NewFallback(&stubMonitor{enableErr: errors.New("nope")})
	assert.ErrorIs(t, f.SetMonitoringEnabled(true), ErrNoMonitor)
	assert.Equal(t, StateUnknown, f.ChargeState())
	assert.NoError(t, f.SetMonitoringEnabled(false))
}

func TestChargeState_String(t *testing.T) {
	assert.Equal(t, "charging", StateCharging.String())
	assert.Equal(t, "full", StateFull.String())
	assert.Equal(t, "unplugged", StateUnplugged.String())
	assert.Equal(t, "unknown", StateUnknown.String())
}
