package power

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultSysfsRoot is where Linux exposes power supplies.
const DefaultSysfsRoot = "/sys/class/power_supply"

// SysfsMonitor derives the charge state from the kernel's power_supply class.
// Batteries report status (Charging, Full, Discharging, Not charging);
// USB and Mains supplies report whether they are online.
type SysfsMonitor struct {
	Root string

	mu      sync.Mutex
	enabled bool
}

// NewSysfsMonitor returns a monitor reading supplies under root.
func NewSysfsMonitor(root string) *SysfsMonitor {
	return &SysfsMonitor{Root: root}
}

// SetMonitoringEnabled implements Monitor.
func (s *SysfsMonitor) SetMonitoringEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled {
		info, err := os.Stat(s.Root)
		if err != nil {
			return fmt.Errorf("power supply class: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("power supply class: %s is not a directory", s.Root)
		}
	}
	s.enabled = enabled
	return nil
}

// ChargeState implements Monitor.
func (s *SysfsMonitor) ChargeState() ChargeState {
	s.mu.Lock()
	enabled := s.enabled
	s.mu.Unlock()

	if !enabled {
		return StateUnknown
	}

	entries, err := os.ReadDir(s.Root)
	if err != nil {
		debugLog("read %s: %v", s.Root, err)
		return StateUnknown
	}

	var charging, full, online, battery bool
	for _, e := range entries {
		dir := filepath.Join(s.Root, e.Name())
		switch readAttr(dir, "type") {
		case "Battery":
			battery = true
			switch readAttr(dir, "status") {
			case "Charging":
				charging = true
			case "Full":
				full = true
			}
		case "USB", "Mains":
			if readAttr(dir, "online") == "1" {
				online = true
			}
		}
	}

	switch {
	case charging:
		return StateCharging
	case full:
		return StateFull
	case online:
		return StateCharging
	case battery:
		return StateUnplugged
	default:
		return StateUnknown
	}
}

func readAttr(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
