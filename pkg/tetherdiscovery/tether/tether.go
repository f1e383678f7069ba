// Package tether decides whether a USB-tethering link to a companion device
// is active: a cable must be attached (the host reports charging or full) and
// a bridge interface must be up and running.
package tether

import (
	"strings"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/netif"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/power"
)

// BridgePrefix is the name prefix of the tethering bridge (e.g. bridge100).
const BridgePrefix = "bridge"

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from tether checks.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// InterfaceLister returns a snapshot of the interface table.
type InterfaceLister interface {
	ListInterfaces() []netif.Interface
}

// Status is the result of both checks, computed on demand.
type Status struct {
	CableConnected bool
	BridgeDetected bool
}

// Readiness classifies a Status.
type Readiness int

const (
	Ready Readiness = iota
	NetworkIncomplete
	USBIncomplete
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case NetworkIncomplete:
		return "network-incomplete"
	default:
		return "usb-incomplete"
	}
}

// Readiness reports Ready only when both checks pass. A missing cable wins
// over a missing bridge.
func (s Status) Readiness() Readiness {
	switch {
	case !s.CableConnected:
		return USBIncomplete
	case !s.BridgeDetected:
		return NetworkIncomplete
	default:
		return Ready
	}
}

// Detector runs the cable and bridge checks.
type Detector struct {
	Interfaces   InterfaceLister
	Power        power.Monitor
	BridgePrefix string
}

// NewDetector returns a Detector using the platform interface table and the
// default charge-state monitor.
func NewDetector() *Detector {
	return &Detector{
		Interfaces:   netif.NewInspector(),
		Power:        power.NewDefaultMonitor(),
		BridgePrefix: BridgePrefix,
	}
}

// IsCableConnected reports whether the charge state is charging or full.
// Monitoring is enabled only for the duration of the check.
func (d *Detector) IsCableConnected() bool {
	if d.Power == nil {
		return false
	}
	if err := d.Power.SetMonitoringEnabled(true); err != nil {
		debugLog("enable charge monitoring: %v", err)
	}
	defer func() {
		if err := d.Power.SetMonitoringEnabled(false); err != nil {
			debugLog("disable charge monitoring: %v", err)
		}
	}()

	state := d.Power.ChargeState()
	debugLog("charge state: %s", state)
	return state == power.StateCharging || state == power.StateFull
}

// IsTethered reports whether any bridge interface is up, running and not
// a loopback.
func (d *Detector) IsTethered() bool {
	for _, ifc := range d.interfaces() {
		if IsBridge(ifc, d.prefix()) {
			debugLog("bridge detected: %s", ifc.Name)
			return true
		}
	}
	return false
}

// Status runs both checks.
func (d *Detector) Status() Status {
	return Status{
		CableConnected: d.IsCableConnected(),
		BridgeDetected: d.IsTethered(),
	}
}

// BridgeInterface returns the first bridge entry carrying an IPv4 address and
// netmask, which is what the candidate range can be derived from.
func (d *Detector) BridgeInterface() (netif.Interface, bool) {
	for _, ifc := range d.interfaces() {
		if IsBridge(ifc, d.prefix()) && ifc.Family == netif.FamilyIPv4 &&
			ifc.IPAddress != "" && ifc.Netmask != "" {
			return ifc, true
		}
	}
	return netif.Interface{}, false
}

// IsBridge reports whether ifc looks like an active tethering bridge.
func IsBridge(ifc netif.Interface, prefix string) bool {
	return strings.Contains(ifc.Name, prefix) && ifc.IsUp && ifc.IsRunning && !ifc.IsLoopback
}

func (d *Detector) interfaces() []netif.Interface {
	if d.Interfaces == nil {
		return nil
	}
	return d.Interfaces.ListInterfaces()
}

func (d *Detector) prefix() string {
	if d.BridgePrefix == "" {
		return BridgePrefix
	}
	return d.BridgePrefix
}
