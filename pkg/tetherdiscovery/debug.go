// Package tetherdiscovery: Debug logging support.
package tetherdiscovery

import (
	"sync"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/arp"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/dns"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/mdns"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/netif"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/oui"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/power"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/probe"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/tether"
)

// DebugLevel represents the verbosity level for debug logging.
type DebugLevel int

const (
	// DebugOff disables all debug logging.
	DebugOff DebugLevel = iota
	// DebugBasic logs high-level operations (checks, run start/complete).
	DebugBasic
	// DebugVerbose also logs per-interface and per-attempt detail.
	DebugVerbose
)

// DebugLogger is a callback function for debug logging.
// The component parameter indicates which part of the library generated the message.
type DebugLogger func(component Component, format string, args ...interface{})

var (
	debugLogger DebugLogger
	debugLevel  DebugLevel
	debugMu     sync.RWMutex
)

// SetDebugLogger sets a custom debug logger callback.
// Pass nil to disable debug logging.
func SetDebugLogger(logger DebugLogger) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLogger = logger
}

// SetDebugLevel sets the debug verbosity level.
func SetDebugLevel(level DebugLevel) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLevel = level
}

// GetDebugLevel returns the current debug level.
func GetDebugLevel() DebugLevel {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugLevel
}

func logAt(threshold DebugLevel, c Component, format string, args ...interface{}) {
	debugMu.RLock()
	logger := debugLogger
	level := debugLevel
	debugMu.RUnlock()

	if logger != nil && level >= threshold {
		logger(c, format, args...)
	}
}

// debugLog logs a message if debug logging is enabled.
func debugLog(c Component, format string, args ...interface{}) {
	logAt(DebugBasic, c, format, args...)
}

// debugLogVerbose logs a verbose message if verbose debug logging is enabled.
func debugLogVerbose(c Component, format string, args ...interface{}) {
	logAt(DebugVerbose, c, format, args...)
}

// Sub-packages log through the facade so a single SetDebugLogger call
// covers the whole library. Per-interface and per-attempt chatter is
// verbose-only.
func init() {
	netif.DebugLogger = func(format string, args ...interface{}) {
		debugLogVerbose(ComponentInterfaces, format, args...)
	}
	power.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentPower, format, args...)
	}
	tether.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentTether, format, args...)
	}
	probe.DebugLogger = func(format string, args ...interface{}) {
		debugLogVerbose(ComponentProbe, format, args...)
	}
	mdns.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentMDNS, format, args...)
	}
	dns.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentDNS, format, args...)
	}
	arp.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentARP, format, args...)
	}
	oui.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentVendor, format, args...)
	}
}
