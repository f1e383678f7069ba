// Package tetherdiscovery: Log prefix constants for consistent log tagging.
// These constants are exported so consumers can use them for consistent logging,
// but they are not required - consumers can use their own prefixes via SetDebugLogger.
package tetherdiscovery

// Log prefix constants for components.
// Format follows [Component] or [Component:Subcomponent] pattern.
const (
	LogPrefixDiscovery = "[Tether]"

	LogPrefixInterfaces = "[Tether:Interfaces]"
	LogPrefixPower      = "[Tether:Power]"
	LogPrefixBridge     = "[Tether:Bridge]"
	LogPrefixProbe      = "[Tether:Probe]"
	LogPrefixMDNS       = "[Tether:mDNS]"
	LogPrefixDNS        = "[Tether:DNS]"
	LogPrefixARP        = "[Tether:ARP]"
	LogPrefixOUI        = "[Tether:OUI]"

	// Debug prefix - use as "[DEBUG][Tether:*]" format
	LogPrefixDebug = "[DEBUG]"
)

// ComponentToPrefix returns the log prefix for a given component.
func ComponentToPrefix(c Component) string {
	switch c {
	case ComponentInterfaces:
		return LogPrefixInterfaces
	case ComponentPower:
		return LogPrefixPower
	case ComponentTether:
		return LogPrefixBridge
	case ComponentProbe:
		return LogPrefixProbe
	case ComponentMDNS:
		return LogPrefixMDNS
	case ComponentDNS:
		return LogPrefixDNS
	case ComponentARP:
		return LogPrefixARP
	case ComponentVendor:
		return LogPrefixOUI
	default:
		return LogPrefixDiscovery
	}
}
