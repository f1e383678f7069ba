package arp

import (
	"context"
	"errors"
	"net"
	"time"
)

// DefaultTimeout is the default timeout for ARP lookups.
const DefaultTimeout = 1 * time.Second

var (
	// ErrNotSupported is returned when ARP is called on unsupported platforms.
	ErrNotSupported = errors.New("ARP discovery is not supported on this platform")
	// ErrInvalidIP is returned when an invalid IP address is provided.
	ErrInvalidIP = errors.New("invalid IP address")
	// ErrIPv6NotSupported is returned when attempting ARP on an IPv6 address.
	ErrIPv6NotSupported = errors.New("ARP is not supported for IPv6 addresses")
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from ARP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Result contains the result of an ARP lookup.
type Result struct {
	IP         string
	MACAddress string
	IsUp       bool
	Duration   time.Duration
	Error      error
}

// Discovery performs ARP lookups.
type Discovery struct {
	Timeout time.Duration
	// Interface pins the request to one interface, normally the tethering
	// bridge. Empty lets arping pick by route.
	Interface string
}

// NewDiscovery creates a new ARP discovery helper with defaults.
func NewDiscovery() *Discovery {
	return &Discovery{Timeout: DefaultTimeout}
}

// PingMAC performs an ARP lookup and returns just the MAC address.
func (a *Discovery) PingMAC(ctx context.Context, ip string) (string, error) {
	result, err := a.LookupAddr(ctx, ip)
	if err != nil {
		return "", err
	}
	return result.MACAddress, nil
}

func parseIPv4(ip string) (net.IP, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, ErrInvalidIP
	}
	if parsed.To4() == nil {
		return nil, ErrIPv6NotSupported
	}
	return parsed, nil
}
