// Package dns provides the reverse DNS (PTR) fallback used when a tethered
// device does not answer mDNS.
package dns

import (
	"context"
	"net"
	"strings"
	"time"
)

// DefaultTimeout is the default timeout for DNS lookups.
const DefaultTimeout = 2 * time.Second

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from DNS operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Result contains the result of a reverse DNS lookup.
type Result struct {
	IP       string
	Hostname string   // Primary hostname (first result)
	All      []string // All returned hostnames
	Error    error
}

// Discovery performs reverse DNS lookups.
type Discovery struct {
	Timeout time.Duration
	// Resolver defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

// NewDiscovery creates a new DNS discovery helper with defaults.
func NewDiscovery() *Discovery {
	return &Discovery{Timeout: DefaultTimeout}
}

// LookupAddr performs a reverse DNS (PTR) lookup for the given IP address.
func (d *Discovery) LookupAddr(ctx context.Context, ip string) (*Result, error) {
	res := &Result{IP: ip}

	resolver := d.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := resolver.LookupAddr(lookupCtx, ip)
	if err != nil {
		res.Error = err
		debugLog("%s: lookup failed: %v", ip, err)
		return res, err
	}

	for i, name := range names {
		names[i] = strings.TrimSuffix(name, ".")
	}

	res.All = names
	if len(names) > 0 {
		res.Hostname = names[0]
		debugLog("%s -> %s", ip, res.Hostname)
	}
	return res, nil
}
