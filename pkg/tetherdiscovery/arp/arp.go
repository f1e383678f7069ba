//go:build linux || darwin || freebsd || netbsd || openbsd

// Package arp resolves the hardware address of a tethered device by sending
// an ARP request over the bridge interface.
// Note: raw ARP sockets usually require elevated privileges.
package arp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/j-keck/arping"
)

// arping keeps its timeout in a package variable; serialize pings so each
// one runs with the timeout it asked for.
var pingMu sync.Mutex

// pingFunc is the ARP exchange, replaced in tests.
var pingFunc = func(ip net.IP, iface string, timeout time.Duration) (net.HardwareAddr, time.Duration, error) {
	pingMu.Lock()
	defer pingMu.Unlock()

	arping.SetTimeout(timeout)
	if iface != "" {
		return arping.PingOverIfaceByName(ip, iface)
	}
	return arping.Ping(ip)
}

// LookupAddr performs an ARP lookup to discover the MAC address of a host.
// Returns the MAC address if the host responds to ARP, otherwise returns an error.
func (a *Discovery) LookupAddr(ctx context.Context, ip string) (*Result, error) {
	result := &Result{IP: ip}

	parsedIP, err := parseIPv4(ip)
	if err != nil {
		result.Error = err
		return result, err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	debugLog("Looking up ARP for %s (iface %q)", ip, a.Interface)

	type arpResponse struct {
		mac net.HardwareAddr
		dur time.Duration
		err error
	}
	responseChan := make(chan arpResponse, 1)
	start := time.Now()

	ping := pingFunc
	go func() {
		mac, dur, err := ping(parsedIP, a.Interface, timeout)
		responseChan <- arpResponse{mac: mac, dur: dur, err: err}
	}()

	select {
	case <-ctx.Done():
		result.Duration = time.Since(start)
		result.Error = ctx.Err()
		debugLog("%s: context cancelled", ip)
		return result, ctx.Err()
	case resp := <-responseChan:
		result.Duration = resp.dur
		if resp.err != nil {
			result.Error = resp.err
			debugLog("%s: error: %v", ip, resp.err)
			return result, resp.err
		}
		result.MACAddress = resp.mac.String()
		result.IsUp = true
		debugLog("%s -> MAC: %s (%.2fms)", ip, result.MACAddress, float64(resp.dur.Microseconds())/1000)
		return result, nil
	}
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return true
}
