// Package mdns resolves a tethered device's .local hostname with an mDNS
// reverse (PTR) query. Phones answer on the tethering bridge either to the
// multicast group or to a query sent straight to their address.
package mdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// Port is the mDNS port
	Port = 5353
	// MulticastAddr is the mDNS multicast address
	MulticastAddr = "224.0.0.251"
	// DefaultTimeout is the default timeout for mDNS lookups
	DefaultTimeout = 2 * time.Second

	maxMessageSize = 9000
)

// ErrNoResponse is returned when neither query was answered.
var ErrNoResponse = errors.New("no mDNS response")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from mDNS operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Result contains the result of an mDNS lookup.
type Result struct {
	IP       string
	Hostname string
	// Multicast is true when the answer came from the multicast query.
	Multicast bool
	Error     error
}

// Discovery performs mDNS hostname lookups.
type Discovery struct {
	Timeout time.Duration
	// Port overrides the destination port of unicast queries.
	Port int
	// Multicast enables the query to the mDNS group before the unicast one.
	Multicast bool
}

// NewDiscovery creates a new mDNS discovery helper with defaults.
func NewDiscovery() *Discovery {
	return &Discovery{Timeout: DefaultTimeout, Port: Port, Multicast: true}
}

// LookupAddr queries ip for its mDNS hostname, trying multicast first when
// enabled and then a unicast query to the host itself.
func (m *Discovery) LookupAddr(ctx context.Context, ip string) (*Result, error) {
	res := &Result{IP: ip}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		res.Error = fmt.Errorf("invalid IP address: %s", ip)
		return res, res.Error
	}
	if parsedIP.To4() == nil {
		res.Error = fmt.Errorf("IPv6 not supported for mDNS reverse lookup")
		return res, res.Error
	}

	reverseName, err := dns.ReverseAddr(ip)
	if err != nil {
		res.Error = err
		return res, err
	}
	query, err := newQuery(reverseName)
	if err != nil {
		res.Error = fmt.Errorf("pack query: %w", err)
		return res, res.Error
	}

	if m.Multicast {
		group := &net.UDPAddr{IP: net.ParseIP(MulticastAddr), Port: Port}
		if hostname := m.exchange(ctx, query, group, parsedIP); hostname != "" {
			res.Hostname, res.Multicast = hostname, true
			debugLog("%s -> %s (multicast)", ip, hostname)
			return res, nil
		}
	}

	port := m.Port
	if port == 0 {
		port = Port
	}
	if hostname := m.exchange(ctx, query, &net.UDPAddr{IP: parsedIP, Port: port}, parsedIP); hostname != "" {
		res.Hostname = hostname
		debugLog("%s -> %s (unicast)", ip, hostname)
		return res, nil
	}

	res.Error = fmt.Errorf("%w from %s", ErrNoResponse, ip)
	debugLog("%s: no response", ip)
	return res, res.Error
}

func newQuery(reverseName string) ([]byte, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(reverseName, dns.TypePTR)
	msg.RecursionDesired = false
	return msg.Pack()
}

// exchange sends query to dst and returns the first PTR answer received from
// source before the deadline.
func (m *Discovery) exchange(ctx context.Context, query []byte, dst *net.UDPAddr, source net.IP) string {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		debugLog("listen: %v", err)
		return ""
	}
	defer conn.Close()

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	// Unblock the read when the caller gives up early.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.WriteTo(query, dst); err != nil {
		debugLog("send to %s: %v", dst, err)
		return ""
	}

	buf := make([]byte, maxMessageSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			return ""
		}
		if udpAddr, ok := from.(*net.UDPAddr); !ok || !udpAddr.IP.Equal(source) {
			continue
		}
		if hostname := parsePTRResponse(buf[:n]); hostname != "" {
			return hostname
		}
	}
}

// parsePTRResponse returns the first PTR target in an answer section without
// its trailing dot.
func parsePTRResponse(data []byte) string {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil {
		return ""
	}
	for _, rr := range msg.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return ""
}
