// Package network provides candidate address generation for the tethering
// subnet and related IP utilities.
package network

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Defaults for the carrier-assigned USB tethering range 172.20.10.2-14.
const (
	DefaultPrefix = "172.20.10."
	DefaultStart  = 2
	DefaultEnd    = 15
)

// MinPrefixLen is the shortest prefix enumerated into a candidate list. Every
// candidate is probed at once, so a /24 (254 hosts) is the largest network
// accepted.
const MinPrefixLen = 24

// ErrNetworkTooLarge is returned for networks shorter than MinPrefixLen.
var ErrNetworkTooLarge = errors.New("network too large for a candidate list")

// Range is a half-open numeric range [Start, End) appended to Prefix.
type Range struct {
	Prefix string
	Start  int
	End    int
}

// DefaultRange returns the USB tethering range.
func DefaultRange() Range {
	return Range{Prefix: DefaultPrefix, Start: DefaultStart, End: DefaultEnd}
}

// Addresses returns Prefix+Start ... Prefix+(End-1) in ascending order.
// The result is freshly allocated on every call.
func (r Range) Addresses() []string {
	if r.End <= r.Start {
		return []string{}
	}
	res := make([]string, 0, r.End-r.Start)
	for i := r.Start; i < r.End; i++ {
		res = append(res, r.Prefix+strconv.Itoa(i))
	}
	return res
}

// Addresses is a convenience wrapper around Range.Addresses.
func Addresses(prefix string, start, end int) []string {
	return Range{Prefix: prefix, Start: start, End: end}.Addresses()
}

// DefaultAddresses returns the default candidate list.
func DefaultAddresses() []string {
	return DefaultRange().Addresses()
}

// HostAddresses returns every usable host address of the IPv4 network that
// ip/mask belongs to, excluding ip itself. This lets the candidate list follow
// whatever subnet the bridge was actually given.
func HostAddresses(ip, mask string) ([]string, error) {
	addr := net.ParseIP(ip).To4()
	if addr == nil {
		return nil, fmt.Errorf("not an IPv4 address: %q", ip)
	}
	m := net.ParseIP(mask).To4()
	if m == nil {
		return nil, fmt.Errorf("not an IPv4 netmask: %q", mask)
	}
	ipnet := &net.IPNet{IP: addr.Mask(net.IPMask(m)), Mask: net.IPMask(m)}
	if err := checkSize(ipnet); err != nil {
		return nil, err
	}

	var res []string
	for _, host := range enumerateIPsFromNet(ipnet) {
		if host.Equal(addr) {
			continue
		}
		res = append(res, host.String())
	}
	return res, nil
}

// EnumerateIPs returns all usable host IPs in a CIDR (excludes network and broadcast).
func EnumerateIPs(cidr string) ([]net.IP, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	if err := checkSize(ipnet); err != nil {
		return nil, err
	}
	return enumerateIPsFromNet(ipnet), nil
}

// EnumerateIPStrings returns all usable host IPs in a CIDR as strings.
func EnumerateIPStrings(cidr string) ([]string, error) {
	ips, err := EnumerateIPs(cidr)
	if err != nil {
		return nil, err
	}
	result := make([]string, len(ips))
	for i, ip := range ips {
		result[i] = ip.String()
	}
	return result, nil
}

func checkSize(n *net.IPNet) error {
	ones, bits := n.Mask.Size()
	switch {
	case bits == 0:
		return fmt.Errorf("non-contiguous netmask %s", net.IP(n.Mask))
	case bits == 32 && ones < MinPrefixLen:
		return fmt.Errorf("%w: %s (/%d, minimum /%d)", ErrNetworkTooLarge, n, ones, MinPrefixLen)
	}
	return nil
}

func enumerateIPsFromNet(n *net.IPNet) []net.IP {
	var res []net.IP
	base := n.IP.To4()
	if base == nil {
		return res // tethering ranges are IPv4 only
	}
	mask := net.IP(n.Mask).To4()
	if mask == nil {
		return res
	}
	network := ipToUint32(base) & ipToUint32(mask)
	broadcast := network | ^ipToUint32(mask)
	for u := network + 1; u < broadcast; u++ {
		res = append(res, uint32ToIP(u))
	}
	return res
}

func ipToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func uint32ToIP(u uint32) net.IP {
	return net.IPv4(byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

// IsPrivateIP checks if an IP address is in private (RFC 1918) address space.
func IsPrivateIP(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 10 || // 10.0.0.0/8
			(ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31) || // 172.16.0.0/12
			(ip4[0] == 192 && ip4[1] == 168) // 192.168.0.0/16
	}
	return false
}
