// Package netif enumerates the host's network interfaces and decodes the raw
// OS records into owned, immutable Interface values.
//
// Every call takes a fresh snapshot of the interface table. Nothing is cached.
// On Linux the records come from a netlink handle (one link-level record per
// link plus one record per configured address, the same shape getifaddrs
// produces). Other platforms fall back to the net package.
package netif

import (
	"bytes"
	"net"
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from interface enumeration.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Family classifies an address by its socket-address family tag.
type Family int

const (
	FamilyUnrecognized Family = iota
	FamilyIPv4
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	default:
		return "Unrecognized"
	}
}

// Interface is one decoded entry of the OS interface table.
// Address fields are empty when the family is unrecognized or the raw
// address could not be decoded.
type Interface struct {
	Name             string
	Family           Family
	IPAddress        string
	Netmask          string
	BroadcastAddress string // broadcast, or destination for point-to-point links
	Flags            uint32

	IsUp                 bool
	IsRunning            bool
	IsLoopback           bool
	IsBroadcastSupported bool
	IsMulticastSupported bool
}

// Record is a raw interface record as reported by the OS.
type Record struct {
	Name      []byte // NUL-terminated or plain
	Family    uint16 // AF_* tag of Addr
	Addr      []byte
	Netmask   []byte
	Broadaddr []byte
	Flags     uint32 // IFF_* word
}

// Source produces the raw interface table.
type Source interface {
	Records() ([]Record, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func() ([]Record, error)

// Records calls f.
func (f SourceFunc) Records() ([]Record, error) {
	return f()
}

// Inspector lists interfaces from a Source.
type Inspector struct {
	Source Source
}

// NewInspector returns an Inspector backed by the platform's default source.
func NewInspector() *Inspector {
	return &Inspector{Source: DefaultSource()}
}

// ListInterfaces returns a snapshot of the interface table. If enumeration
// fails the result is empty; absence of interfaces means nothing detected.
func (i *Inspector) ListInterfaces() []Interface {
	src := i.Source
	if src == nil {
		src = DefaultSource()
	}

	records, err := src.Records()
	if err != nil {
		debugLog("enumerate interfaces: %v", err)
		return []Interface{}
	}

	out := make([]Interface, 0, len(records))
	for _, r := range records {
		out = append(out, Decode(r))
	}
	debugLog("enumerated %d interface records", len(out))
	return out
}

// ListInterfaces returns a snapshot using the default source.
func ListInterfaces() []Interface {
	return NewInspector().ListInterfaces()
}

// Decode converts a raw record into an Interface.
func Decode(r Record) Interface {
	family := familyOf(r.Family)
	return Interface{
		Name:                 cString(r.Name),
		Family:               family,
		IPAddress:            formatAddr(family, r.Addr),
		Netmask:              formatAddr(family, r.Netmask),
		BroadcastAddress:     formatAddr(family, r.Broadaddr),
		Flags:                r.Flags,
		IsUp:                 r.Flags&FlagUp == FlagUp,
		IsRunning:            r.Flags&FlagRunning == FlagRunning,
		IsLoopback:           r.Flags&FlagLoopback == FlagLoopback,
		IsBroadcastSupported: r.Flags&FlagBroadcast == FlagBroadcast,
		IsMulticastSupported: r.Flags&FlagMulticast == FlagMulticast,
	}
}

func familyOf(tag uint16) Family {
	switch tag {
	case afInet:
		return FamilyIPv4
	case afInet6:
		return FamilyIPv6
	default:
		return FamilyUnrecognized
	}
}

// cString returns the bytes up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// formatAddr renders a raw address in numeric form, never via a name lookup.
func formatAddr(family Family, b []byte) string {
	switch family {
	case FamilyIPv4:
		if len(b) != net.IPv4len && len(b) != net.IPv6len {
			return ""
		}
		if ip4 := net.IP(b).To4(); ip4 != nil {
			return ip4.String()
		}
	case FamilyIPv6:
		if len(b) == net.IPv6len {
			return net.IP(b).String()
		}
	}
	return ""
}
