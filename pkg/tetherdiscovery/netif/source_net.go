package netif

import (
	"fmt"
	"net"
)

// NetSource builds records from the net package. Flags are translated from
// net.Flags back into the IFF_* word, and broadcast addresses are computed
// from the address and mask since the net package does not report them.
type NetSource struct{}

// Records implements Source.
func (NetSource) Records() ([]Record, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var records []Record
	for _, ifc := range ifaces {
		flags := rawFlags(ifc.Flags)
		name := []byte(ifc.Name)

		// Link-level entry, address family left unspecified.
		records = append(records, Record{Name: name, Flags: flags})

		addrs, err := ifc.Addrs()
		if err != nil {
			debugLog("%s: list addresses: %v", ifc.Name, err)
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			records = append(records, ipNetRecord(name, flags, ipnet))
		}
	}
	return records, nil
}

func ipNetRecord(name []byte, flags uint32, ipnet *net.IPNet) Record {
	rec := Record{Name: name, Flags: flags}
	if ip4 := ipnet.IP.To4(); ip4 != nil {
		mask := []byte(ipnet.Mask)
		if len(mask) == net.IPv6len {
			mask = mask[12:]
		}
		rec.Family = afInet
		rec.Addr = ip4
		rec.Netmask = mask
		if flags&FlagBroadcast != 0 && len(mask) == net.IPv4len {
			bcast := make(net.IP, net.IPv4len)
			for i := range bcast {
				bcast[i] = ip4[i] | ^mask[i]
			}
			rec.Broadaddr = bcast
		}
		return rec
	}
	rec.Family = afInet6
	rec.Addr = ipnet.IP.To16()
	rec.Netmask = ipnet.Mask
	return rec
}

func rawFlags(f net.Flags) uint32 {
	var raw uint32
	if f&net.FlagUp != 0 {
		raw |= FlagUp
	}
	if f&net.FlagRunning != 0 {
		raw |= FlagRunning
	}
	if f&net.FlagLoopback != 0 {
		raw |= FlagLoopback
	}
	if f&net.FlagBroadcast != 0 {
		raw |= FlagBroadcast
	}
	if f&net.FlagMulticast != 0 {
		raw |= FlagMulticast
	}
	if f&net.FlagPointToPoint != 0 {
		raw |= FlagPointToPoint
	}
	return raw
}
