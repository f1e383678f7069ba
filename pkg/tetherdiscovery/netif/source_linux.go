//go:build linux

package netif

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// DefaultSource returns the netlink-backed source.
func DefaultSource() Source {
	return NetlinkSource{}
}

// NetlinkSource reads links and addresses over a netlink socket. The raw
// IFF_* word comes straight from the kernel's link attributes.
type NetlinkSource struct{}

// Records implements Source. The netlink handle is released on every path.
func (NetlinkSource) Records() ([]Record, error) {
	handle, err := netlink.NewHandle()
	if err != nil {
		return nil, fmt.Errorf("netlink handle: %w", err)
	}
	defer handle.Delete()

	links, err := handle.LinkList()
	if err != nil {
		return nil, fmt.Errorf("netlink link list: %w", err)
	}

	var records []Record
	for _, link := range links {
		attrs := link.Attrs()
		name := []byte(attrs.Name)
		flags := attrs.RawFlags

		records = append(records, Record{Name: name, Family: unix.AF_PACKET, Flags: flags})

		addrs, err := handle.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			debugLog("%s: netlink addr list: %v", attrs.Name, err)
			continue
		}
		for _, addr := range addrs {
			if addr.IPNet == nil {
				continue
			}
			records = append(records, netlinkRecord(name, flags, addr))
		}
	}
	return records, nil
}

func netlinkRecord(name []byte, flags uint32, addr netlink.Addr) Record {
	rec := Record{Name: name, Flags: flags, Netmask: []byte(addr.Mask)}

	var dst net.IP
	switch {
	case addr.Broadcast != nil:
		dst = addr.Broadcast
	case addr.Peer != nil:
		dst = addr.Peer.IP
	}

	if ip4 := addr.IP.To4(); ip4 != nil {
		rec.Family = afInet
		rec.Addr = ip4
		if dst != nil {
			rec.Broadaddr = dst.To4()
		}
		return rec
	}

	rec.Family = afInet6
	rec.Addr = addr.IP.To16()
	if dst != nil {
		rec.Broadaddr = dst.To16()
	}
	return rec
}
