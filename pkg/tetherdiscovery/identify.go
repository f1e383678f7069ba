package tetherdiscovery

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/arp"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/dns"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/mdns"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/oui"
)

// DefaultIdentifyTimeout bounds a whole Identify call.
const DefaultIdentifyTimeout = 2 * time.Second

// Identifier gathers hostname, MAC and vendor for a discovered address.
// A nil lookup field skips that lookup.
type Identifier struct {
	Timeout time.Duration
	MDNS    *mdns.Discovery
	DNS     *dns.Discovery
	ARP     *arp.Discovery
	// Vendor maps a MAC to a manufacturer name; defaults to oui.LookupName.
	Vendor func(mac string) string
}

// NewIdentifier returns an Identifier using every available lookup.
func NewIdentifier(timeout time.Duration) *Identifier {
	if timeout <= 0 {
		timeout = DefaultIdentifyTimeout
	}
	md := mdns.NewDiscovery()
	// Leave time for the unicast query after an unanswered multicast one.
	md.Timeout = timeout / 2
	return &Identifier{
		Timeout: timeout,
		MDNS:    md,
		DNS:     dns.NewDiscovery(),
		ARP:     arp.NewDiscovery(),
		Vendor:  oui.LookupName,
	}
}

// SetVendorDatabase loads the IEEE OUI file used for vendor names. An empty
// path disables vendor lookups. A file already loaded is not read again.
func SetVendorDatabase(path string) error {
	if path != "" && oui.IsLoaded() && oui.DatabasePath() == path {
		return nil
	}
	return oui.SetDatabase(path)
}

// Identify looks up what it can about ip. The hostname comes from mDNS, or
// reverse DNS when mDNS is silent; the MAC from ARP over the tethering
// bridge. Failures leave fields empty.
func (d *Discovery) Identify(ctx context.Context, ip string) *DeviceInfo {
	if d.Identifier == nil {
		return &DeviceInfo{IP: ip}
	}
	var iface string
	if ifc, ok := d.Detector.BridgeInterface(); ok {
		iface = ifc.Name
	}
	return d.Identifier.Identify(ctx, ip, iface)
}

// Identify runs the hostname and MAC lookups concurrently. iface pins the
// ARP request to one interface when non-empty.
func (id *Identifier) Identify(ctx context.Context, ip, iface string) *DeviceInfo {
	info := &DeviceInfo{IP: ip}

	timeout := id.Timeout
	if timeout <= 0 {
		timeout = DefaultIdentifyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		info.Hostname, info.HostnameMethod = id.hostname(ctx, ip)
		return nil
	})
	g.Go(func() error {
		info.MAC = id.mac(ctx, ip, iface)
		return nil
	})
	_ = g.Wait()

	if info.MAC != "" && id.Vendor != nil {
		info.Vendor = id.Vendor(info.MAC)
	}
	debugLog(ComponentDiscovery, "identified %s: hostname=%q (%s) mac=%q vendor=%q",
		ip, info.Hostname, info.HostnameMethod, info.MAC, info.Vendor)
	return info
}

func (id *Identifier) hostname(ctx context.Context, ip string) (string, Component) {
	if id.MDNS != nil {
		if res, err := id.MDNS.LookupAddr(ctx, ip); err == nil && res.Hostname != "" {
			return res.Hostname, ComponentMDNS
		}
	}
	if id.DNS != nil {
		if res, err := id.DNS.LookupAddr(ctx, ip); err == nil && res.Hostname != "" {
			return res.Hostname, ComponentDNS
		}
	}
	return "", ""
}

func (id *Identifier) mac(ctx context.Context, ip, iface string) string {
	if id.ARP == nil {
		return ""
	}
	a := *id.ARP
	if iface != "" {
		a.Interface = iface
	}
	mac, err := a.PingMAC(ctx, ip)
	if err != nil {
		return ""
	}
	return oui.NormalizeMAC(mac)
}
