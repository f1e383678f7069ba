// Package tetherdiscovery detects a companion device attached over USB
// tethering and locates its HTTP service on the tethering subnet.
//
// A typical caller checks IsDeviceReady, then calls HTTPAddressGuessing with
// the Server header the device's web service is known to send:
//
//	d := tetherdiscovery.New(tetherdiscovery.DefaultOptions())
//	res := d.HTTPAddressGuessing(ctx, "Acme-Device", 8080, "/status")
//	if res.Status {
//		fmt.Println(res.IPAddress)
//	}
//
// Platform coverage:
//   - Linux: interfaces via netlink, cable state via UPower or sysfs
//   - macOS/BSD: interfaces via the net package, cable state unavailable
package tetherdiscovery

// Component identifies the part of the library that produced a log line.
type Component string

const (
	ComponentDiscovery  Component = "discovery"
	ComponentInterfaces Component = "netif"
	ComponentPower      Component = "power"
	ComponentTether     Component = "tether"
	ComponentProbe      Component = "probe"
	ComponentMDNS       Component = "mdns"
	ComponentDNS        Component = "dns"
	ComponentARP        Component = "arp"
	ComponentVendor     Component = "oui" // MAC vendor lookup
)

// Tag is the status identifier attached to every Result.
type Tag string

const (
	TagUSBConnected          Tag = "USB_CONNECTED"
	TagUSBCableDisconnected  Tag = "USB_CABLE_DISCONNECTED"
	TagConnectionTethered    Tag = "CONNECTION_TETHERED"
	TagConnectionNotTethered Tag = "CONNECTION_NOT_TETHERED"
	TagDeviceIsReady         Tag = "DEVICE_IS_READY"
	// TagNetworkIncomplete: cable attached, bridge not up yet.
	TagNetworkIncomplete Tag = "CONFIGURATION_NOT_FINISHED_NETWORK"
	// TagUSBIncomplete: no cable, whatever the bridge state.
	TagUSBIncomplete           Tag = "CONFIGURATION_NOT_FINISHED_USB"
	TagNetworkDiscoverySuccess Tag = "NETWORK_DISCOVERY_SUCCESS"
	TagNoResults               Tag = "NO_RESULTS"
)

// Result is the outcome of a facade operation. IPAddress is set only for a
// successful discovery; Device only when identification was requested.
type Result struct {
	Status    bool
	Tag       Tag
	IPAddress string
	Device    *DeviceInfo
}

// DeviceInfo is what could be learned about a discovered device. Every field
// is best effort and may be empty.
type DeviceInfo struct {
	IP             string    `json:"ip"`
	Hostname       string    `json:"hostname,omitempty"`
	HostnameMethod Component `json:"hostnameMethod,omitempty"`
	MAC            string    `json:"mac,omitempty"`
	Vendor         string    `json:"vendor,omitempty"`
}
