package tetherdiscovery

import (
	"context"
	"net"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/network"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/netif"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/power"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/probe"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/tether"
)

// Charge-state sources accepted by Options.Power.
const (
	PowerAuto   = "auto"
	PowerUPower = "upower"
	PowerSysfs  = "sysfs"
)

// DefaultPollInterval is how often WaitReady re-checks readiness.
const DefaultPollInterval = time.Second

// Options configures a Discovery.
type Options struct {
	// Range is the candidate list used unless it is derived from the bridge.
	Range network.Range
	// CIDR, when set, replaces Range with the hosts of an IPv4 network of at
	// most network.MinPrefixLen bits.
	CIDR string
	// DeriveRangeFromBridge builds candidates from the bridge's own address
	// and netmask, falling back to CIDR or Range when no bridge address is
	// known or the bridge network is larger than a /24.
	DeriveRangeFromBridge bool
	BridgePrefix          string

	// Power selects the charge-state source: PowerAuto, PowerUPower or PowerSysfs.
	Power     string
	SysfsRoot string

	// ProbeTimeout bounds a whole HTTPAddressGuessing run.
	ProbeTimeout time.Duration
	Scheme       string
	InsecureTLS  bool
	// Workers bounds concurrent requests; 0 requests every candidate at once.
	Workers int
	Policy  probe.Policy

	// IdentifyDevice enriches a successful discovery with hostname, MAC and vendor.
	IdentifyDevice  bool
	IdentifyTimeout time.Duration

	PollInterval time.Duration
}

// DefaultOptions returns options for the standard USB tethering setup.
func DefaultOptions() Options {
	return Options{
		Range:           network.DefaultRange(),
		BridgePrefix:    tether.BridgePrefix,
		Power:           PowerAuto,
		SysfsRoot:       power.DefaultSysfsRoot,
		ProbeTimeout:    probe.DefaultTimeout,
		Scheme:          probe.DefaultScheme,
		Policy:          probe.JoinAll,
		IdentifyTimeout: DefaultIdentifyTimeout,
		PollInterval:    DefaultPollInterval,
	}
}

// Discovery is the host-facing entry point. Its exported fields may be
// replaced after New and before first use.
type Discovery struct {
	Options  Options
	Detector *tether.Detector
	Clock    clock.Clock
	// Metrics is optional.
	Metrics *Metrics
	// DialContext replaces the prober's dialer when set.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
	Identifier *Identifier
}

// New creates a Discovery from opts.
func New(opts Options) *Discovery {
	return &Discovery{
		Options: opts,
		Detector: &tether.Detector{
			Interfaces:   netif.NewInspector(),
			Power:        newMonitor(opts.Power, opts.SysfsRoot),
			BridgePrefix: opts.BridgePrefix,
		},
		Clock:      clock.New(),
		Identifier: NewIdentifier(opts.IdentifyTimeout),
	}
}

func newMonitor(source, sysfsRoot string) power.Monitor {
	switch source {
	case PowerUPower:
		return power.NewUPowerMonitor()
	case PowerSysfs:
		return power.NewSysfsMonitor(sysfsRoot)
	default:
		return power.NewFallback(power.NewUPowerMonitor(), power.NewSysfsMonitor(sysfsRoot))
	}
}

// IsUsbConnected reports whether a cable is attached, judged by the host's
// charge state.
func (d *Discovery) IsUsbConnected() Result {
	res := Result{Tag: TagUSBCableDisconnected}
	if d.Detector.IsCableConnected() {
		res = Result{Status: true, Tag: TagUSBConnected}
	}
	debugLog(ComponentDiscovery, "usb check: %s", res.Tag)
	d.Metrics.observeCheck("usb", res.Tag)
	return res
}

// IsConnectionTethered reports whether a tethering bridge is up and running.
func (d *Discovery) IsConnectionTethered() Result {
	res := Result{Tag: TagConnectionNotTethered}
	if d.Detector.IsTethered() {
		res = Result{Status: true, Tag: TagConnectionTethered}
	}
	debugLog(ComponentDiscovery, "tether check: %s", res.Tag)
	d.Metrics.observeCheck("tether", res.Tag)
	return res
}

// IsDeviceReady combines both checks. A missing cable is reported in
// preference to a missing bridge.
func (d *Discovery) IsDeviceReady() Result {
	st := d.Detector.Status()

	var res Result
	switch st.Readiness() {
	case tether.Ready:
		res = Result{Status: true, Tag: TagDeviceIsReady}
	case tether.NetworkIncomplete:
		res = Result{Tag: TagNetworkIncomplete}
	default:
		res = Result{Tag: TagUSBIncomplete}
	}
	debugLog(ComponentDiscovery, "readiness: cable=%v bridge=%v -> %s", st.CableConnected, st.BridgeDetected, res.Tag)
	d.Metrics.observeCheck("ready", res.Tag)
	return res
}

// HTTPAddressGuessing finds the candidate address whose HTTP service on port
// answers extendedPath with a Server header containing serverHeaderExpected.
// When the device is not ready it returns the IsDeviceReady result without
// touching the network.
func (d *Discovery) HTTPAddressGuessing(ctx context.Context, serverHeaderExpected string, port int, extendedPath string) Result {
	if ready := d.IsDeviceReady(); !ready.Status {
		return ready
	}

	candidates := d.Candidates()
	out := d.newProber().Probe(ctx, candidates, port, extendedPath, serverHeaderExpected)
	if !out.Matched {
		debugLog(ComponentDiscovery, "run %s: no results among %d candidates", out.RunID, len(candidates))
		return Result{Tag: TagNoResults}
	}

	debugLog(ComponentDiscovery, "run %s: device found at %s in %v", out.RunID, out.Target.IPAddress, out.Duration)
	res := Result{Status: true, Tag: TagNetworkDiscoverySuccess, IPAddress: out.Target.IPAddress}
	if d.Options.IdentifyDevice {
		res.Device = d.Identify(ctx, out.Target.IPAddress)
	}
	return res
}

func (d *Discovery) newProber() *probe.Prober {
	p := probe.NewProber()
	if d.Options.ProbeTimeout > 0 {
		p.Timeout = d.Options.ProbeTimeout
	}
	if d.Options.Scheme != "" {
		p.Scheme = d.Options.Scheme
	}
	p.InsecureTLS = d.Options.InsecureTLS
	p.Workers = d.Options.Workers
	p.Policy = d.Options.Policy
	p.DialContext = d.DialContext
	if d.Metrics != nil {
		p.Observer = d.Metrics
	}
	return p
}

// Candidates returns the addresses HTTPAddressGuessing would probe.
func (d *Discovery) Candidates() []string {
	if d.Options.DeriveRangeFromBridge {
		if ifc, ok := d.Detector.BridgeInterface(); ok {
			hosts, err := network.HostAddresses(ifc.IPAddress, ifc.Netmask)
			if err == nil && len(hosts) > 0 {
				debugLog(ComponentDiscovery, "candidates derived from %s %s/%s: %d hosts",
					ifc.Name, ifc.IPAddress, ifc.Netmask, len(hosts))
				warnPublic(hosts)
				return hosts
			}
			debugLog(ComponentDiscovery, "cannot derive candidates from %s: %v", ifc.Name, err)
		}
	}

	if d.Options.CIDR != "" {
		hosts, err := network.EnumerateIPStrings(d.Options.CIDR)
		if err == nil && len(hosts) > 0 {
			warnPublic(hosts)
			return hosts
		}
		debugLog(ComponentDiscovery, "cannot use %s: %v", d.Options.CIDR, err)
	}

	hosts := d.Options.Range.Addresses()
	warnPublic(hosts)
	return hosts
}

// warnPublic flags a misconfigured range; tethering subnets are private.
func warnPublic(hosts []string) {
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip == nil || !network.IsPrivateIP(ip) {
			debugLog(ComponentDiscovery, "candidate %s is not a private IPv4 address", h)
			return
		}
	}
}

// WaitReady re-evaluates IsDeviceReady every PollInterval until the device is
// ready or ctx is done, and returns the last result.
func (d *Discovery) WaitReady(ctx context.Context) Result {
	interval := d.Options.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		res := d.IsDeviceReady()
		if res.Status {
			return res
		}
		select {
		case <-ctx.Done():
			return res
		case <-ticker.C:
		}
	}
}
