package tetherdiscovery

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/netif"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/power"
	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery/tether"
)

type staticLister []netif.Interface

func (s staticLister) ListInterfaces() []netif.Interface {
	return append([]netif.Interface(nil), s...)
}

// stateMonitor reports state while enabled. When chargingAfter is positive
// it reports unplugged until that many checks have been made.
type stateMonitor struct {
	mu            sync.Mutex
	state         power.ChargeState
	chargingAfter int
	checks        int
	enabled       bool
}

func (m *stateMonitor) SetMonitoringEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
	return nil
}

func (m *stateMonitor) ChargeState() power.ChargeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return power.StateUnknown
	}
	m.checks++
	if m.chargingAfter > 0 {
		if m.checks >= m.chargingAfter {
			return power.StateCharging
		}
		return power.StateUnplugged
	}
	return m.state
}

func (m *stateMonitor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

func bridge100() netif.Interface {
	return netif.Interface{
		Name:      "bridge100",
		Family:    netif.FamilyIPv4,
		IPAddress: "172.20.10.1",
		Netmask:   "255.255.255.240",
		IsUp:      true,
		IsRunning: true,
	}
}

// newTestDiscovery builds a Discovery over fake interfaces and power state.
func newTestDiscovery(cable, bridge bool) (*Discovery, *stateMonitor) {
	mon := &stateMonitor{state: power.StateUnplugged}
	if cable {
		mon.state = power.StateCharging
	}
	var ifaces staticLister
	if bridge {
		ifaces = staticLister{bridge100()}
	}
	opts := DefaultOptions()
	d := &Discovery{
		Options:  opts,
		Detector: &tether.Detector{Interfaces: ifaces, Power: mon},
	}
	return d, mon
}

var errRefused = errors.New("connection refused")

// routeDialer sends dials for addr to srv and refuses all others.
func routeDialer(t *testing.T, addr string, srv *httptest.Server) (func(ctx context.Context, network, address string) (net.Conn, error), func() int) {
	t.Helper()
	var (
		mu    sync.Mutex
		count int
	)
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		mu.Lock()
		count++
		mu.Unlock()
		if address == addr && srv != nil {
			var d net.Dialer
			return d.DialContext(ctx, network, srv.Listener.Addr().String())
		}
		return nil, errRefused
	}
	dials := func() int {
		mu.Lock()
		defer mu.Unlock()
		return count
	}
	return dial, dials
}

func deviceServer(t *testing.T, server string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", server)
	}))
	t.Cleanup(srv.Close)
	return srv
}
