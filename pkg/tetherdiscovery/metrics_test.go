package tetherdiscovery

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ProbeRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	d, _ := newTestDiscovery(true, true)
	d.Metrics = m
	d.Options.Workers = 1
	dial, _ := routeDialer(t, "172.20.10.5:8080", deviceServer(t, "Acme-Device"))
	d.DialContext = dial

	res := d.HTTPAddressGuessing(context.Background(), "Acme-Device", 8080, "/")
	require.True(t, res.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("match")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.attempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("ready", string(TagDeviceIsReady))))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestMetrics_Checks(t *testing.T) {
	m := NewMetrics(nil)
	d, _ := newTestDiscovery(false, false)
	d.Metrics = m

	d.IsUsbConnected()
	d.IsUsbConnected()
	d.IsConnectionTethered()
	d.HTTPAddressGuessing(context.Background(), "", 80, "/")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checks.WithLabelValues("usb", string(TagUSBCableDisconnected))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("tether", string(TagConnectionNotTethered))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("ready", string(TagUSBIncomplete))))
	assert.Zero(t, testutil.CollectAndCount(m.runs))
}

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.observeCheck("usb", TagUSBConnected)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["tetherdiscovery_checks_total"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeCheck("usb", TagUSBConnected)
		m.RunDone(probeOutcomeForTest())
	})
}
