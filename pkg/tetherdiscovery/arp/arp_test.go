//go:build linux || darwin || freebsd || netbsd || openbsd

package arp

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPing(t *testing.T, fn func(ip net.IP, iface string, timeout time.Duration) (net.HardwareAddr, time.Duration, error)) {
	t.Helper()
	orig := pingFunc
	pingFunc = fn
	t.Cleanup(func() { pingFunc = orig })
}

func TestLookupAddr_InvalidInput(t *testing.T) {
	tests := []struct {
		ip   string
		want error
	}{
		{"invalid", ErrInvalidIP},
		{"", ErrInvalidIP},
		{"fe80::1", ErrIPv6NotSupported},
	}

	d := NewDiscovery()
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			res, err := d.LookupAddr(context.Background(), tt.ip)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, res.Error, tt.want)
			assert.False(t, res.IsUp)
		})
	}
}

func TestLookupAddr_OverBridge(t *testing.T) {
	mac, _ := net.ParseMAC("a4:83:e7:01:02:03")
	var gotIface string
	var gotTimeout time.Duration
	stubPing(t, func(ip net.IP, iface string, timeout time.Duration) (net.HardwareAddr, time.Duration, error) {
		gotIface, gotTimeout = iface, timeout
		return mac, 2 * time.Millisecond, nil
	})

	d := &Discovery{Timeout: 300 * time.Millisecond, Interface: "bridge100"}
	res, err := d.LookupAddr(context.Background(), "172.20.10.5")
	require.NoError(t, err)
	assert.Equal(t, "a4:83:e7:01:02:03", res.MACAddress)
	assert.True(t, res.IsUp)
	assert.Equal(t, "bridge100", gotIface)
	assert.Equal(t, 300*time.Millisecond, gotTimeout)

	got, err := d.PingMAC(context.Background(), "172.20.10.5")
	require.NoError(t, err)
	assert.Equal(t, "a4:83:e7:01:02:03", got)
}

func TestLookupAddr_PingError(t *testing.T) {
	boom := errors.New("timeout")
	stubPing(t, func(net.IP, string, time.Duration) (net.HardwareAddr, time.Duration, error) {
		return nil, 0, boom
	})

	res, err := NewDiscovery().LookupAddr(context.Background(), "172.20.10.5")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, res.MACAddress)
}

func TestLookupAddr_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	stubPing(t, func(net.IP, string, time.Duration) (net.HardwareAddr, time.Duration, error) {
		<-block
		return nil, 0, errors.New("unreachable")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDiscovery().LookupAddr(ctx, "172.20.10.5")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported())
}
