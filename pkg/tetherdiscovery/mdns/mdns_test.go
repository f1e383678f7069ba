package mdns

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscovery(t *testing.T) {
	d := NewDiscovery()
	assert.Equal(t, DefaultTimeout, d.Timeout)
	assert.Equal(t, Port, d.Port)
	assert.True(t, d.Multicast)
}

func TestLookupAddr_InvalidIP(t *testing.T) {
	d := NewDiscovery()
	tests := []string{"invalid", "", "fe80::1"}
	for _, ip := range tests {
		res, err := d.LookupAddr(context.Background(), ip)
		assert.Error(t, err, ip)
		assert.Equal(t, ip, res.IP)
		assert.Empty(t, res.Hostname)
	}
}

func ptrAnswer(t *testing.T, name, target string) []byte {
	t.Helper()
	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypePTR)
	msg.Response = true
	rr, err := dns.NewRR(name + " 120 IN PTR " + target)
	require.NoError(t, err)
	msg.Answer = append(msg.Answer, rr)
	data, err := msg.Pack()
	require.NoError(t, err)
	return data
}

func TestParsePTRResponse(t *testing.T) {
	data := ptrAnswer(t, "5.10.20.172.in-addr.arpa.", "acme-phone.local.")
	assert.Equal(t, "acme-phone.local", parsePTRResponse(data))

	empty := new(dns.Msg)
	empty.SetQuestion("5.10.20.172.in-addr.arpa.", dns.TypePTR)
	data, err := empty.Pack()
	require.NoError(t, err)
	assert.Empty(t, parsePTRResponse(data))

	assert.Empty(t, parsePTRResponse([]byte{0x01, 0x02}))
}

// serveOnce answers the first PTR query it receives.
func serveOnce(t *testing.T, target string) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 1500)
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		req := new(dns.Msg)
		if err := req.Unpack(buf[:n]); err != nil || len(req.Question) != 1 {
			return
		}
		reply := new(dns.Msg)
		reply.SetReply(req)
		rr, err := dns.NewRR(req.Question[0].Name + " 120 IN PTR " + target)
		if err != nil {
			return
		}
		reply.Answer = append(reply.Answer, rr)
		data, err := reply.Pack()
		if err != nil {
			return
		}
		_, _ = conn.WriteTo(data, from)
	}()

	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestLookupAddr_Unicast(t *testing.T) {
	port := serveOnce(t, "acme-phone.local.")

	d := &Discovery{Timeout: time.Second, Port: port}
	res, err := d.LookupAddr(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "acme-phone.local", res.Hostname)
	assert.False(t, res.Multicast)
}

func TestLookupAddr_NoResponse(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	d := &Discovery{Timeout: 50 * time.Millisecond, Port: conn.LocalAddr().(*net.UDPAddr).Port}
	res, err := d.LookupAddr(context.Background(), "127.0.0.1")
	assert.True(t, errors.Is(err, ErrNoResponse))
	assert.Empty(t, res.Hostname)
}

func TestLookupAddr_ContextCancelled(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	d := &Discovery{Timeout: 5 * time.Second, Port: conn.LocalAddr().(*net.UDPAddr).Port}
	start := time.Now()
	_, err = d.LookupAddr(ctx, "127.0.0.1")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
