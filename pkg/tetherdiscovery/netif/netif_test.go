// Package netif tests for interface record decoding.
package netif

import (
	"errors"
	"net"
	"testing"
)

func TestDecode_FlagBits(t *testing.T) {
	bits := []uint32{FlagUp, FlagRunning, FlagLoopback, FlagBroadcast, FlagMulticast}

	// Every combination of the five bits, plus an unrelated bit that must not leak.
	for mask := 0; mask < 1<<len(bits); mask++ {
		var flags uint32 = FlagPointToPoint
		for i, b := range bits {
			if mask&(1<<i) != 0 {
				flags |= b
			}
		}

		ifc := Decode(Record{Name: []byte("en0"), Flags: flags})
		got := []bool{ifc.IsUp, ifc.IsRunning, ifc.IsLoopback, ifc.IsBroadcastSupported, ifc.IsMulticastSupported}
		for i, b := range bits {
			want := flags&b != 0
			if got[i] != want {
				t.Errorf("flags=%#x bit=%#x: got %v, want %v", flags, b, got[i], want)
			}
		}
		if ifc.Flags != flags {
			t.Errorf("raw flags not preserved: got %#x, want %#x", ifc.Flags, flags)
		}
	}
}

func TestDecode_Name(t *testing.T) {
	tests := []struct {
		raw  []byte
		want string
	}{
		{[]byte("bridge100"), "bridge100"},
		{[]byte("en0\x00garbage"), "en0"},
		{[]byte("\x00"), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Decode(Record{Name: tt.raw}).Name; got != tt.want {
				t.Errorf("Decode name %q = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecode_IPv4(t *testing.T) {
	rec := Record{
		Name:      []byte("bridge100"),
		Family:    afInet,
		Addr:      net.ParseIP("172.20.10.1").To4(),
		Netmask:   []byte{255, 255, 255, 240},
		Broadaddr: net.ParseIP("172.20.10.15"), // 16-byte v4-mapped form
	}

	ifc := Decode(rec)
	if ifc.Family != FamilyIPv4 {
		t.Fatalf("expected IPv4, got %v", ifc.Family)
	}
	if ifc.IPAddress != "172.20.10.1" {
		t.Errorf("IPAddress = %q", ifc.IPAddress)
	}
	if ifc.Netmask != "255.255.255.240" {
		t.Errorf("Netmask = %q", ifc.Netmask)
	}
	if ifc.BroadcastAddress != "172.20.10.15" {
		t.Errorf("BroadcastAddress = %q", ifc.BroadcastAddress)
	}
}

func TestDecode_IPv6(t *testing.T) {
	rec := Record{
		Name:    []byte("en0"),
		Family:  afInet6,
		Addr:    net.ParseIP("fe80::1c2b:3aff:fe4d:5e6f"),
		Netmask: net.CIDRMask(64, 128),
	}

	ifc := Decode(rec)
	if ifc.Family != FamilyIPv6 {
		t.Fatalf("expected IPv6, got %v", ifc.Family)
	}
	if ifc.IPAddress != "fe80::1c2b:3aff:fe4d:5e6f" {
		t.Errorf("IPAddress = %q", ifc.IPAddress)
	}
	if ifc.Netmask != "ffff:ffff:ffff:ffff::" {
		t.Errorf("Netmask = %q", ifc.Netmask)
	}
	if ifc.BroadcastAddress != "" {
		t.Errorf("expected no destination address, got %q", ifc.BroadcastAddress)
	}
}

func TestDecode_MalformedAddressesAreAbsent(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"unrecognized family", Record{Family: 0, Addr: []byte{10, 0, 0, 1}}},
		{"short ipv4", Record{Family: afInet, Addr: []byte{10, 0, 0}}},
		{"ipv4 tag with ipv6 bytes", Record{Family: afInet, Addr: net.ParseIP("2001:db8::1")}},
		{"short ipv6", Record{Family: afInet6, Addr: []byte{0xfe, 0x80}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ifc := Decode(tt.rec)
			if ifc.IPAddress != "" || ifc.Netmask != "" || ifc.BroadcastAddress != "" {
				t.Errorf("expected absent addresses, got %+v", ifc)
			}
		})
	}
}

func TestInspector_EnumerationFailureIsEmpty(t *testing.T) {
	in := &Inspector{Source: SourceFunc(func() ([]Record, error) {
		return nil, errors.New("getifaddrs failed")
	})}

	got := in.ListInterfaces()
	if got == nil {
		t.Fatal("expected empty, non-nil slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected no interfaces, got %d", len(got))
	}
}

func TestInspector_SnapshotIsFreshPerCall(t *testing.T) {
	calls := 0
	in := &Inspector{Source: SourceFunc(func() ([]Record, error) {
		calls++
		return []Record{{Name: []byte("lo0"), Flags: FlagUp | FlagLoopback}}, nil
	})}

	first := in.ListInterfaces()
	first[0].Name = "mutated"
	second := in.ListInterfaces()

	if calls != 2 {
		t.Fatalf("expected 2 enumerations, got %d", calls)
	}
	if second[0].Name != "lo0" {
		t.Fatalf("second snapshot affected by caller mutation: %q", second[0].Name)
	}
}

func TestRawFlags(t *testing.T) {
	raw := rawFlags(net.FlagUp | net.FlagRunning | net.FlagMulticast)
	if raw != FlagUp|FlagRunning|FlagMulticast {
		t.Fatalf("rawFlags = %#x", raw)
	}
	if rawFlags(0) != 0 {
		t.Fatal("expected zero flags")
	}
}

func TestIPNetRecord_ComputesBroadcast(t *testing.T) {
	_, ipnet, _ := net.ParseCIDR("172.20.10.0/28")
	ipnet.IP = net.ParseIP("172.20.10.1")

	ifc := Decode(ipNetRecord([]byte("bridge100"), FlagUp|FlagBroadcast, ipnet))
	if ifc.BroadcastAddress != "172.20.10.15" {
		t.Fatalf("BroadcastAddress = %q", ifc.BroadcastAddress)
	}
	if ifc.Netmask != "255.255.255.240" {
		t.Fatalf("Netmask = %q", ifc.Netmask)
	}
}

func TestListInterfaces_Live(t *testing.T) {
	// The host table varies; only check that every entry decodes sanely.
	for _, ifc := range ListInterfaces() {
		if ifc.Name == "" {
			t.Errorf("interface with empty name: %+v", ifc)
		}
		if ifc.Family == FamilyUnrecognized && ifc.IPAddress != "" {
			t.Errorf("unrecognized family carries an address: %+v", ifc)
		}
	}
}
