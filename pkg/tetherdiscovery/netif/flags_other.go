//go:build !unix

package netif

// Interface flag bits of the raw flags word. There is no IFF_* word on these
// platforms, so the Linux values are used for records synthesized from net.Flags.
const (
	FlagUp           uint32 = 0x1
	FlagBroadcast    uint32 = 0x2
	FlagLoopback     uint32 = 0x8
	FlagPointToPoint uint32 = 0x10
	FlagRunning      uint32 = 0x40
	FlagMulticast    uint32 = 0x1000
)

// Windows address family tags.
const (
	afInet  uint16 = 2
	afInet6 uint16 = 23
)
