//go:build unix

package netif

import "golang.org/x/sys/unix"

// Interface flag bits of the raw flags word.
const (
	FlagUp           uint32 = unix.IFF_UP
	FlagBroadcast    uint32 = unix.IFF_BROADCAST
	FlagLoopback     uint32 = unix.IFF_LOOPBACK
	FlagPointToPoint uint32 = unix.IFF_POINTOPOINT
	FlagRunning      uint32 = unix.IFF_RUNNING
	FlagMulticast    uint32 = unix.IFF_MULTICAST
)

const (
	afInet  uint16 = unix.AF_INET
	afInet6 uint16 = unix.AF_INET6
)
