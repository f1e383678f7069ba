//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package arp

import "context"

// LookupAddr always fails with ErrNotSupported on this platform.
func (a *Discovery) LookupAddr(ctx context.Context, ip string) (*Result, error) {
	return &Result{IP: ip, Error: ErrNotSupported}, ErrNotSupported
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return false
}
