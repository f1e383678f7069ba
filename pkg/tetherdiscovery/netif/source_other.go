//go:build !linux

package netif

// DefaultSource returns the net package source.
func DefaultSource() Source {
	return NetSource{}
}
