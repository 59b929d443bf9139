//go:build !linux

package ports

// DevPort is Linux-only; /dev/port has no portable equivalent.
func DevPort() (Ops, error) {
	return nil, ErrUnavailable
}
