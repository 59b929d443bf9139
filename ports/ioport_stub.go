//go:build !linux || !amd64

package ports

// IOPL needs iopl(2) and in/out instructions; only linux/amd64 has both.
func IOPL() (Ops, error) {
	return nil, ErrUnavailable
}
