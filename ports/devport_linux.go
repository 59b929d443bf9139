package ports

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const devPortPath = "/dev/port"

// devPortOps reaches ports through /dev/port, one pread/pwrite at the port
// number as file offset. The kernel issues one byte instruction per byte,
// which the config registers tolerate: the address register at 0xCF8 is
// byte-addressable through 0xCF8..0xCFB. Opening the file is the privilege
// acquisition; no iopl is involved, so this also works where the binary
// may not raise its I/O privilege level.
type devPortOps struct {
	mu sync.Mutex
	fd int
}

// DevPort returns the /dev/port backend.
func DevPort() (Ops, error) {
	return &devPortOps{fd: -1}, nil
}

func (p *devPortOps) Enable() error {
	if p.fd >= 0 {
		return nil
	}
	fd, err := unix.Open(devPortPath, unix.O_RDWR, 0)
	if err != nil {
		if err == unix.EPERM || err == unix.EACCES {
			return fmt.Errorf("open %s: %w", devPortPath, ErrNoPermission)
		}
		return fmt.Errorf("open %s: %w", devPortPath, err)
	}
	p.fd = fd
	return nil
}

func (p *devPortOps) Disable() error {
	if p.fd < 0 {
		return nil
	}
	fd := p.fd
	p.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close %s: %w", devPortPath, err)
	}
	return nil
}

func (p *devPortOps) Lock()   { p.mu.Lock() }
func (p *devPortOps) Unlock() { p.mu.Unlock() }

func (p *devPortOps) in(port uint16, buf []byte) error {
	if p.fd < 0 {
		return ErrNotEnabled
	}
	n, err := unix.Pread(p.fd, buf, int64(port))
	if err != nil {
		return fmt.Errorf("pread port %#x: %w", port, err)
	}
	if n != len(buf) {
		return fmt.Errorf("pread port %#x: short read (%d of %d)", port, n, len(buf))
	}
	return nil
}

func (p *devPortOps) out(port uint16, buf []byte) error {
	if p.fd < 0 {
		return ErrNotEnabled
	}
	n, err := unix.Pwrite(p.fd, buf, int64(port))
	if err != nil {
		return fmt.Errorf("pwrite port %#x: %w", port, err)
	}
	if n != len(buf) {
		return fmt.Errorf("pwrite port %#x: short write (%d of %d)", port, n, len(buf))
	}
	return nil
}

func (p *devPortOps) Inb(port uint16) (uint8, error) {
	var b [1]byte
	err := p.in(port, b[:])
	return b[0], err
}

func (p *devPortOps) Inw(port uint16) (uint16, error) {
	var b [2]byte
	err := p.in(port, b[:])
	return binary.LittleEndian.Uint16(b[:]), err
}

func (p *devPortOps) Inl(port uint16) (uint32, error) {
	var b [4]byte
	err := p.in(port, b[:])
	return binary.LittleEndian.Uint32(b[:]), err
}

func (p *devPortOps) Outb(port uint16, v uint8) error {
	return p.out(port, []byte{v})
}

func (p *devPortOps) Outw(port uint16, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return p.out(port, b[:])
}

func (p *devPortOps) Outl(port uint16, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return p.out(port, b[:])
}
