package ports

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

func archInb(port uint16) uint8
func archInw(port uint16) uint16
func archInl(port uint16) uint32
func archOutb(port uint16, v uint8)
func archOutw(port uint16, v uint16)
func archOutl(port uint16, v uint32)

// ioplOps issues in/out instructions directly. Enable raises the process
// I/O privilege level to 3, which opens the whole port range at once; the
// mechanisms touch ports above 0x3FF, so the narrower ioperm range call
// would not do.
type ioplOps struct {
	mu      sync.Mutex
	enabled bool
}

// IOPL returns the instruction-level backend.
func IOPL() (Ops, error) {
	return &ioplOps{}, nil
}

func (p *ioplOps) Enable() error {
	if err := unix.Iopl(3); err != nil {
		if err == unix.EPERM {
			return fmt.Errorf("iopl(3): %w", ErrNoPermission)
		}
		return fmt.Errorf("iopl(3): %w", err)
	}
	p.enabled = true
	return nil
}

func (p *ioplOps) Disable() error {
	if !p.enabled {
		return nil
	}
	p.enabled = false
	if err := unix.Iopl(0); err != nil {
		return fmt.Errorf("iopl(0): %w", err)
	}
	return nil
}

func (p *ioplOps) Lock()   { p.mu.Lock() }
func (p *ioplOps) Unlock() { p.mu.Unlock() }

func (p *ioplOps) Inb(port uint16) (uint8, error) {
	if !p.enabled {
		return 0, ErrNotEnabled
	}
	return archInb(port), nil
}

func (p *ioplOps) Inw(port uint16) (uint16, error) {
	if !p.enabled {
		return 0, ErrNotEnabled
	}
	return archInw(port), nil
}

func (p *ioplOps) Inl(port uint16) (uint32, error) {
	if !p.enabled {
		return 0, ErrNotEnabled
	}
	return archInl(port), nil
}

func (p *ioplOps) Outb(port uint16, v uint8) error {
	if !p.enabled {
		return ErrNotEnabled
	}
	archOutb(port, v)
	return nil
}

func (p *ioplOps) Outw(port uint16, v uint16) error {
	if !p.enabled {
		return ErrNotEnabled
	}
	archOutw(port, v)
	return nil
}

func (p *ioplOps) Outl(port uint16, v uint32) error {
	if !p.enabled {
		return ErrNotEnabled
	}
	archOutl(port, v)
	return nil
}
