// Package ports holds the platform primitives for raw x86 I/O port access.
package ports

import (
	"errors"
)

var (
	ErrUnavailable  = errors.New("port backend unavailable on this platform")
	ErrNotEnabled   = errors.New("port access not enabled")
	ErrNoPermission = errors.New("no permission to access I/O ports")
)

// Ops is a raw port backend. The address/data registers the PCI mechanisms
// use are global machine resources; Lock must be held across every
// multi-step register sequence so no other goroutine can reprogram them
// between the address step and the data step. Enable and Disable bracket
// the elevated privilege the in/out instructions need; both are called
// from a single goroutine by the permission gate.
type Ops interface {
	Inb(port uint16) (uint8, error)
	Inw(port uint16) (uint16, error)
	Inl(port uint16) (uint32, error)
	Outb(port uint16, v uint8) error
	Outw(port uint16, v uint16) error
	Outl(port uint16, v uint32) error

	Lock()
	Unlock()

	Enable() error
	Disable() error
}
