package pciconf

import (
	"fmt"
	"strconv"
	"strings"
)

// Registers in the common part of the configuration header.
const (
	RegVendorID      = 0x00
	RegDeviceID      = 0x02
	RegCommand       = 0x04
	RegStatus        = 0x06
	RegRevisionID    = 0x08
	RegClassDevice   = 0x0a
	RegHeaderType    = 0x0e
	RegBaseAddress0  = 0x10
	RegSecondaryBus  = 0x19
	RegInterruptLine = 0x3c
	RegInterruptPin  = 0x3d
)

const (
	ClassBridgeHost = 0x0600
	ClassDisplayVGA = 0x0300

	VendorIntel  = 0x8086
	VendorCompaq = 0x0e11
)

const (
	// ConfigSpaceSize is the reachable part of configuration space; the
	// direct mechanisms cannot address anything past it.
	ConfigSpaceSize = 256

	headerTypeMask  = 0x7f
	headerMultiFunc = 0x80
	headerBridge    = 0x01
)

// Addr locates a single PCI function. Domain must stay zero for the direct
// access mechanisms; it is carried so callers can hand us locators from
// other sources and get a clean refusal.
type Addr struct {
	Domain uint16
	Bus    uint8
	Dev    uint8
	Fn     uint8
}

func (a Addr) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%d", a.Domain, a.Bus, a.Dev, a.Fn)
}

// ParseAddr accepts "bus:dev.fn" or "domain:bus:dev.fn", all fields hex.
func ParseAddr(s string) (Addr, error) {
	var a Addr

	df, fn, ok := strings.Cut(s, ".")
	if !ok {
		return a, fmt.Errorf("%q: %w", s, ErrBadAddress)
	}
	parts := strings.Split(df, ":")
	if len(parts) == 3 {
		dom, err := strconv.ParseUint(parts[0], 16, 16)
		if err != nil {
			return a, fmt.Errorf("%q: domain: %w", s, ErrBadAddress)
		}
		a.Domain = uint16(dom)
		parts = parts[1:]
	}
	if len(parts) != 2 {
		return a, fmt.Errorf("%q: %w", s, ErrBadAddress)
	}
	bus, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return a, fmt.Errorf("%q: bus: %w", s, ErrBadAddress)
	}
	dev, err := strconv.ParseUint(parts[1], 16, 8)
	if err != nil || dev >= 32 {
		return a, fmt.Errorf("%q: device: %w", s, ErrBadAddress)
	}
	f, err := strconv.ParseUint(fn, 16, 8)
	if err != nil || f >= 8 {
		return a, fmt.Errorf("%q: function: %w", s, ErrBadAddress)
	}
	a.Bus = uint8(bus)
	a.Dev = uint8(dev)
	a.Fn = uint8(f)
	return a, nil
}
