package directio

import (
	"encoding/binary"

	"github.com/set-io/pciconf"
	"github.com/set-io/pciconf/ports"
)

const (
	conf2Fwd    = 0xcf8
	conf2Bus    = 0xcfa
	conf2Window = 0xc000
	conf2On     = 0xf0
)

// conf2 is the obsolete type 2 mechanism: a per-function forwarding
// register at 0xCF8, a bus select at 0xCFA, and a 4 KB window of ports at
// 0xCXXX. It addresses only 16 device slots per bus.
type conf2 struct {
	gate *gate
	ops  ports.Ops
}

func (c *conf2) Name() string { return "intel-conf2" }

// Detect zeroes the control registers and requires them to read back as
// written. This is ugly and tends to produce false positives; the sanity
// check catches most but not all of them.
func (c *conf2) Detect(a *pciconf.Access) bool {
	if !c.gate.acquire(a) {
		a.Debug("...no I/O permission")
		return false
	}

	res := false
	c.ops.Lock()
	c.ops.Outb(confReset, 0x00)
	c.ops.Outb(conf2Fwd, 0x00)
	c.ops.Outb(conf2Bus, 0x00)
	fwd, errF := c.ops.Inb(conf2Fwd)
	bus, errB := c.ops.Inb(conf2Bus)
	if errF == nil && errB == nil && fwd == 0x00 && bus == 0x00 {
		res = true
	}
	c.ops.Unlock()

	return res && sanityCheck(a, c)
}

func (c *conf2) Init(a *pciconf.Access)    { c.gate.activate(a) }
func (c *conf2) Cleanup(a *pciconf.Access) { c.gate.release() }

func (c *conf2) check(d pciconf.Addr, pos int) error {
	if d.Domain != 0 || pos < 0 || pos >= pciconf.ConfigSpaceSize {
		return pciconf.ErrUnsupported
	}
	if d.Dev >= 16 {
		// Only 16 slots per bus are addressable; refused before any
		// port traffic.
		return pciconf.ErrUnsupported
	}
	return nil
}

// window computes the data port: 0xC000 | dev<<8 | pos.
func window(d pciconf.Addr, pos int) uint16 {
	return conf2Window | uint16(d.Dev)<<8 | uint16(pos)
}

// open forwards the target function and bus; close undoes the forwarding
// so the window ports stop shadowing configuration space.
func (c *conf2) open(d pciconf.Addr) error {
	if err := c.ops.Outb(conf2Fwd, d.Fn<<1|conf2On); err != nil {
		return err
	}
	return c.ops.Outb(conf2Bus, d.Bus)
}

func (c *conf2) close(err error) error {
	if cerr := c.ops.Outb(conf2Fwd, 0x00); err == nil {
		err = cerr
	}
	return err
}

func (c *conf2) Read(d pciconf.Addr, pos int, buf []byte) error {
	if err := c.check(d, pos); err != nil {
		return err
	}
	switch len(buf) {
	case 1, 2, 4:
	default:
		return pciconf.BlockRead(c, d, pos, buf)
	}

	c.ops.Lock()
	defer c.ops.Unlock()
	err := c.open(d)
	if err == nil {
		switch len(buf) {
		case 1:
			var v uint8
			if v, err = c.ops.Inb(window(d, pos)); err == nil {
				buf[0] = v
			}
		case 2:
			var v uint16
			if v, err = c.ops.Inw(window(d, pos)); err == nil {
				binary.LittleEndian.PutUint16(buf, v)
			}
		case 4:
			var v uint32
			if v, err = c.ops.Inl(window(d, pos)); err == nil {
				binary.LittleEndian.PutUint32(buf, v)
			}
		}
	}
	return c.close(err)
}

func (c *conf2) Write(d pciconf.Addr, pos int, buf []byte) error {
	if err := c.check(d, pos); err != nil {
		return err
	}
	switch len(buf) {
	case 1, 2, 4:
	default:
		return pciconf.BlockWrite(c, d, pos, buf)
	}

	c.ops.Lock()
	defer c.ops.Unlock()
	err := c.open(d)
	if err == nil {
		switch len(buf) {
		case 1:
			err = c.ops.Outb(window(d, pos), buf[0])
		case 2:
			err = c.ops.Outw(window(d, pos), binary.LittleEndian.Uint16(buf))
		case 4:
			err = c.ops.Outl(window(d, pos), binary.LittleEndian.Uint32(buf))
		}
	}
	return c.close(err)
}
