package directio

import (
	"encoding/binary"

	"github.com/set-io/pciconf"
	"github.com/set-io/pciconf/ports"
)

const (
	conf1Addr   = 0xcf8
	conf1Data   = 0xcfc
	conf1Enable = 0x80000000
)

// conf1 is the type 1 mechanism: a 32-bit address register at 0xCF8 and a
// 4-byte data window at 0xCFC.
type conf1 struct {
	gate *gate
	ops  ports.Ops
}

func (c *conf1) Name() string { return "intel-conf1" }

// conf1Command packs a locator and register offset into the address
// register format. The two low offset bits are dropped here; they select
// the byte lane within the data window instead.
func conf1Command(d pciconf.Addr, pos int) uint32 {
	return conf1Enable |
		uint32(d.Bus)<<16 |
		uint32(d.Dev)<<11 |
		uint32(d.Fn)<<8 |
		uint32(pos&^3)
}

// Detect writes the enable sentinel to the address register and trusts the
// mechanism only if it reads back exactly and bus 0 passes the sanity
// check. The previous register value is restored either way.
func (c *conf1) Detect(a *pciconf.Access) bool {
	if !c.gate.acquire(a) {
		a.Debug("...no I/O permission")
		return false
	}

	res := false
	c.ops.Lock()
	c.ops.Outb(confReset, 0x01)
	saved, err := c.ops.Inl(conf1Addr)
	if err == nil {
		c.ops.Outl(conf1Addr, conf1Enable)
		if v, err := c.ops.Inl(conf1Addr); err == nil && v == conf1Enable {
			res = true
		}
		c.ops.Outl(conf1Addr, saved)
	}
	c.ops.Unlock()

	return res && sanityCheck(a, c)
}

func (c *conf1) Init(a *pciconf.Access)    { c.gate.activate(a) }
func (c *conf1) Cleanup(a *pciconf.Access) { c.gate.release() }

func (c *conf1) Read(d pciconf.Addr, pos int, buf []byte) error {
	if d.Domain != 0 || pos < 0 || pos >= pciconf.ConfigSpaceSize {
		return pciconf.ErrUnsupported
	}
	switch len(buf) {
	case 1, 2, 4:
	default:
		return pciconf.BlockRead(c, d, pos, buf)
	}
	lane := uint16(conf1Data + pos&3)

	c.ops.Lock()
	defer c.ops.Unlock()
	if err := c.ops.Outl(conf1Addr, conf1Command(d, pos)); err != nil {
		return err
	}
	switch len(buf) {
	case 1:
		v, err := c.ops.Inb(lane)
		if err != nil {
			return err
		}
		buf[0] = v
	case 2:
		v, err := c.ops.Inw(lane)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(buf, v)
	case 4:
		v, err := c.ops.Inl(lane)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf, v)
	}
	return nil
}

func (c *conf1) Write(d pciconf.Addr, pos int, buf []byte) error {
	if d.Domain != 0 || pos < 0 || pos >= pciconf.ConfigSpaceSize {
		return pciconf.ErrUnsupported
	}
	switch len(buf) {
	case 1, 2, 4:
	default:
		return pciconf.BlockWrite(c, d, pos, buf)
	}
	lane := uint16(conf1Data + pos&3)

	c.ops.Lock()
	defer c.ops.Unlock()
	if err := c.ops.Outl(conf1Addr, conf1Command(d, pos)); err != nil {
		return err
	}
	switch len(buf) {
	case 1:
		return c.ops.Outb(lane, buf[0])
	case 2:
		return c.ops.Outw(lane, binary.LittleEndian.Uint16(buf))
	default:
		return c.ops.Outl(lane, binary.LittleEndian.Uint32(buf))
	}
}
