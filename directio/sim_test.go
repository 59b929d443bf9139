package directio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/set-io/pciconf/ports"
)

type simSlot struct {
	bus, dev, fn uint8
}

// simPorts models the mechanism side of both register protocols: a 32-bit
// address latch with a 4-byte data window for type 1, and the forwarding
// register pair with the 0xCXXX window for type 2. Port traffic is
// recorded so tests can assert exact sequences, and ops issued outside the
// critical section are counted separately.
type simPorts struct {
	mu sync.Mutex

	enables   int
	disables  int
	enabled   bool
	enableErr error

	locked      bool
	unlockedOps int

	conf1Broken bool
	conf2Broken bool

	latch    uint32
	conf2Fwd uint8
	conf2Bus uint8

	space map[simSlot][]byte
	trace []string
}

func newSim() *simPorts {
	return &simPorts{space: make(map[simSlot][]byte)}
}

// addDevice registers a function with the given vendor and class code and
// returns its 256-byte configuration space.
func (s *simPorts) addDevice(bus, dev, fn uint8, vendor, class uint16) []byte {
	cfg := make([]byte, 256)
	binary.LittleEndian.PutUint16(cfg[0x00:], vendor)
	binary.LittleEndian.PutUint16(cfg[0x0a:], class)
	s.space[simSlot{bus, dev, fn}] = cfg
	return cfg
}

func (s *simPorts) Enable() error {
	s.enables++
	if s.enableErr != nil {
		return s.enableErr
	}
	s.enabled = true
	return nil
}

func (s *simPorts) Disable() error {
	s.disables++
	s.enabled = false
	return nil
}

func (s *simPorts) Lock() {
	s.mu.Lock()
	s.locked = true
}

func (s *simPorts) Unlock() {
	s.locked = false
	s.mu.Unlock()
}

func (s *simPorts) record(op string) {
	s.trace = append(s.trace, op)
	if !s.locked {
		s.unlockedOps++
	}
}

func (s *simPorts) slotAt(bus, dev, fn uint8) []byte {
	return s.space[simSlot{bus, dev, fn}]
}

// conf1Target resolves the latched address to a space slice and register
// offset, nil when the latch is disabled or the slot is empty.
func (s *simPorts) conf1Target(port uint16) ([]byte, int) {
	if s.latch&0x80000000 == 0 {
		return nil, 0
	}
	bus := uint8(s.latch >> 16)
	dev := uint8(s.latch >> 11 & 0x1f)
	fn := uint8(s.latch >> 8 & 0x7)
	off := int(s.latch&0xfc) + int(port-0xcfc)
	return s.slotAt(bus, dev, fn), off
}

// conf2Target resolves a window port while forwarding is on.
func (s *simPorts) conf2Target(port uint16) ([]byte, int) {
	if s.conf2Fwd&0xf0 != 0xf0 {
		return nil, 0
	}
	dev := uint8(port >> 8 & 0x0f)
	fn := s.conf2Fwd >> 1 & 0x7
	return s.slotAt(s.conf2Bus, dev, fn), int(port & 0xff)
}

func (s *simPorts) in(port uint16, width int) (uint32, error) {
	s.record(fmt.Sprintf("in%d %x", width, port))
	if !s.enabled {
		return 0, ports.ErrNotEnabled
	}

	open := uint32(1)<<(8*width) - 1

	switch {
	case port == 0xcf8 && width == 4:
		if s.conf1Broken {
			return open, nil
		}
		return s.latch, nil
	case port == 0xcf8 && width == 1:
		if s.conf2Broken {
			return open, nil
		}
		return uint32(s.conf2Fwd), nil
	case port == 0xcfa && width == 1:
		if s.conf2Broken {
			return open, nil
		}
		return uint32(s.conf2Bus), nil
	case port >= 0xcfc && port <= 0xcff:
		cfg, off := s.conf1Target(port)
		if cfg == nil || off+width > len(cfg) {
			return open, nil
		}
		return readLE(cfg[off:], width), nil
	case port >= 0xc000 && port <= 0xcfff:
		cfg, off := s.conf2Target(port)
		if cfg == nil || off+width > len(cfg) {
			return open, nil
		}
		return readLE(cfg[off:], width), nil
	}
	return open, nil
}

func (s *simPorts) out(port uint16, width int, v uint32) error {
	s.record(fmt.Sprintf("out%d %x %x", width, port, v))
	if !s.enabled {
		return ports.ErrNotEnabled
	}

	switch {
	case port == 0xcf8 && width == 4:
		s.latch = v
	case port == 0xcfb && width == 1:
		// Mode control; nothing modeled.
	case port == 0xcf8 && width == 1:
		s.conf2Fwd = uint8(v)
	case port == 0xcfa && width == 1:
		s.conf2Bus = uint8(v)
	case port >= 0xcfc && port <= 0xcff:
		if cfg, off := s.conf1Target(port); cfg != nil && off+width <= len(cfg) {
			writeLE(cfg[off:], width, v)
		}
	case port >= 0xc000 && port <= 0xcfff:
		if cfg, off := s.conf2Target(port); cfg != nil && off+width <= len(cfg) {
			writeLE(cfg[off:], width, v)
		}
	}
	return nil
}

func readLE(b []byte, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}

func writeLE(b []byte, width int, v uint32) {
	for i := 0; i < width; i++ {
		b[i] = uint8(v >> (8 * i))
	}
}

func (s *simPorts) Inb(port uint16) (uint8, error) {
	v, err := s.in(port, 1)
	return uint8(v), err
}

func (s *simPorts) Inw(port uint16) (uint16, error) {
	v, err := s.in(port, 2)
	return uint16(v), err
}

func (s *simPorts) Inl(port uint16) (uint32, error) {
	return s.in(port, 4)
}

func (s *simPorts) Outb(port uint16, v uint8) error {
	return s.out(port, 1, uint32(v))
}

func (s *simPorts) Outw(port uint16, v uint16) error {
	return s.out(port, 2, uint32(v))
}

func (s *simPorts) Outl(port uint16, v uint32) error {
	return s.out(port, 4, v)
}
