package pciconf

import (
	"encoding/binary"
	"fmt"
)

// Device is the decoded identity of one discovered function. Only fields
// reachable through the first 64 header bytes are filled; this is an
// inventory record, not a device model.
type Device struct {
	Addr
	VendorID   uint16
	DeviceID   uint16
	Class      uint16
	Revision   uint8
	HeaderType uint8
	IRQ        uint8
	Pin        uint8
	Base       [6]uint32
}

func (d *Device) String() string {
	return fmt.Sprintf("%s %04x: %04x:%04x (rev %02x)",
		d.Addr, d.Class, d.VendorID, d.DeviceID, d.Revision)
}

// ReadByte and friends decode the little-endian wire bytes a Method
// produces into host-order values.
func (a *Access) ReadByte(d Addr, pos int) (uint8, error) {
	var b [1]byte
	err := a.Read(d, pos, b[:])
	return b[0], err
}

func (a *Access) ReadWord(d Addr, pos int) (uint16, error) {
	var b [2]byte
	err := a.Read(d, pos, b[:])
	return binary.LittleEndian.Uint16(b[:]), err
}

func (a *Access) ReadLong(d Addr, pos int) (uint32, error) {
	var b [4]byte
	err := a.Read(d, pos, b[:])
	return binary.LittleEndian.Uint32(b[:]), err
}

func (a *Access) WriteByte(d Addr, pos int, v uint8) error {
	return a.Write(d, pos, []byte{v})
}

func (a *Access) WriteWord(d Addr, pos int, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return a.Write(d, pos, b[:])
}

func (a *Access) WriteLong(d Addr, pos int, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return a.Write(d, pos, b[:])
}

// FillInfo decodes the identification fields of d.Addr into d.
func (a *Access) FillInfo(d *Device) error {
	var err error
	read16 := func(pos int) uint16 {
		var v uint16
		if err == nil {
			v, err = a.ReadWord(d.Addr, pos)
		}
		return v
	}
	read8 := func(pos int) uint8 {
		var v uint8
		if err == nil {
			v, err = a.ReadByte(d.Addr, pos)
		}
		return v
	}

	d.VendorID = read16(RegVendorID)
	d.DeviceID = read16(RegDeviceID)
	d.Class = read16(RegClassDevice)
	d.Revision = read8(RegRevisionID)
	d.HeaderType = read8(RegHeaderType)
	d.IRQ = read8(RegInterruptLine)
	d.Pin = read8(RegInterruptPin)
	if err != nil {
		return err
	}
	if d.HeaderType&headerTypeMask != 0 {
		// Base registers are only laid out this way for type 0 headers.
		return nil
	}
	for i := range d.Base {
		d.Base[i], err = a.ReadLong(d.Addr, RegBaseAddress0+4*i)
		if err != nil {
			return err
		}
	}
	return nil
}
