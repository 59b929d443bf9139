package directio

import (
	"encoding/binary"

	"github.com/set-io/pciconf"
)

// sanityCheck decides whether a mechanism whose registers echo correctly is
// actually talking to PCI. Register echoes alone produce false positives on
// hardware without real support, so bus 0 must hold something a PC always
// has: a host bridge or VGA class device, or failing that (some chipsets
// carry no class ID at all) a device from one of the two vendors that made
// most of them. Checks the wire bytes little-endian, independent of host
// order.
func sanityCheck(a *pciconf.Access, m pciconf.Method) bool {
	a.Debug("...sanity check")
	var d pciconf.Addr
	var buf [2]byte
	for d.Dev = 0; d.Dev < 32; d.Dev++ {
		if m.Read(d, pciconf.RegClassDevice, buf[:]) == nil {
			switch binary.LittleEndian.Uint16(buf[:]) {
			case pciconf.ClassBridgeHost, pciconf.ClassDisplayVGA:
				a.Debug("...outside the Asylum at 0/%02x/0", d.Dev)
				return true
			}
		}
		if m.Read(d, pciconf.RegVendorID, buf[:]) == nil {
			switch binary.LittleEndian.Uint16(buf[:]) {
			case pciconf.VendorIntel, pciconf.VendorCompaq:
				a.Debug("...outside the Asylum at 0/%02x/0", d.Dev)
				return true
			}
		}
	}
	a.Debug("...insane")
	return false
}
