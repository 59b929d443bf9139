// Package directio implements the two legacy x86 mechanisms for direct PCI
// configuration space access: the type 1 address/data window at 0xCF8/0xCFC
// and the obsolete type 2 forwarding interface. Both bypass the operating
// system and talk to the host bridge through raw I/O ports.
package directio

import (
	"github.com/set-io/pciconf"
	"github.com/set-io/pciconf/ports"
)

// The two mechanisms overlap on these ports.
const (
	confReset = 0xcfb
)

// Methods returns the direct-access strategies in priority order (type 1
// first). Both share one permission gate because they contend for the same
// physical ports.
func Methods(ops ports.Ops) []pciconf.Method {
	g := newGate(ops)
	return []pciconf.Method{
		&conf1{gate: g, ops: ops},
		&conf2{gate: g, ops: ops},
	}
}
