package directio

import (
	"sync"

	"github.com/set-io/pciconf"
	"github.com/set-io/pciconf/ports"
)

const (
	gateUntried = iota
	gateDenied
	gateGranted
)

// gate owns the process privilege for raw port access. The verdict of the
// one acquisition attempt is memoized: a grant is reused by every later
// caller, a denial stays until the privilege has been fully released.
// Holders are counted so one session's teardown cannot pull the privilege
// out from under a sibling.
type gate struct {
	mu    sync.Mutex
	ops   ports.Ops
	state int
	held  int
}

func newGate(ops ports.Ops) *gate {
	return &gate{ops: ops}
}

// acquire attempts the platform privilege raise at most once. Idempotent
// and cheap to call repeatedly.
func (g *gate) acquire(a *pciconf.Access) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == gateUntried {
		if err := g.ops.Enable(); err != nil {
			a.Debug("...%v", err)
			g.state = gateDenied
		} else {
			g.state = gateGranted
		}
	}
	return g.state == gateGranted
}

// activate is the init-time entry. A denial is unrecoverable for this
// attempt and is routed to the caller's fatal handler.
func (g *gate) activate(a *pciconf.Access) {
	if !g.acquire(a) {
		a.Error("No permission to access I/O ports (you probably have to be root).")
		return
	}
	g.mu.Lock()
	g.held++
	g.mu.Unlock()
}

// release drops a hold; the underlying privilege goes away only with the
// last one, and the state returns to untried so a later activation may
// acquire again. A memoized denial is left alone.
func (g *gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != gateGranted {
		return
	}
	if g.held > 0 {
		g.held--
		if g.held > 0 {
			return
		}
	}
	g.ops.Disable()
	g.state = gateUntried
}
