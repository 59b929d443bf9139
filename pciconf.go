// Package pciconf provides host-side discovery and register-level access to
// PCI configuration space through the legacy x86 direct mechanisms, without
// going through an operating-system configuration interface.
package pciconf

import (
	"log"
)

// Method is one strategy for reaching configuration space. Exactly the
// direct-access implementations in the directio package exist; an Access
// tries them in priority order and keeps the first that activates.
//
// Read and Write move raw register bytes in little-endian wire order
// regardless of host byte order. Both return ErrUnsupported when the
// locator or offset is outside what the mechanism can address; that is a
// refusal, not a failure.
type Method interface {
	Name() string

	// Detect probes whether the mechanism is really present. It must be
	// silent on failure: an unusable mechanism is simply skipped.
	Detect(a *Access) bool

	// Init brackets the start of the usable lifetime. A permission
	// failure here is fatal and reported through a.Error.
	Init(a *Access)

	// Cleanup ends the usable lifetime; the mechanism may be detected
	// and initialized again afterwards.
	Cleanup(a *Access)

	Read(d Addr, pos int, buf []byte) error
	Write(d Addr, pos int, buf []byte) error
}

// Access is a handle on configuration space. Debug and Error come from the
// caller; Error is expected not to return (the default ends the process).
type Access struct {
	Debug func(format string, args ...interface{})
	Error func(format string, args ...interface{})

	methods []Method
	active  Method
}

func New(methods ...Method) *Access {
	return &Access{
		Debug:   func(string, ...interface{}) {},
		Error:   log.Fatalf,
		methods: methods,
	}
}

// Open tries each method in priority order and activates the first one
// whose probe succeeds.
func (a *Access) Open() error {
	for _, m := range a.methods {
		a.Debug("Trying method %s...", m.Name())
		if m.Detect(a) {
			a.Debug("...using %s", m.Name())
			m.Init(a)
			a.active = m
			return nil
		}
		a.Debug("...not present")
	}
	return ErrNoMethod
}

// Close releases the active method. The handle may be opened again.
func (a *Access) Close() {
	if a.active != nil {
		a.active.Cleanup(a)
		a.active = nil
	}
}

// MethodName reports the active method, or "" before Open.
func (a *Access) MethodName() string {
	if a.active == nil {
		return ""
	}
	return a.active.Name()
}

func (a *Access) Read(d Addr, pos int, buf []byte) error {
	if a.active == nil {
		return ErrNotActive
	}
	return a.active.Read(d, pos, buf)
}

func (a *Access) Write(d Addr, pos int, buf []byte) error {
	if a.active == nil {
		return ErrNotActive
	}
	return a.active.Write(d, pos, buf)
}
