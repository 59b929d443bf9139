package pciconf

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Scan walks bus 0 and every bridge reachable behind it, then fills device
// records concurrently. The port-level critical sections serialize the
// actual register traffic, so concurrent fills are safe.
func (a *Access) Scan() ([]*Device, error) {
	var addrs []Addr
	seen := make(map[uint8]bool)
	if err := a.scanBus(0, seen, &addrs); err != nil {
		return nil, fmt.Errorf("bus walk: %w", err)
	}

	devs := make([]*Device, len(addrs))
	var g errgroup.Group
	for i, ad := range addrs {
		i, ad := i, ad
		g.Go(func() error {
			d := &Device{Addr: ad}
			if err := a.FillInfo(d); err != nil {
				return fmt.Errorf("%s: %w", ad, err)
			}
			devs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return devs, nil
}

func (a *Access) scanBus(bus uint8, seen map[uint8]bool, out *[]Addr) error {
	if seen[bus] {
		return nil
	}
	seen[bus] = true

	for dev := uint8(0); dev < 32; dev++ {
		if err := a.scanDev(Addr{Bus: bus, Dev: dev}, seen, out); err != nil {
			return err
		}
	}
	return nil
}

func (a *Access) scanDev(ad Addr, seen map[uint8]bool, out *[]Addr) error {
	vendor, err := a.ReadWord(ad, RegVendorID)
	if err != nil {
		// A mechanism that cannot address this slot is not an error;
		// the slot is just unreachable.
		if errors.Is(err, ErrUnsupported) {
			return nil
		}
		return err
	}
	if !vendorValid(vendor) {
		return nil
	}

	htype, err := a.ReadByte(ad, RegHeaderType)
	if err != nil {
		return err
	}
	maxFn := uint8(0)
	if htype&headerMultiFunc != 0 {
		maxFn = 7
	}

	for fn := uint8(0); fn <= maxFn; fn++ {
		fa := ad
		fa.Fn = fn
		if fn > 0 {
			if vendor, err = a.ReadWord(fa, RegVendorID); err != nil {
				return err
			}
			if !vendorValid(vendor) {
				continue
			}
		}
		*out = append(*out, fa)

		ft, err := a.ReadByte(fa, RegHeaderType)
		if err != nil {
			return err
		}
		if ft&headerTypeMask == headerBridge {
			secondary, err := a.ReadByte(fa, RegSecondaryBus)
			if err != nil {
				return err
			}
			if err := a.scanBus(secondary, seen, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// vendorValid filters the open-bus patterns an empty slot produces.
func vendorValid(vendor uint16) bool {
	return vendor != 0xffff && vendor != 0x0000
}
