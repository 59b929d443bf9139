package pciconf

import (
	"errors"
)

var (
	ErrUnsupported = errors.New("unsupported")
	ErrNoMethod    = errors.New("no usable configuration access method")
	ErrNotActive   = errors.New("access not opened")
	ErrBadAddress  = errors.New("bad device address")
)
