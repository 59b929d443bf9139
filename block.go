package pciconf

// BlockRead fills buf of any length through repeated single-byte reads on
// m. Methods fall back to it for transfer widths outside {1, 2, 4}.
func BlockRead(m Method, d Addr, pos int, buf []byte) error {
	for i := range buf {
		if err := m.Read(d, pos+i, buf[i:i+1]); err != nil {
			return err
		}
	}
	return nil
}

// BlockWrite is the write half of BlockRead.
func BlockWrite(m Method, d Addr, pos int, buf []byte) error {
	for i := range buf {
		if err := m.Write(d, pos+i, buf[i:i+1]); err != nil {
			return err
		}
	}
	return nil
}
