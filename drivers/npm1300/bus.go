package npm1300

// Register access. Every register is addressed by a two-byte pointer
// {base, offset}; reads send the pointer and read back after a repeated
// start, writes send the pointer followed by the data in one frame.
// Bus errors are returned as they come, without retry.

func (d *Device) read(base, offset byte) (byte, error) {
	d.w[0], d.w[1] = base, offset
	if err := d.i2c.Tx(d.addr, d.w[:2], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) readBurst(base, offset byte, out []byte) error {
	d.w[0], d.w[1] = base, offset
	return d.i2c.Tx(d.addr, d.w[:2], out)
}

func (d *Device) write(base, offset, data byte) error {
	d.w[0], d.w[1], d.w[2] = base, offset, data
	return d.i2c.Tx(d.addr, d.w[:3], nil)
}

// write2 fills two consecutive registers.
func (d *Device) write2(base, offset, d1, d2 byte) error {
	d.w[0], d.w[1], d.w[2], d.w[3] = base, offset, d1, d2
	return d.i2c.Tx(d.addr, d.w[:4], nil)
}
