//go:build !tinygo

package twi

import (
	"io"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"gaugecode-go/errcode"
)

// Open initialises the host drivers and opens the named I²C bus ("" picks the
// first one registered, "/dev/i2c-1" or "1" pick a specific one). The bus is
// clocked at hz, or DefaultFrequency when hz is 0.
func Open(name string, hz uint32) (drivers.I2C, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, errcode.Wrap(errcode.Unavailable, "twi.open", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, errcode.Wrap(errcode.Unavailable, "twi.open", err)
	}
	if hz == 0 {
		hz = DefaultFrequency
	}
	if err := b.SetSpeed(physic.Frequency(hz) * physic.Hertz); err != nil {
		b.Close()
		return nil, nil, errcode.Wrap(errcode.Transport, "twi.speed", err)
	}
	return b, b, nil
}
