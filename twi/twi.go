// Package twi is the two-wire (I²C) master transport used by the drivers.
//
// Drivers talk to a tinygo.org/x/drivers.I2C: one call writes w and then,
// after a repeated start, reads len(r) bytes. Controllers that expose the
// write and read halves separately are adapted with NewI2C. Bounded puts a
// deadline on every transfer and classifies failures with errcode.
package twi

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"gaugecode-go/errcode"
)

// DefaultPerByte bounds each byte on the wire. At 100 kHz a byte takes about
// 90 µs, so this only trips on a stuck bus.
const DefaultPerByte = 10 * time.Millisecond

// DefaultFrequency is the bus clock the PMIC is driven at.
const DefaultFrequency = 100_000

var ErrNoData = errors.New("empty transfer")

// Master is a split-phase controller: Tx sends bytes and, when noStop is set,
// leaves the bus held for a repeated start; Rx reads len(r) bytes.
type Master interface {
	Tx(addr uint16, w []byte, noStop bool) error
	Rx(addr uint16, r []byte) error
}

type split struct{ m Master }

// NewI2C adapts a split master to the combined write-then-read shape.
func NewI2C(m Master) drivers.I2C { return split{m: m} }

func (s split) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return errcode.Wrap(errcode.InvalidParams, "twi.tx", ErrNoData)
	}
	if len(w) > 0 {
		if err := s.m.Tx(addr, w, len(r) > 0); err != nil {
			return classify("twi.tx", err)
		}
	}
	if len(r) > 0 {
		if err := s.m.Rx(addr, r); err != nil {
			return classify("twi.rx", err)
		}
	}
	return nil
}

// classify keeps an existing code and otherwise marks err as a transport
// failure with the cause preserved.
func classify(op string, err error) error {
	var e *errcode.E
	if errors.As(err, &e) {
		return err
	}
	var c errcode.Code
	if errors.As(err, &c) {
		return err
	}
	return errcode.Wrap(errcode.Transport, op, err)
}

type bounded struct {
	bus     drivers.I2C
	perByte time.Duration
	// held while a transfer is on the wire, including one that timed out
	// and is still running.
	sem chan struct{}
	// wire copies of w and r; owned by whoever holds sem.
	w, r []byte
}

// Bounded limits every transfer on bus to perByte for each byte moved (and at
// least perByte). A transfer that overruns returns errcode.Timeout and later
// transfers wait for it to finish. The bus only ever sees private copies of
// w and r, so callers may reuse their buffers as soon as Tx returns; read
// bytes are copied back only when the transfer completes in time.
func Bounded(bus drivers.I2C, perByte time.Duration) drivers.I2C {
	if perByte <= 0 {
		perByte = DefaultPerByte
	}
	return &bounded{bus: bus, perByte: perByte, sem: make(chan struct{}, 1)}
}

func (b *bounded) Tx(addr uint16, w, r []byte) error {
	n := len(w) + len(r)
	if n < 1 {
		n = 1
	}
	limit := b.perByte * time.Duration(n)

	t := time.NewTimer(limit)
	defer t.Stop()

	select {
	case b.sem <- struct{}{}:
	case <-t.C:
		return &errcode.E{C: errcode.Timeout, Op: "twi.tx", Msg: "bus held by a stalled transfer"}
	}

	b.w = append(b.w[:0], w...)
	b.r = grow(b.r, len(r))
	wb, rb := b.w, b.r

	// Whoever ends up owning the outcome releases sem: the caller when the
	// transfer lands in time, the goroutine when the caller gave up.
	done := make(chan error)
	abandoned := make(chan struct{})
	go func() {
		err := b.bus.Tx(addr, wb, rb)
		select {
		case done <- err:
		case <-abandoned:
			<-b.sem
		}
	}()

	select {
	case err := <-done:
		if err == nil {
			copy(r, rb)
		}
		<-b.sem
		if err != nil {
			return classify("twi.tx", err)
		}
		return nil
	case <-t.C:
		close(abandoned)
		return &errcode.E{C: errcode.Timeout, Op: "twi.tx"}
	}
}

func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}
