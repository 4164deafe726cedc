// Package npm1300sim is a register-level nPM1300 on a fake I2C bus. It
// records every write, serves reads from a register file, and can fail
// chosen registers on demand.
package npm1300sim

import (
	"errors"
	"sync"
)

// Register blocks and offsets the simulator gives meaning to.
const (
	Address = 0x6B

	BaseVbus = 0x02
	BaseChgr = 0x03
	BaseAdc  = 0x05

	OffChgStat     = 0x34
	OffErrReason   = 0x36
	OffTaskVbat    = 0x00
	OffTaskTemp    = 0x01
	OffResults     = 0x10
	OffVbusStatus  = 0x07
	OffTaskUpdate  = 0x00
	OffEnSet       = 0x04
	OffEnClr       = 0x05
	OffIbatEn      = 0x24
	OffNtcrSel     = 0x0A
	OffIset        = 0x08
	OffIsetDischg  = 0x0A
	OffVterm       = 0x0C
	OffVtermR      = 0x0D
	OffVbusIlim    = 0x01
	ResultsLen     = 11
	IbatDischarge  = 0x04
	IbatChgTrickle = 0x0C
	IbatChgCool    = 0x0D
	IbatChgNormal  = 0x0F
)

var (
	ErrNak     = errors.New("npm1300sim: address nak")
	ErrPointer = errors.New("npm1300sim: read without a two-byte pointer")
)

// Write is one write frame as seen on the wire.
type Write struct {
	Base, Offset byte
	Data         []byte
}

// Bytes returns the frame as sent: base, offset, data.
func (w Write) Bytes() []byte {
	return append([]byte{w.Base, w.Offset}, w.Data...)
}

type reg struct{ base, off byte }

type fault struct {
	reg
	err   error
	count int // <0 means every access
}

// Sim implements tinygo.org/x/drivers.I2C.
type Sim struct {
	mu       sync.Mutex
	addr     uint16
	regs     map[reg]byte
	writes   []Write
	reads    []reg
	faults   []fault
	charging bool

	// OnConvert runs, with the lock held, whenever TASK_VBAT is written.
	OnConvert func(s *Sim)
}

func New() *Sim {
	return &Sim{addr: Address, regs: make(map[reg]byte)}
}

// Tx serves a pointer-then-read as a register read and anything else as a
// register write.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr != s.addr {
		return ErrNak
	}
	if len(r) > 0 {
		if len(w) != 2 {
			return ErrPointer
		}
		at := reg{w[0], w[1]}
		s.reads = append(s.reads, at)
		if err := s.trip(at); err != nil {
			return err
		}
		for i := range r {
			r[i] = s.regs[reg{at.base, at.off + byte(i)}]
		}
		return nil
	}
	if len(w) < 3 {
		return ErrPointer
	}
	at := reg{w[0], w[1]}
	if err := s.trip(at); err != nil {
		return err
	}
	s.writes = append(s.writes, Write{Base: at.base, Offset: at.off, Data: append([]byte(nil), w[2:]...)})
	for i, b := range w[2:] {
		s.regs[reg{at.base, at.off + byte(i)}] = b
	}
	s.effects(at)
	return nil
}

func (s *Sim) effects(at reg) {
	switch at {
	case reg{BaseChgr, OffEnSet}:
		s.charging = true
	case reg{BaseChgr, OffEnClr}:
		s.charging = false
	case reg{BaseAdc, OffTaskVbat}:
		if s.OnConvert != nil {
			s.OnConvert(s)
		}
	}
}

func (s *Sim) trip(at reg) error {
	for i := range s.faults {
		f := &s.faults[i]
		if f.reg != at || f.count == 0 {
			continue
		}
		if f.count > 0 {
			f.count--
		}
		return f.err
	}
	return nil
}

// Fail makes the next n accesses to {base, off} return err; n < 0 fails
// every access until ClearFaults.
func (s *Sim) Fail(base, off byte, err error, n int) {
	s.mu.Lock()
	s.faults = append(s.faults, fault{reg: reg{base, off}, err: err, count: n})
	s.mu.Unlock()
}

func (s *Sim) ClearFaults() {
	s.mu.Lock()
	s.faults = nil
	s.mu.Unlock()
}

// SetAddress moves the simulated device to another bus address.
func (s *Sim) SetAddress(a uint16) {
	s.mu.Lock()
	s.addr = a
	s.mu.Unlock()
}

// ---------------- Register file ----------------

func (s *Sim) Reg(base, off byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg{base, off}]
}

func (s *Sim) SetReg(base, off, v byte) {
	s.mu.Lock()
	s.regs[reg{base, off}] = v
	s.mu.Unlock()
}

// SetResults loads the raw ADC frame.
func (s *Sim) SetResults(frame [ResultsLen]byte) {
	s.mu.Lock()
	s.setResults(frame)
	s.mu.Unlock()
}

func (s *Sim) setResults(frame [ResultsLen]byte) {
	for i, b := range frame {
		s.regs[reg{BaseAdc, OffResults + byte(i)}] = b
	}
}

func (s *Sim) results() (f [ResultsLen]byte) {
	for i := range f {
		f[i] = s.regs[reg{BaseAdc, OffResults + byte(i)}]
	}
	return f
}

func (s *Sim) SetStatus(v byte)     { s.SetReg(BaseChgr, OffChgStat, v) }
func (s *Sim) SetErrReason(v byte)  { s.SetReg(BaseChgr, OffErrReason, v) }
func (s *Sim) SetVbusStatus(v byte) { s.SetReg(BaseVbus, OffVbusStatus, v) }

// Charging reports the state left by the last EN_SET/EN_CLR write.
func (s *Sim) Charging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charging
}

// ---------------- Trace ----------------

// Writes returns a copy of the write trace.
func (s *Sim) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// WritesTo returns how many writes hit {base, off}.
func (s *Sim) WritesTo(base, off byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.writes {
		if w.Base == base && w.Offset == off {
			n++
		}
	}
	return n
}

// Reads returns the register pointers read so far, as {base, offset} pairs.
func (s *Sim) Reads() [][2]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]byte, len(s.reads))
	for i, r := range s.reads {
		out[i] = [2]byte{r.base, r.off}
	}
	return out
}

func (s *Sim) ResetTrace() {
	s.mu.Lock()
	s.writes, s.reads = nil, nil
	s.mu.Unlock()
}
