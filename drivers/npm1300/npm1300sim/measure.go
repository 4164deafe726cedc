package npm1300sim

import (
	"math"
	"time"
)

// Frame field offsets.
const (
	fIbatStat = 0
	fMsbVbat  = 1
	fMsbNtc   = 2
	fLsbA     = 5
	fMsbIbat  = 8
	fLsbB     = 10
)

func pack(f *[ResultsLen]byte, msbAt, lsbAt int, shift uint, code uint16) {
	code &= 0x3FF
	f[msbAt] = byte(code >> 2)
	f[lsbAt] = f[lsbAt]&^(0x3<<shift) | byte(code&0x3)<<shift
}

// VbatCode is the 10-bit code for mV on the 5 V full scale.
func VbatCode(mV int32) uint16 {
	return uint16(clamp(int64(mV)*1024/5000, 0, 1023))
}

// NtcCode is the 10-bit code a beta-model NTC gives at celsius.
func NtcCode(celsius float64, beta uint32) uint16 {
	k := celsius + 273.15
	r := math.Exp(float64(beta) * (1/298.15 - 1/k))
	return uint16(clamp(int64(math.Round(1024/(r+1))), 1, 1023))
}

// IbatCode is the 10-bit code for |mA| against fullScaleMilliA.
func IbatCode(mA, fullScaleMilliA int32) uint16 {
	if fullScaleMilliA == 0 {
		return 0
	}
	if mA < 0 {
		mA = -mA
	}
	if fullScaleMilliA < 0 {
		fullScaleMilliA = -fullScaleMilliA
	}
	return uint16(clamp(int64(mA)*1024/int64(fullScaleMilliA), 0, 1023))
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}

// SetVbat, SetNtc and SetIbat update one channel of the ADC frame.
func (s *Sim) SetVbat(code uint16) {
	s.edit(func(f *[ResultsLen]byte) { pack(f, fMsbVbat, fLsbA, 0, code) })
}
func (s *Sim) SetNtc(code uint16) {
	s.edit(func(f *[ResultsLen]byte) { pack(f, fMsbNtc, fLsbA, 2, code) })
}
func (s *Sim) SetIbat(stat byte, code uint16) {
	s.edit(func(f *[ResultsLen]byte) {
		f[fIbatStat] = stat
		pack(f, fMsbIbat, fLsbB, 4, code)
	})
}

func (s *Sim) edit(fn func(*[ResultsLen]byte)) {
	s.mu.Lock()
	f := s.results()
	fn(&f)
	s.setResults(f)
	s.mu.Unlock()
}

// Cell is a crude single-cell plant for running without hardware: an OCV
// curve (linear unless OCV is set), a constant load, and charging at the
// programmed current while VBUS is present and charging is enabled.
type Cell struct {
	CapacityMilliAh float64
	SoC             float64 // 0..1
	LoadMilliA      float64
	ChargeMilliA    float64
	DischargeFSmA   int32 // IBAT full scale in discharge
	Celsius         float64
	Beta            uint32
	Now             func() time.Time
	// OCV maps SoC (%) to open-circuit volts; nil is 3.3 V to 4.2 V linear.
	OCV func(socPct float64) float64

	last time.Time
}

// Attach installs c as the simulator's conversion hook and seeds the frame.
func (c *Cell) Attach(s *Sim) {
	s.mu.Lock()
	s.OnConvert = c.convert
	c.convert(s)
	s.mu.Unlock()
}

func (c *Cell) convert(s *Sim) {
	now := c.Now()
	if !c.last.IsZero() {
		h := now.Sub(c.last).Hours()
		c.SoC -= c.netMilliA(s) * h / c.CapacityMilliAh
		c.SoC = math.Min(math.Max(c.SoC, 0), 1)
	}
	c.last = now

	f := s.results()
	mV := int32(3300 + 900*c.SoC)
	if c.OCV != nil {
		mV = int32(math.Round(c.OCV(c.SoC*100) * 1000))
	}
	pack(&f, fMsbVbat, fLsbA, 0, VbatCode(mV))
	pack(&f, fMsbNtc, fLsbA, 2, NtcCode(c.Celsius, c.Beta))
	if net := c.netMilliA(s); net >= 0 {
		f[fIbatStat] = IbatDischarge
		pack(&f, fMsbIbat, fLsbB, 4, IbatCode(int32(net), c.DischargeFSmA))
	} else {
		f[fIbatStat] = IbatChgNormal
		pack(&f, fMsbIbat, fLsbB, 4, IbatCode(int32(net), int32(c.ChargeMilliA)))
	}
	s.setResults(f)
}

// netMilliA is positive while discharging.
func (c *Cell) netMilliA(s *Sim) float64 {
	if s.charging && s.regs[reg{BaseVbus, OffVbusStatus}]&1 != 0 && c.SoC < 1 {
		return -c.ChargeMilliA
	}
	return c.LoadMilliA
}
