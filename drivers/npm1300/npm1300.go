// Package npm1300 is a driver for the charger and ADC blocks of the Nordic
// nPM1300 PMIC.
//
// Design notes (datasheet references):
//   - I2C, 100kHz, two-byte register pointer {block, offset}.
//   - 10-bit ADC results: 8 MSB per channel plus 2 LSB packed in shared bytes.
//   - ADC conversions are pipelined: a fetch reads the previous conversion and
//     triggers the next one.
//   - IBAT full scale depends on the charge regime reported with the results.
//   - VBUS insertion resets the input current limit; the driver re-applies it.
//
// A Device is not safe for concurrent use; one goroutine owns it.
package npm1300

import (
	"tinygo.org/x/drivers"

	"gaugecode-go/errcode"
	"gaugecode-go/x/linrange"
)

// ---------------- Types and configuration ----------------

// Thermistor selects the NTC profile.
type Thermistor uint8

const (
	Thermistor10k Thermistor = iota
	Thermistor47k
	Thermistor100k
	ThermistorNone Thermistor = 0xFF
)

func (t Thermistor) String() string {
	switch t {
	case Thermistor10k:
		return "10k"
	case Thermistor47k:
		return "47k"
	case Thermistor100k:
		return "100k"
	case ThermistorNone:
		return "none"
	}
	return "invalid"
}

// ntcrSel is the ADC.NTCR_SEL value for t.
func (t Thermistor) ntcrSel() byte {
	if t == ThermistorNone {
		return 0
	}
	return byte(t) + 1
}

type Config struct {
	Address              uint16
	TermMicroV           int32 // termination voltage
	TermWarmMicroV       int32 // termination voltage in the warm region
	CurrentMicroA        int32 // nominal charge current
	DischargeLimitMicroA int32
	VbusLimitMicroA      int32
	Thermistor           Thermistor
	ThermistorBeta       uint32 // K
	ChargingEnable       bool
}

// DefaultConfig is a 4.15 V / 150 mA cell behind a 10k β=3380 NTC.
func DefaultConfig() Config {
	return Config{
		Address:              AddressDefault,
		TermMicroV:           4_150_000,
		TermWarmMicroV:       4_000_000,
		CurrentMicroA:        150_000,
		DischargeLimitMicroA: 1_000_000,
		VbusLimitMicroA:      500_000,
		Thermistor:           Thermistor10k,
		ThermistorBeta:       3380,
		ChargingEnable:       true,
	}
}

// Device register ranges.
var (
	rangeVterm = linrange.Group{
		linrange.Init(3_500_000, 50_000, 0, 3),
		linrange.Init(4_000_000, 50_000, 4, 13),
	}
	rangeIset      = linrange.Init(32_000, 2_000, 16, 400)
	rangeIsetDisch = linrange.Init(268_090, 3_230, 83, 415)
	rangeVbusIlim  = linrange.Group{
		linrange.Init(100_000, 0, 1, 1),
		linrange.Init(500_000, 100_000, 5, 15),
	}
)

// Setpoints are the register indices Configure programmed and the values
// they stand for.
type Setpoints struct {
	VtermIdx, VtermRIdx, IsetIdx, IsetDischIdx, VbusIlimIdx uint16

	TermMicroV, TermWarmMicroV, CurrentMicroA, DischargeLimitMicroA, VbusLimitMicroA int32
}

type Device struct {
	i2c  drivers.I2C
	addr uint16
	cfg  Config

	set   Setpoints
	state State

	// Fixed buffers to avoid per-call heap allocations.
	w     [4]byte
	r     [1]byte
	frame [frameLen]byte
}

// New binds a device to the bus. Nothing is sent until Configure.
func New(i2c drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = AddressDefault
	}
	return &Device{i2c: i2c, addr: cfg.Address, cfg: cfg}
}

func (d *Device) Config() Config { return d.cfg }

// Setpoints returns what the last successful Configure programmed.
func (d *Device) Setpoints() Setpoints { return d.set }

// Configure validates the configuration and programs the charger: NTC
// profile, termination voltages, charge current, discharge limit, VBUS input
// limit, current measurement, the seed conversions and, when enabled,
// charging. Current setpoints round down to the nearest step; voltages and
// the VBUS limit must be exact. The first failing step aborts.
func (d *Device) Configure() error {
	if err := d.cfg.Validate(); err != nil {
		return err
	}
	var s Setpoints
	var err error

	if err = d.write(baseAdc, adcNtcrSel, d.cfg.Thermistor.ntcrSel()); err != nil {
		return stepErr("ntcr_sel", err)
	}

	if s.VtermIdx, err = rangeVterm.Exact(d.cfg.TermMicroV); err != nil {
		return stepErr("vterm", err)
	}
	if err = d.write(baseChgr, chgrVterm, byte(s.VtermIdx)); err != nil {
		return stepErr("vterm", err)
	}
	if s.VtermRIdx, err = rangeVterm.Exact(d.cfg.TermWarmMicroV); err != nil {
		return stepErr("vterm_r", err)
	}
	if err = d.write(baseChgr, chgrVtermR, byte(s.VtermRIdx)); err != nil {
		return stepErr("vterm_r", err)
	}

	// Round-down window is (target-step, target]: a request on a step is
	// programmed as is (150 mA stays 150 mA, not 148 mA).
	if s.IsetIdx, err = rangeIset.RoundDown(d.cfg.CurrentMicroA); err != nil {
		return stepErr("iset", err)
	}
	if err = d.write2(baseChgr, chgrIset, byte(s.IsetIdx/2), byte(s.IsetIdx&1)); err != nil {
		return stepErr("iset", err)
	}
	if s.IsetDischIdx, err = rangeIsetDisch.RoundDown(d.cfg.DischargeLimitMicroA); err != nil {
		return stepErr("iset_dischg", err)
	}
	if err = d.write2(baseChgr, chgrIsetDisch, byte(s.IsetDischIdx/2), byte(s.IsetDischIdx&1)); err != nil {
		return stepErr("iset_dischg", err)
	}

	if s.VbusIlimIdx, err = rangeVbusIlim.Exact(d.cfg.VbusLimitMicroA); err != nil {
		return stepErr("vbus_ilim", err)
	}
	if err = d.write(baseVbus, vbusIlim, byte(s.VbusIlimIdx)); err != nil {
		return stepErr("vbus_ilim", err)
	}

	if err = d.write(baseAdc, adcIbatEn, 1); err != nil {
		return stepErr("ibat_en", err)
	}
	if err = d.write(baseAdc, adcTaskVbat, 1); err != nil {
		return stepErr("task_vbat", err)
	}
	if err = d.write(baseAdc, adcTaskTemp, 1); err != nil {
		return stepErr("task_temp", err)
	}
	if d.cfg.ChargingEnable {
		if err = d.write(baseChgr, chgrEnSet, 1); err != nil {
			return stepErr("en_set", err)
		}
	}

	s.TermMicroV, _ = rangeVterm.Value(s.VtermIdx)
	s.TermWarmMicroV, _ = rangeVterm.Value(s.VtermRIdx)
	s.CurrentMicroA, _ = rangeIset.Value(s.IsetIdx)
	s.DischargeLimitMicroA, _ = rangeIsetDisch.Value(s.IsetDischIdx)
	s.VbusLimitMicroA, _ = rangeVbusIlim.Value(s.VbusIlimIdx)
	d.set = s
	return nil
}

// SetCharging starts or stops charging.
func (d *Device) SetCharging(on bool) error {
	reg := byte(chgrEnClr)
	if on {
		reg = chgrEnSet
	}
	if err := d.write(baseChgr, reg, 1); err != nil {
		return &errcode.E{C: busCode(err), Op: "npm1300.charging", Err: err}
	}
	d.cfg.ChargingEnable = on
	return nil
}

func stepErr(step string, err error) error {
	return &errcode.E{C: busCode(err), Op: "npm1300.configure", Msg: step, Err: err}
}

// busCode is the code of err, treating uncoded bus failures as transport
// errors.
func busCode(err error) errcode.Code {
	if c := errcode.Of(err); c != errcode.Error {
		return c
	}
	return errcode.Transport
}
