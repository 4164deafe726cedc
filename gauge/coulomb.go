package gauge

import (
	"math"

	"gaugecode-go/battery"
	"gaugecode-go/errcode"
)

var ErrModelParams = &errcode.E{C: errcode.ModelError, Op: "gauge.coulomb", Msg: "invalid init parameters"}

const (
	// Time constant of the current average behind TTE/TTF.
	avgTau = 60.0 // s
	// Below this fraction of 1C the cell counts as resting and SoC relaxes
	// towards the open-circuit estimate over restTau.
	restC   = 0.01
	restTau = 600.0 // s
	// CC/CV knee for the time-to-full estimate.
	cvKnee = 80.0 // %
	// Currents within this band of zero (A) have no TTE/TTF.
	deadband = 1e-4
)

// Coulomb is a Coulomb-counting SoC estimator seeded and corrected from the
// cell's open-circuit voltage curve. It stands in for a vendor library.
type Coulomb struct {
	bm   *battery.Model
	soc  float64 // %
	iAvg float64 // A, positive = discharge
	temp float64 // °C, last sample
	init bool
}

func NewCoulomb() *Coulomb { return &Coulomb{} }

func finite(xs ...float32) bool {
	for _, x := range xs {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

func (c *Coulomb) Init(p InitParams) error {
	if p.Battery == nil || !finite(p.V0, p.I0, p.T0) || p.V0 <= 0 {
		return ErrModelParams
	}
	if err := p.Battery.Validate(); err != nil {
		return errcode.Wrap(errcode.ModelError, "gauge.coulomb", err)
	}
	c.bm = p.Battery
	c.iAvg = float64(p.I0)
	c.temp = float64(p.T0)
	c.soc = c.bm.SoCAt(c.ocv(float64(p.V0), float64(p.I0)))
	c.init = true
	return nil
}

// ocv removes the IR drop from a terminal voltage.
func (c *Coulomb) ocv(v, i float64) float64 { return v + i*c.bm.ResistanceOhm }

// capacityAh is the usable capacity at the last sampled temperature.
func (c *Coulomb) capacityAh() float64 { return c.bm.CapacityAt(c.temp) / 1000 }

func (c *Coulomb) Process(v, i, t, dt float32) float32 {
	if !c.init {
		return nan32()
	}
	if !finite(v, i, t, dt) || dt <= 0 {
		return float32(c.soc)
	}
	d, a := float64(dt), float64(i)
	c.temp = float64(t)

	c.soc -= a * d / 3600 / c.capacityAh() * 100

	if math.Abs(a) < restC*c.capacityAh() {
		w := d / (restTau + d)
		c.soc += w * (c.bm.SoCAt(c.ocv(float64(v), a)) - c.soc)
	}
	c.soc = min(max(c.soc, 0), 100)

	k := d / (avgTau + d)
	c.iAvg += k * (a - c.iAvg)
	return float32(c.soc)
}

func (c *Coulomb) TTE() float32 {
	if !c.init || c.iAvg <= deadband {
		return nan32()
	}
	remAh := c.soc / 100 * c.capacityAh()
	return float32(remAh / c.iAvg * 3600)
}

// TTF splits the charge into a constant-current part up to the CV knee and
// a constant-voltage tail where the current decays exponentially from icc to
// iterm.
func (c *Coulomb) TTF(icc, iterm float32) float32 {
	if !c.init || c.iAvg >= -deadband {
		return nan32()
	}
	cc := math.Abs(float64(icc))
	if cc < deadband {
		cc = -c.iAvg
	}
	term := math.Abs(float64(iterm))
	if term <= 0 || term >= cc {
		term = cc / 10
	}
	capAh := c.capacityAh()

	var secs float64
	if c.soc < cvKnee {
		secs += (cvKnee - c.soc) / 100 * capAh / cc * 3600
	}
	// CV tail: charge Q = cc·τ·(1 − term/cc) over the last (100 − knee) %.
	qcv := (100 - cvKnee) / 100 * capAh
	tau := qcv / (cc * (1 - term/cc)) // h
	left := (100 - max(c.soc, cvKnee)) / 100 * capAh
	iNow := term + left/tau
	if iNow > term {
		secs += tau * math.Log(iNow/term) * 3600
	}
	return float32(secs)
}

// Idle sets the current average to the expected idle draw so TTE reflects
// the quiet period.
func (c *Coulomb) Idle(v, t, iAvg float32) {
	if !c.init || !finite(iAvg) {
		return
	}
	if finite(t) {
		c.temp = float64(t)
	}
	c.iAvg = float64(iAvg)
}

// SoC is the current estimate in percent.
func (c *Coulomb) SoC() float32 { return float32(c.soc) }
