// Package gauge runs the fuel-gauge loop: it seeds a battery model from a
// first charger sample and then feeds it one (V, I, T, Δt) sample per tick.
package gauge

import (
	"errors"
	"time"

	"gaugecode-go/battery"
	"gaugecode-go/errcode"
	"gaugecode-go/sensor"
	"gaugecode-go/x/timex"
)

var (
	ErrNotReady = &errcode.E{C: errcode.NotReady, Op: "gauge", Msg: "not initialised"}
	ErrNoModel  = &errcode.E{C: errcode.InvalidParams, Op: "gauge", Msg: "no battery model"}
)

// minDelta keeps Δt strictly positive when two ticks share a timestamp.
const minDelta = time.Millisecond

// fallbackCelsius stands in for the cell temperature when no thermistor is
// fitted.
const fallbackCelsius = 25

// InitParams seeds a Model. Units: V, A (positive = discharge), °C.
type InitParams struct {
	V0, I0, T0 float32
	Battery    *battery.Model
}

// Model is the state-of-charge estimator. Process and the queries return NaN
// where a value does not apply.
type Model interface {
	Init(p InitParams) error
	// Process consumes one sample taken dt seconds after the previous one and
	// returns SoC in percent.
	Process(v, i, t, dt float32) float32
	// TTE is the predicted time to empty in seconds.
	TTE() float32
	// TTF is the predicted time to full in seconds for a charge at icc that
	// terminates at iterm (both negative, A).
	TTF(icc, iterm float32) float32
	// Idle reports an expected average current for a quiet period without
	// samples.
	Idle(v, t, iAvg float32)
}

// Sensor is the charger the loop samples. *npm1300.Device implements it.
type Sensor interface {
	Configure() error
	SampleFetch() error
	ChannelGet(ch sensor.Channel) (sensor.Value, error)
}

type State uint8

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Gauge is driven by a single goroutine.
type Gauge struct {
	dev Sensor
	m   Model
	bm  *battery.Model
	clk timex.Clock

	state   State
	initErr error

	maxCharge  float32 // A
	termCharge float32 // A
	ref        time.Time
	last       Reading
}

// New wires a gauge. A nil Model selects the Coulomb model; a nil clock the
// system clock.
func New(dev Sensor, m Model, bm *battery.Model, clk timex.Clock) *Gauge {
	if m == nil {
		m = NewCoulomb()
	}
	if clk == nil {
		clk = timex.System{}
	}
	return &Gauge{dev: dev, m: m, bm: bm, clk: clk}
}

func (g *Gauge) State() State { return g.state }

// Err is the init error while Failed.
func (g *Gauge) Err() error { return g.initErr }

// ChargeCurrents returns the nominal and termination charge currents in A.
func (g *Gauge) ChargeCurrents() (nominal, term float32) { return g.maxCharge, g.termCharge }

// Last is the most recent reading.
func (g *Gauge) Last() Reading { return g.last }

// Init configures the charger, takes a first sample, records the charge
// currents and seeds the model. It runs once: a second call returns nil when
// Ready and the original error when Failed.
func (g *Gauge) Init() error {
	switch g.state {
	case Ready:
		return nil
	case Failed:
		return g.initErr
	}
	g.state = Initializing
	if err := g.init(); err != nil {
		g.state, g.initErr = Failed, err
		return err
	}
	g.state = Ready
	return nil
}

func (g *Gauge) init() error {
	if g.bm == nil {
		return ErrNoModel
	}
	if err := g.dev.Configure(); err != nil {
		return err
	}
	v, i, t, err := g.read()
	if err != nil {
		return err
	}
	cc, err := g.dev.ChannelGet(sensor.ChanGaugeDesiredChargingCurrent)
	if err != nil {
		return err
	}
	g.maxCharge = cc.Float32()
	g.termCharge = g.maxCharge / 10

	if err := g.m.Init(InitParams{V0: v, I0: i, T0: t, Battery: g.bm}); err != nil {
		if errcode.Of(err) == errcode.Error {
			err = errcode.Wrap(errcode.ModelError, "gauge.init", err)
		}
		return err
	}
	g.ref = g.clk.Now()
	g.last = Reading{V: v, I: i, T: t, SoC: nan32(), TTE: nan32(), TTF: nan32()}
	return nil
}

// read fetches a fresh sample and converts it to V, A, °C.
func (g *Gauge) read() (v, i, t float32, err error) {
	if err = g.dev.SampleFetch(); err != nil {
		return
	}
	var val sensor.Value
	if val, err = g.dev.ChannelGet(sensor.ChanGaugeVoltage); err != nil {
		return
	}
	v = val.Float32()
	if val, err = g.dev.ChannelGet(sensor.ChanGaugeTemp); err != nil {
		if !errors.Is(err, errcode.Unavailable) {
			return
		}
		val, err = sensor.FromMilli(fallbackCelsius*1000), nil
	}
	t = val.Float32()
	if val, err = g.dev.ChannelGet(sensor.ChanGaugeAvgCurrent); err != nil {
		return
	}
	i = val.Float32()
	return
}

// Update samples the charger and advances the model. A failed sample leaves
// the time reference alone so the next tick covers the whole gap.
func (g *Gauge) Update() (Reading, error) {
	switch g.state {
	case Ready:
	case Failed:
		return Reading{}, g.initErr
	default:
		return Reading{}, ErrNotReady
	}

	v, i, t, err := g.read()
	if err != nil {
		return Reading{}, err
	}
	now := g.clk.Now()
	d := now.Sub(g.ref)
	if d < minDelta {
		d = minDelta
	}
	g.ref = now
	dt := float32(d.Seconds())

	r := Reading{V: v, I: i, T: t, DeltaT: dt}
	r.SoC = g.m.Process(v, i, t, dt)
	r.TTE = g.m.TTE()
	r.TTF = g.m.TTF(-g.maxCharge, -g.termCharge)
	g.last = r
	return r, nil
}

// Idle tells the model the system is about to go quiet drawing iAvg (A).
func (g *Gauge) Idle(iAvg float32) error {
	if g.state != Ready {
		return ErrNotReady
	}
	g.m.Idle(g.last.V, g.last.T, iAvg)
	return nil
}
