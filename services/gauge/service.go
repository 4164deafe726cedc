// Package gauge runs the fuel-gauge loop as a bus service: it waits for
// config/gauge, brings up the charger and the gauge, then publishes battery
// and charger values on every tick.
package gauge

import (
	"context"
	"io"
	"math"
	"time"

	"tinygo.org/x/drivers"

	"gaugecode-go/battery"
	"gaugecode-go/bus"
	"gaugecode-go/drivers/npm1300"
	"gaugecode-go/errcode"
	fg "gaugecode-go/gauge"
	"gaugecode-go/services/config"
	"gaugecode-go/types"
	"gaugecode-go/x/logx"
	"gaugecode-go/x/strx"
	"gaugecode-go/x/timex"
)

// Service owns the charger device and the gauge. All device access happens
// on the worker goroutine.
type Service struct {
	I2C   drivers.I2C
	Log   logx.Logger
	Out   io.Writer   // telemetry lines; nil disables
	Clock timex.Clock // nil = system clock

	// NewModel builds the gauge model; nil selects the Coulomb model.
	NewModel func() fg.Model

	cfg  types.GaugeConfig
	bm   *battery.Model
	dev  *npm1300.Device
	g    *fg.Gauge
	link types.Link
	tick *time.Ticker
	ctl  *bus.Subscription
}

func New(i2c drivers.I2C, log logx.Logger) *Service {
	if log == nil {
		log = logx.Nop{}
	}
	return &Service{I2C: i2c, Log: log}
}

// Start launches the worker.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.Run(ctx, conn)
	return nil
}

// Run is the worker loop. It returns when ctx is done.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigGauge)
	defer conn.Unsubscribe(cfgSub)

	s.publishState(conn, "idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.teardown(conn)
			s.publishState(conn, "stopped", "", nil)
			s.Log.Infof("gauge service stopping")
			return

		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.teardown(conn)
				return
			}
			c, ok := msg.Payload.(types.GaugeConfig)
			if !ok {
				s.Log.Warnf("ignoring config payload %T", msg.Payload)
				continue
			}
			s.teardown(conn)
			s.setup(conn, c)

		case <-s.tickC():
			s.update(conn)

		case msg, ok := <-s.ctlC():
			if !ok {
				s.ctl = nil
				continue
			}
			s.control(conn, msg)
		}
	}
}

// tickC and ctlC are nil (never ready) until a config has been applied.
func (s *Service) tickC() <-chan time.Time {
	if s.tick == nil {
		return nil
	}
	return s.tick.C
}

func (s *Service) ctlC() <-chan *bus.Message {
	if s.ctl == nil {
		return nil
	}
	return s.ctl.Channel()
}

// setup builds the device and gauge for c and runs Init. On failure the
// service idles until the next config.
func (s *Service) setup(conn *bus.Connection, c types.GaugeConfig) {
	c.ApplyDefaults()
	s.cfg = c
	s.link = ""
	s.ctl = conn.Subscribe(controlTopic(c.Name))

	if err := s.bringUp(conn, c); err != nil {
		s.Log.Errorf("Could not initialise fuel gauge: %v", err)
		s.publishStatus(conn, types.LinkDown, err)
		s.publishState(conn, "failed", "init", err)
		return
	}

	s.tick = time.NewTicker(c.Interval)
	s.publishState(conn, "ready", "", nil)
	s.Log.Infof("fuel gauge %q ready, model %s, every %v", c.Name, s.bm.Name, c.Interval)
}

func (s *Service) bringUp(conn *bus.Connection, c types.GaugeConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dcfg, err := config.DriverConfig(c)
	if err != nil {
		return err
	}
	bm, err := battery.Load(strx.Coalesce(c.Model, battery.DefaultName))
	if err != nil {
		return err
	}
	s.bm = bm
	var m fg.Model
	if s.NewModel != nil {
		m = s.NewModel()
	}
	s.dev = npm1300.New(s.I2C, dcfg)
	s.g = fg.New(s.dev, m, bm, s.Clock)
	if err := s.g.Init(); err != nil {
		return err
	}

	set := s.dev.Setpoints()
	conn.Publish(conn.NewMessage(capTopic(types.KindBattery, c.Name, "info"), types.BatteryInfo{
		Model:           bm.Name,
		CapacityMilliAh: bm.CapacityMilliAh,
		Bus:             c.Bus,
		Addr:            dcfg.Address,
	}, true))
	conn.Publish(conn.NewMessage(capTopic(types.KindCharger, c.Name, "info"), types.ChargerInfo{
		TermMilliV:           set.TermMicroV / 1000,
		TermWarmMilliV:       set.TermWarmMicroV / 1000,
		ChargeMicroA:         set.CurrentMicroA,
		DischargeLimitMicroA: set.DischargeLimitMicroA,
		VbusLimitMicroA:      set.VbusLimitMicroA,
		Thermistor:           dcfg.Thermistor.String(),
	}, true))
	return nil
}

func (s *Service) teardown(conn *bus.Connection) {
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	if s.ctl != nil {
		conn.Unsubscribe(s.ctl)
		s.ctl = nil
	}
	s.dev, s.g, s.bm = nil, nil, nil
}

// update runs one gauge tick and publishes the outcome.
func (s *Service) update(conn *bus.Connection) (types.BatteryValue, error) {
	r, err := s.g.Update()
	if err != nil {
		s.Log.Errorf("Could not read from charger device: %v", err)
		s.publishStatus(conn, types.LinkDegraded, err)
		return types.BatteryValue{}, err
	}
	now := timex.NowMs()
	bv := batteryValue(r, now)
	conn.Publish(conn.NewMessage(capTopic(types.KindBattery, s.cfg.Name, "value"), bv, true))
	conn.Publish(conn.NewMessage(capTopic(types.KindCharger, s.cfg.Name, "value"), s.chargerValue(now), true))
	s.publishStatus(conn, types.LinkUp, nil)
	if s.Out != nil {
		_, _ = io.WriteString(s.Out, r.String()+"\n")
	}
	s.Log.Debugf("%s", r)
	return bv, nil
}

func (s *Service) control(conn *bus.Connection, msg *bus.Message) {
	if len(msg.Topic) < 5 {
		return
	}
	verb, _ := msg.Topic[4].(string)
	val, err := s.do(conn, verb, msg.Payload)
	rep := types.ControlReply{OK: err == nil}
	if err == nil {
		rep.Value = val
	} else {
		rep.Error = string(errcode.Of(err))
		s.Log.Warnf("control %q failed: %v", verb, err)
	}
	conn.Reply(msg, rep, false)
}

func (s *Service) do(conn *bus.Connection, verb string, payload any) (any, error) {
	switch verb {
	case verbRead, verbCharging, verbIdle:
	default:
		return nil, errcode.Unsupported
	}
	if s.g == nil || s.g.State() != fg.Ready {
		return nil, errcode.NotReady
	}

	switch verb {
	case verbRead:
		switch payload.(type) {
		case nil, types.ReadNow:
		default:
			return nil, errcode.InvalidPayload
		}
		return s.update(conn)
	case verbCharging:
		p, ok := payload.(types.ChargingEnable)
		if !ok {
			return nil, errcode.InvalidPayload
		}
		if err := s.dev.SetCharging(p.On); err != nil {
			return nil, err
		}
		s.Log.Infof("charging %s", onOff(p.On))
		return s.chargerValue(timex.NowMs()), nil
	default: // verbIdle
		p, ok := payload.(types.IdleCurrent)
		if !ok || !(p.MilliA >= 0) {
			return nil, errcode.InvalidPayload
		}
		return nil, s.g.Idle(p.MilliA / 1000)
	}
}

// publishStatus publishes the capability status when the link changes.
func (s *Service) publishStatus(conn *bus.Connection, l types.Link, err error) {
	if l == s.link && err == nil {
		return
	}
	s.link = l
	st := types.CapabilityStatus{Link: l, TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	conn.Publish(conn.NewMessage(capTopic(types.KindBattery, s.cfg.Name, "status"), st, true))
}

func (s *Service) publishState(conn *bus.Connection, level, status string, err error) {
	st := types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	conn.Publish(conn.NewMessage(topicState, st, true))
}

func (s *Service) chargerValue(now int64) types.ChargerValue {
	st := s.dev.State()
	return types.ChargerValue{
		Status:      uint8(st.Status),
		Error:       uint8(st.Error),
		Vbus:        uint8(st.Vbus),
		Regime:      st.Ibat.String(),
		VbusPresent: st.Vbus.Has(npm1300.VbusPresent),
		Charging:    s.dev.Config().ChargingEnable,
		Complete:    st.Status.Has(npm1300.StatCompleted),
		TS:          now,
	}
}

func batteryValue(r fg.Reading, now int64) types.BatteryValue {
	return types.BatteryValue{
		VoltageMilliV: int32(math.Round(float64(r.V) * 1000)),
		CurrentMilliA: int32(math.Round(float64(r.I) * 1000)),
		TempMilliC:    int32(math.Round(float64(r.T) * 1000)),
		SoCPercent:    r.SoC,
		TTESeconds:    seconds(r.TTE),
		TTFSeconds:    seconds(r.TTF),
		TS:            now,
	}
}

// seconds maps NaN and infinities to -1.
func seconds(f float32) int64 {
	x := float64(f)
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return -1
	}
	return int64(math.Round(x))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
