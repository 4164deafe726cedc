package gauge

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edaniels/golog"

	"gaugecode-go/bus"
	"gaugecode-go/drivers/npm1300/npm1300sim"
	"gaugecode-go/errcode"
	"gaugecode-go/types"
)

// syncBuffer guards the telemetry output shared with the worker.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (w *syncBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

type fixture struct {
	sim    *npm1300sim.Sim
	bus    *bus.Bus
	client *bus.Connection
	out    *syncBuffer
}

// start runs a service against a simulated charger reporting 3.906 V,
// 62 mA discharge, 25 °C.
func start(t *testing.T) *fixture {
	t.Helper()
	sim := npm1300sim.New()
	sim.SetResults([npm1300sim.ResultsLen]byte{0: 0x04, 1: 0xC8, 2: 0x80, 8: 0x10})

	b := bus.NewBus(32)
	out := &syncBuffer{}
	svc := New(sim, golog.NewTestLogger(t))
	svc.Out = out

	// The worker must be gone before the test logger is.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	conn := b.NewConnection("gauge")
	go func() {
		svc.Run(ctx, conn)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &fixture{sim: sim, bus: b, client: b.NewConnection("client"), out: out}
}

func (f *fixture) configure(c types.GaugeConfig) {
	if c.Interval == 0 {
		c.Interval = 20 * time.Millisecond
	}
	f.client.Publish(f.client.NewMessage(topicConfigGauge, c, true))
}

func waitFor[T any](t *testing.T, sub *bus.Subscription, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if v, is := m.Payload.(T); is && ok(v) {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T on %v", zero, sub.Topic())
			return zero
		}
	}
}

func (f *fixture) request(t *testing.T, verb string, payload any) types.ControlReply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg := f.client.NewMessage(capTopic(types.KindBattery, "internal", "control", verb), payload, false)
	rep, err := f.client.RequestWait(ctx, msg)
	if err != nil {
		t.Fatalf("%s: %v", verb, err)
	}
	r, ok := rep.Payload.(types.ControlReply)
	if !ok {
		t.Fatalf("%s: reply payload %T", verb, rep.Payload)
	}
	return r
}

func TestPublishesValues(t *testing.T) {
	f := start(t)
	f.configure(types.GaugeConfig{Name: "internal"})

	vals := f.client.Subscribe(capTopic(types.KindBattery, "internal", "value"))
	bv := waitFor(t, vals, func(types.BatteryValue) bool { return true })
	if bv.VoltageMilliV != 3906 || bv.CurrentMilliA != 62 {
		t.Fatalf("battery value %+v", bv)
	}
	if math.Abs(float64(bv.TempMilliC)-25000) > 500 {
		t.Fatalf("temp = %d", bv.TempMilliC)
	}
	if bv.SoCPercent <= 0 || bv.SoCPercent >= 100 || bv.TTESeconds <= 0 || bv.TTFSeconds != -1 {
		t.Fatalf("model output %+v", bv)
	}

	st := f.client.Subscribe(capTopic(types.KindBattery, "internal", "status"))
	waitFor(t, st, func(s types.CapabilityStatus) bool { return s.Link == types.LinkUp })

	chg := f.client.Subscribe(capTopic(types.KindCharger, "internal", "value"))
	cv := waitFor(t, chg, func(types.ChargerValue) bool { return true })
	if !cv.Charging || cv.Regime != "discharge" {
		t.Fatalf("charger value %+v", cv)
	}

	info := f.client.Subscribe(capTopic(types.KindCharger, "internal", "info"))
	ci := waitFor(t, info, func(types.ChargerInfo) bool { return true })
	if ci.TermMilliV != 4150 || ci.ChargeMicroA != 150_000 || ci.Thermistor != "10k" {
		t.Fatalf("charger info %+v", ci)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.out.String() == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if line := f.out.String(); !strings.HasPrefix(line, "V: 3.906, I: 0.062, T: 25.00") {
		t.Fatalf("telemetry %q", line)
	}
}

func TestControls(t *testing.T) {
	f := start(t)
	f.configure(types.GaugeConfig{Name: "internal", Interval: time.Hour})
	state := f.client.Subscribe(topicState)
	waitFor(t, state, func(s types.ServiceState) bool { return s.Level == "ready" })

	rep := f.request(t, verbRead, types.ReadNow{})
	if !rep.OK {
		t.Fatalf("read: %+v", rep)
	}
	if bv, ok := rep.Value.(types.BatteryValue); !ok || bv.VoltageMilliV != 3906 {
		t.Fatalf("read value %#v", rep.Value)
	}

	if rep = f.request(t, verbRead, nil); !rep.OK {
		t.Fatalf("read with nil payload: %+v", rep)
	}
	if rep = f.request(t, verbRead, types.ChargingEnable{}); rep.OK || rep.Error != string(errcode.InvalidPayload) {
		t.Fatalf("read with wrong payload: %+v", rep)
	}

	rep = f.request(t, verbCharging, types.ChargingEnable{On: false})
	if !rep.OK || f.sim.Charging() {
		t.Fatalf("charging off: %+v, sim charging %v", rep, f.sim.Charging())
	}
	if cv, ok := rep.Value.(types.ChargerValue); !ok || cv.Charging {
		t.Fatalf("charger value %#v", rep.Value)
	}

	if rep = f.request(t, verbIdle, types.IdleCurrent{MilliA: 0.5}); !rep.OK {
		t.Fatalf("idle: %+v", rep)
	}
	if rep = f.request(t, verbIdle, "bogus"); rep.OK || rep.Error != string(errcode.InvalidPayload) {
		t.Fatalf("bad idle payload: %+v", rep)
	}
	if rep = f.request(t, "reboot", nil); rep.OK || rep.Error != string(errcode.Unsupported) {
		t.Fatalf("unknown verb: %+v", rep)
	}
}

func TestInitFailure(t *testing.T) {
	f := start(t)
	f.sim.SetAddress(0x10)
	f.configure(types.GaugeConfig{Name: "internal"})

	state := f.client.Subscribe(topicState)
	s := waitFor(t, state, func(s types.ServiceState) bool { return s.Level == "failed" })
	if s.Error != string(errcode.Transport) {
		t.Fatalf("state %+v", s)
	}
	st := f.client.Subscribe(capTopic(types.KindBattery, "internal", "status"))
	waitFor(t, st, func(s types.CapabilityStatus) bool { return s.Link == types.LinkDown })

	if rep := f.request(t, verbRead, nil); rep.OK || rep.Error != string(errcode.NotReady) {
		t.Fatalf("read while failed: %+v", rep)
	}

	// A new config retries bring-up.
	f.sim.SetAddress(npm1300sim.Address)
	f.configure(types.GaugeConfig{Name: "internal"})
	waitFor(t, state, func(s types.ServiceState) bool { return s.Level == "ready" })
}

func TestBadConfigFails(t *testing.T) {
	f := start(t)
	f.configure(types.GaugeConfig{Name: "internal", Model: "NOPE"})
	state := f.client.Subscribe(topicState)
	s := waitFor(t, state, func(s types.ServiceState) bool { return s.Level == "failed" })
	if s.Error == "" {
		t.Fatalf("state %+v", s)
	}
}

func TestReadFailureDegrades(t *testing.T) {
	f := start(t)
	f.configure(types.GaugeConfig{Name: "internal"})
	st := f.client.Subscribe(capTopic(types.KindBattery, "internal", "status"))
	waitFor(t, st, func(s types.CapabilityStatus) bool { return s.Link == types.LinkUp })

	f.sim.Fail(npm1300sim.BaseAdc, npm1300sim.OffResults, errors.New("nak"), -1)
	s := waitFor(t, st, func(s types.CapabilityStatus) bool { return s.Link == types.LinkDegraded })
	if s.Error != string(errcode.Transport) {
		t.Fatalf("status %+v", s)
	}

	f.sim.ClearFaults()
	waitFor(t, st, func(s types.CapabilityStatus) bool { return s.Link == types.LinkUp })
}

func TestSeconds(t *testing.T) {
	nan := float32(math.NaN())
	cases := []struct {
		in   float32
		want int64
	}{
		{nan, -1},
		{float32(math.Inf(1)), -1},
		{-3, -1},
		{0, 0},
		{86999.6, 87000},
	}
	for _, c := range cases {
		if got := seconds(c.in); got != c.want {
			t.Errorf("seconds(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
