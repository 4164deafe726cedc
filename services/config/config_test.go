package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gaugecode-go/bus"
	"gaugecode-go/drivers/npm1300"
	"gaugecode-go/errcode"
	"gaugecode-go/types"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("gauge:\n  model: LP502540\n"))
	if err != nil {
		t.Fatal(err)
	}
	g := c.Gauge
	if g.Name != "internal" || g.Interval != time.Second || g.TermMilliV != 4150 || g.Thermistor != "10k" {
		t.Fatalf("defaults not applied: %+v", g)
	}
	if g.Model != "LP502540" || !g.ChargingEnabled() {
		t.Fatalf("gauge = %+v", g)
	}
	if c.Log.Level != "info" {
		t.Fatalf("log level = %q", c.Log.Level)
	}
}

func TestParseDurationAndHexAddr(t *testing.T) {
	c, err := Parse([]byte("gauge:\n  addr: 0x6C\n  interval: 250ms\n  charging: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Gauge.Addr != 0x6C || c.Gauge.Interval != 250*time.Millisecond || c.Gauge.ChargingEnabled() {
		t.Fatalf("gauge = %+v", c.Gauge)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":     "gauge: [",
		"thermistor":   "gauge:\n  thermistor: 22k\n",
		"interval":     "gauge:\n  interval: 1ms\n",
		"warm > term":  "gauge:\n  term_mv: 4000\n  term_warm_mv: 4100\n",
		"address":      "gauge:\n  addr: 200\n",
		"neg currents": "gauge:\n  charge_ma: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, errcode.InvalidParams) {
				t.Fatalf("err = %v, want invalid_params", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "gauge.yaml")
	if err := os.WriteFile(p, []byte("gauge:\n  name: aux\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Gauge.Name != "aux" {
		t.Fatalf("name = %q", c.Gauge.Name)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestEmbeddedBoardsDriveTheCharger(t *testing.T) {
	names := Boards()
	if len(names) == 0 {
		t.Fatal("no embedded boards")
	}
	for _, b := range names {
		c, err := Embedded(b)
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		if _, err := DriverConfig(c.Gauge); err != nil {
			t.Fatalf("%s: driver config: %v", b, err)
		}
	}
	if _, err := Embedded("nope"); !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("unknown board err = %v", err)
	}
}

func TestDriverConfigMapping(t *testing.T) {
	c, err := Embedded("pico2")
	if err != nil {
		t.Fatal(err)
	}
	d, err := DriverConfig(c.Gauge)
	if err != nil {
		t.Fatal(err)
	}
	want := npm1300.Config{
		Address:              npm1300.AddressDefault,
		TermMicroV:           4_200_000,
		TermWarmMicroV:       4_100_000,
		CurrentMicroA:        100_000,
		DischargeLimitMicroA: 500_000,
		VbusLimitMicroA:      500_000,
		Thermistor:           npm1300.ThermistorNone,
		ThermistorBeta:       3380,
		ChargingEnable:       true,
	}
	if d != want {
		t.Fatalf("driver config\n got %+v\nwant %+v", d, want)
	}
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Gauge.Validate(); err != nil {
		t.Fatal(err)
	}
	if _, err := DriverConfig(c.Gauge); err != nil {
		t.Fatal(err)
	}
}

func TestConfig_PublishEmbedded_Retained(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) {
		if board != "pico" {
			return nil, false
		}
		return []byte("gauge:\n  name: bench\n  interval: 3s\nlog:\n  level: debug\n"), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(nil)

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "pico")
	if err := svc.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}

	// Subscribed after publishing: retained messages still arrive.
	sub := conn.Subscribe(bus.T(configPrefix, bus.Plus))
	got := map[string]any{}
	deadline := time.After(600 * time.Millisecond)
	for len(got) < 2 {
		select {
		case m := <-sub.Channel():
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			got[key] = m.Payload
		case <-deadline:
			t.Fatalf("got %d retained messages, want 2", len(got))
		}
	}

	g, ok := got["gauge"].(types.GaugeConfig)
	if !ok {
		t.Fatalf("gauge payload type %T", got["gauge"])
	}
	if g.Name != "bench" || g.Interval != 3*time.Second {
		t.Fatalf("gauge = %+v", g)
	}
	if l, ok := got["log"].(types.LogConfig); !ok || l.Level != "debug" {
		t.Fatalf("log payload = %#v", got["log"])
	}
}

func TestConfig_MissingBoard(t *testing.T) {
	svc := NewConfigService(nil)
	b := bus.NewBus(4)
	if err := svc.Start(context.Background(), b.NewConnection("c")); err == nil {
		t.Fatal("expected error without a board ID")
	}
}

func TestConfig_ExplicitSource(t *testing.T) {
	src := Default()
	src.Gauge.Name = "file"
	b := bus.NewBus(4)
	conn := b.NewConnection("c")
	if err := NewConfigService(&src).Start(context.Background(), conn); err != nil {
		t.Fatal(err)
	}
	sub := conn.Subscribe(bus.T(configPrefix, "gauge"))
	select {
	case m := <-sub.Channel():
		if m.Payload.(types.GaugeConfig).Name != "file" {
			t.Fatalf("payload = %+v", m.Payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no retained gauge config")
	}
}
