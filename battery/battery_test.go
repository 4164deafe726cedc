package battery

import (
	"errors"
	"math"
	"testing"

	"gaugecode-go/errcode"
)

func TestLoadEmbedded(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "LP502540" || names[1] != "LP803448" {
		t.Fatalf("Names = %v", names)
	}
	m, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != DefaultName || m.CapacityMilliAh != 1500 {
		t.Fatalf("default model = %+v", m)
	}
	if _, err := Load("lp502540"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("nope"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("unknown model: %v", err)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"no name":      "capacity_mah: 10\nocv: [{soc: 0, v: 3}, {soc: 100, v: 4}]\n",
		"no capacity":  "name: x\nocv: [{soc: 0, v: 3}, {soc: 100, v: 4}]\n",
		"short curve":  "name: x\ncapacity_mah: 10\nocv: [{soc: 0, v: 3}]\n",
		"falling soc":  "name: x\ncapacity_mah: 10\nocv: [{soc: 50, v: 3}, {soc: 10, v: 4}]\n",
		"falling volt": "name: x\ncapacity_mah: 10\nocv: [{soc: 0, v: 4}, {soc: 100, v: 3}]\n",
		"not yaml":     "name: [x\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); errcode.Of(err) != errcode.InvalidPayload {
			t.Errorf("%s: got %v", name, err)
		}
	}
}

func TestCurveLookups(t *testing.T) {
	m, _ := Load(DefaultName)
	if got := m.SoCAt(3.80); math.Abs(got-50) > 1e-9 {
		t.Fatalf("SoCAt(3.80) = %v", got)
	}
	if got := m.SoCAt(3.78); math.Abs(got-45) > 1e-6 {
		t.Fatalf("SoCAt(3.78) = %v", got)
	}
	if m.SoCAt(2.5) != 0 || m.SoCAt(4.4) != 100 {
		t.Fatal("SoCAt does not clamp")
	}
	for soc := 0.0; soc <= 100; soc += 2.5 {
		if back := m.SoCAt(m.VoltsAt(soc)); math.Abs(back-soc) > 1e-6 {
			t.Fatalf("round trip at %v gave %v", soc, back)
		}
	}
	if m.ClampTemp(-20) != 5 || m.ClampTemp(60) != 45 || m.ClampTemp(30) != 30 {
		t.Fatal("ClampTemp")
	}
}

func TestCapacityAt(t *testing.T) {
	m, _ := Load(DefaultName)
	cases := []struct {
		t, want float64
	}{
		{25, 1500},
		{40, 1500},
		{15, 1500 * 0.95},
		{5, 1500 * 0.90},
		{-20, 1500 * 0.90}, // held to the 5 °C floor
	}
	for _, c := range cases {
		if got := m.CapacityAt(c.t); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("CapacityAt(%v) = %v, want %v", c.t, got, c.want)
		}
	}
}
