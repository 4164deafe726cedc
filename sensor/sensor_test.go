package sensor

import (
	"math"
	"testing"
)

func TestFromMilli(t *testing.T) {
	cases := []struct {
		in   int32
		want Value
	}{
		{3906, Value{3, 906000}},
		{-75, Value{0, -75000}},
		{-1075, Value{-1, -75000}},
		{0, Value{}},
	}
	for _, c := range cases {
		got := FromMilli(c.in)
		if got != c.want {
			t.Fatalf("FromMilli(%d) = %+v, want %+v", c.in, got, c.want)
		}
		if !got.Valid() {
			t.Fatalf("FromMilli(%d) broke the invariant: %+v", c.in, got)
		}
	}
}

func TestFromMicro(t *testing.T) {
	if got := FromMicro(150000); got != (Value{0, 150000}) {
		t.Fatalf("FromMicro(150000) = %+v", got)
	}
	if got := FromMicro(1000000); got != (Value{1, 0}) {
		t.Fatalf("FromMicro(1e6) = %+v", got)
	}
	if got := FromMicro(-2500000); got != (Value{-2, -500000}) {
		t.Fatalf("FromMicro(-2.5e6) = %+v", got)
	}
}

func TestFromFloat(t *testing.T) {
	v := FromFloat(24.5)
	if v.Val1 != 24 || math.Abs(float64(v.Val2)-500000) > 1 {
		t.Fatalf("FromFloat(24.5) = %+v", v)
	}
	v = FromFloat(-3.25)
	if v.Val1 != -3 || math.Abs(float64(v.Val2)+250000) > 1 || !v.Valid() {
		t.Fatalf("FromFloat(-3.25) = %+v", v)
	}
	if FromFloat(math.NaN()) != (Value{}) {
		t.Fatal("NaN should map to zero")
	}
}

func TestFloatAndString(t *testing.T) {
	v := Value{0, -75000}
	if got := v.Float64(); math.Abs(got+0.075) > 1e-12 {
		t.Fatalf("Float64 = %v", got)
	}
	if got := v.String(); got != "-0.075000" {
		t.Fatalf("String = %q", got)
	}
	if got := (Value{3, 906000}).String(); got != "3.906000" {
		t.Fatalf("String = %q", got)
	}
	if (Value{1, -5}).Valid() || (Value{0, 1000000}).Valid() {
		t.Fatal("Valid accepted a malformed value")
	}
}

func TestChannelString(t *testing.T) {
	if ChanGaugeVoltage.String() != "gauge_voltage" {
		t.Fatal(ChanGaugeVoltage.String())
	}
	if ChanNPM1300ChargerError.String() != "npm1300_charger_error" {
		t.Fatal(ChanNPM1300ChargerError.String())
	}
	if ChanNPM1300ChargerStatus != ChanPrivStart {
		t.Fatal("private channels start at ChanPrivStart")
	}
}
