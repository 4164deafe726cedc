package gauge

import (
	"math"
	"strconv"
)

// Reading is one tick of the loop. V in volts, I in amps (positive =
// discharge), T in °C, SoC in percent, TTE and TTF in seconds (NaN when not
// applicable), DeltaT in seconds.
type Reading struct {
	V, I, T  float32
	SoC      float32
	TTE, TTF float32
	DeltaT   float32
}

// String is the telemetry line:
// "V: 3.906, I: 0.062, T: 25.00, SoC: 51.20, TTE: 87000, TTF: NaN".
func (r Reading) String() string {
	b := make([]byte, 0, 80)
	b = appendField(b, "V: ", r.V, 3)
	b = appendField(b, ", I: ", r.I, 3)
	b = appendField(b, ", T: ", r.T, 2)
	b = appendField(b, ", SoC: ", r.SoC, 2)
	b = appendField(b, ", TTE: ", r.TTE, 0)
	b = appendField(b, ", TTF: ", r.TTF, 0)
	return string(b)
}

func appendField(b []byte, label string, v float32, prec int) []byte {
	b = append(b, label...)
	return strconv.AppendFloat(b, float64(v), 'f', prec, 32)
}

func nan32() float32 { return float32(math.NaN()) }
