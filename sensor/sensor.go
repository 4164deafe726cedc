// Package sensor defines the channel identifiers and the fixed-point value
// type exchanged between sensor drivers and their consumers.
package sensor

import (
	"math"
	"strconv"

	"gaugecode-go/x/mathx"
)

// Channel identifies one measured or configured quantity.
type Channel uint16

const (
	ChanAccelX Channel = iota
	ChanAccelY
	ChanAccelZ
	ChanAccelXYZ
	ChanGyroX
	ChanGyroY
	ChanGyroZ
	ChanGyroXYZ
	ChanMagnX
	ChanMagnY
	ChanMagnZ
	ChanMagnXYZ
	ChanDieTemp
	ChanAmbientTemp
	ChanPress
	ChanProx
	ChanHumidity
	ChanLight
	ChanVoltage
	ChanCurrent
	ChanPower
	ChanResistance

	ChanGaugeVoltage
	ChanGaugeAvgCurrent
	ChanGaugeStdbyCurrent
	ChanGaugeMaxLoadCurrent
	ChanGaugeTemp
	ChanGaugeStateOfCharge
	ChanGaugeFullChargeCapacity
	ChanGaugeRemainingChargeCapacity
	ChanGaugeNomAvailCapacity
	ChanGaugeFullAvailCapacity
	ChanGaugeAvgPower
	ChanGaugeStateOfHealth
	ChanGaugeTimeToEmpty
	ChanGaugeTimeToFull
	ChanGaugeCycleCount
	ChanGaugeDesignVoltage
	ChanGaugeDesiredVoltage
	ChanGaugeDesiredChargingCurrent

	ChanAll

	// ChanPrivStart is the first channel number reserved for driver-specific
	// channels.
	ChanPrivStart
)

// nPM1300 charger private channels.
const (
	ChanNPM1300ChargerStatus = ChanPrivStart + iota
	ChanNPM1300ChargerError
)

var chanNames = [...]string{
	ChanAccelX: "accel_x", ChanAccelY: "accel_y", ChanAccelZ: "accel_z", ChanAccelXYZ: "accel_xyz",
	ChanGyroX: "gyro_x", ChanGyroY: "gyro_y", ChanGyroZ: "gyro_z", ChanGyroXYZ: "gyro_xyz",
	ChanMagnX: "magn_x", ChanMagnY: "magn_y", ChanMagnZ: "magn_z", ChanMagnXYZ: "magn_xyz",
	ChanDieTemp: "die_temp", ChanAmbientTemp: "ambient_temp", ChanPress: "press",
	ChanProx: "prox", ChanHumidity: "humidity", ChanLight: "light",
	ChanVoltage: "voltage", ChanCurrent: "current", ChanPower: "power", ChanResistance: "resistance",
	ChanGaugeVoltage:                 "gauge_voltage",
	ChanGaugeAvgCurrent:              "gauge_avg_current",
	ChanGaugeStdbyCurrent:            "gauge_stdby_current",
	ChanGaugeMaxLoadCurrent:          "gauge_max_load_current",
	ChanGaugeTemp:                    "gauge_temp",
	ChanGaugeStateOfCharge:           "gauge_state_of_charge",
	ChanGaugeFullChargeCapacity:      "gauge_full_charge_capacity",
	ChanGaugeRemainingChargeCapacity: "gauge_remaining_charge_capacity",
	ChanGaugeNomAvailCapacity:        "gauge_nom_avail_capacity",
	ChanGaugeFullAvailCapacity:       "gauge_full_avail_capacity",
	ChanGaugeAvgPower:                "gauge_avg_power",
	ChanGaugeStateOfHealth:           "gauge_state_of_health",
	ChanGaugeTimeToEmpty:             "gauge_time_to_empty",
	ChanGaugeTimeToFull:              "gauge_time_to_full",
	ChanGaugeCycleCount:              "gauge_cycle_count",
	ChanGaugeDesignVoltage:           "gauge_design_voltage",
	ChanGaugeDesiredVoltage:          "gauge_desired_voltage",
	ChanGaugeDesiredChargingCurrent:  "gauge_desired_charging_current",
	ChanAll:                          "all",
}

func (c Channel) String() string {
	switch c {
	case ChanNPM1300ChargerStatus:
		return "npm1300_charger_status"
	case ChanNPM1300ChargerError:
		return "npm1300_charger_error"
	}
	if int(c) < len(chanNames) && chanNames[c] != "" {
		return chanNames[c]
	}
	return "chan_" + strconv.Itoa(int(c))
}

// Value is a fixed-point reading: Val1 is the integer part and Val2 the
// fractional part in millionths. |Val2| < 1e6 and, when both are non-zero,
// they share a sign.
type Value struct {
	Val1 int32
	Val2 int32
}

const micro = 1_000_000

// FromMicro splits a value expressed in millionths (µV, µA, …).
func FromMicro(u int64) Value {
	q, r := mathx.TruncDivMod(u, micro)
	return Value{Val1: int32(q), Val2: int32(r)}
}

// FromMilli splits a value expressed in thousandths (mV, mA, …).
func FromMilli(m int32) Value {
	q, r := mathx.TruncDivMod(m, 1000)
	return Value{Val1: q, Val2: r * 1000}
}

// FromFloat truncates f into integer and micro parts. NaN and ±Inf map to
// the zero value.
func FromFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	ip, frac := math.Modf(f)
	return Value{Val1: int32(ip), Val2: int32(frac * micro)}
}

// Micro returns the value in millionths.
func (v Value) Micro() int64 { return int64(v.Val1)*micro + int64(v.Val2) }

// Float64 returns Val1 + Val2/1e6.
func (v Value) Float64() float64 { return float64(v.Val1) + float64(v.Val2)/micro }

// Float32 is Float64 narrowed for model inputs.
func (v Value) Float32() float32 { return float32(v.Float64()) }

// Valid reports whether v honours the fixed-point invariant.
func (v Value) Valid() bool {
	if mathx.Abs(v.Val2) >= micro {
		return false
	}
	return v.Val1 == 0 || v.Val2 == 0 || (v.Val1 < 0) == (v.Val2 < 0)
}

// String renders v with six fractional digits, e.g. "-0.075000".
func (v Value) String() string {
	neg := v.Val1 < 0 || v.Val2 < 0
	i, f := mathx.Abs(int64(v.Val1)), mathx.Abs(int64(v.Val2))
	b := make([]byte, 0, 20)
	if neg {
		b = append(b, '-')
	}
	b = strconv.AppendInt(b, i, 10)
	b = append(b, '.')
	frac := strconv.AppendInt(nil, f, 10)
	for n := len(frac); n < 6; n++ {
		b = append(b, '0')
	}
	return string(append(b, frac...))
}
