package npm1300

import (
	"math"

	"gaugecode-go/sensor"
)

// LSB field positions inside the packed low-bit bytes of the frame.
const (
	lsbVbatShift = 0 // lsb_a[1:0]
	lsbNtcShift  = 2 // lsb_a[3:2]
	lsbIbatShift = 4 // lsb_b[5:4]
)

// AdcResult joins an 8-bit MSB with the two low bits found at shift in lsb.
func AdcResult(msb, lsb byte, shift uint) uint16 {
	return uint16(msb)<<2 | uint16(lsb>>shift)&0x3
}

// Frame is the ADC.RESULTS burst, field by field in wire order.
type Frame struct {
	Ibat    IbatStat
	MsbVbat byte
	MsbNtc  byte
	MsbDie  byte
	MsbVsys byte
	LsbA    byte
	// two reserved bytes
	MsbIbat byte
	MsbVbus byte
	LsbB    byte
}

func DecodeFrame(b [frameLen]byte) Frame {
	return Frame{
		Ibat:    IbatStat(b[0]),
		MsbVbat: b[1],
		MsbNtc:  b[2],
		MsbDie:  b[3],
		MsbVsys: b[4],
		LsbA:    b[5],
		MsbIbat: b[8],
		MsbVbus: b[9],
		LsbB:    b[10],
	}
}

// Encode is the inverse of DecodeFrame; reserved bytes are zero.
func (f Frame) Encode() [frameLen]byte {
	return [frameLen]byte{
		byte(f.Ibat), f.MsbVbat, f.MsbNtc, f.MsbDie, f.MsbVsys, f.LsbA,
		0, 0, f.MsbIbat, f.MsbVbus, f.LsbB,
	}
}

// 10-bit codes.
func (f Frame) VbatCode() uint16 { return AdcResult(f.MsbVbat, f.LsbA, lsbVbatShift) }
func (f Frame) NtcCode() uint16  { return AdcResult(f.MsbNtc, f.LsbA, lsbNtcShift) }
func (f Frame) IbatCode() uint16 { return AdcResult(f.MsbIbat, f.LsbB, lsbIbatShift) }

// ---------------- Conversions ----------------

const adcFullScale = 1024

// VbatMilliV converts a VBAT code on the 5 V full scale.
func VbatMilliV(code uint16) int32 { return int32(code) * 5000 / adcFullScale }

// NtcCelsius converts an NTC code with the beta model referenced to 25 °C.
func NtcCelsius(code uint16, beta uint32) float64 {
	logR := math.Log(adcFullScale/float64(code) - 1)
	invK := 1/298.15 - logR/float64(beta)
	return 1/invK - 273.15
}

// FullScaleMilliA returns the signed IBAT full scale for the regime s.
// Discharge is positive, charge regimes are negative, anything else is 0.
func FullScaleMilliA(s IbatStat, chargeMicroA, dischargeMicroA int32) int32 {
	switch s {
	case IbatDischarge:
		return dischargeMicroA / 1000
	case IbatChargeTrickle:
		return -chargeMicroA / 10000
	case IbatChargeCool:
		return -chargeMicroA / 2000
	case IbatChargeNormal:
		return -chargeMicroA / 1000
	default:
		return 0
	}
}

// IbatMilliA scales a 10-bit IBAT code by the regime's full scale.
func IbatMilliA(code uint16, s IbatStat, chargeMicroA, dischargeMicroA int32) int32 {
	return int32(code) * FullScaleMilliA(s, chargeMicroA, dischargeMicroA) / adcFullScale
}

func tempValue(code uint16, beta uint32) sensor.Value {
	return sensor.FromFloat(NtcCelsius(code, beta))
}
