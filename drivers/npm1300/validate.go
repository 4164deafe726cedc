package npm1300

import "gaugecode-go/errcode"

var (
	// Sentinel errors; each also matches its errcode.Code with errors.Is.
	ErrUnsupportedChannel = &errcode.E{C: errcode.Unsupported, Op: "npm1300", Msg: "channel not supported"}
	ErrNoThermistor       = &errcode.E{C: errcode.Unavailable, Op: "npm1300", Msg: "no thermistor configured"}

	ErrTermVoltage    = &errcode.E{C: errcode.InvalidParams, Op: "npm1300", Msg: "termination voltage must be positive"}
	ErrChargeCurrent  = &errcode.E{C: errcode.InvalidParams, Op: "npm1300", Msg: "charge current must be positive"}
	ErrDischargeLimit = &errcode.E{C: errcode.InvalidParams, Op: "npm1300", Msg: "discharge limit must be positive"}
	ErrVbusLimit      = &errcode.E{C: errcode.InvalidParams, Op: "npm1300", Msg: "VBUS limit must be positive"}
	ErrThermistor     = &errcode.E{C: errcode.InvalidParams, Op: "npm1300", Msg: "unknown thermistor"}
	ErrBeta           = &errcode.E{C: errcode.InvalidParams, Op: "npm1300", Msg: "thermistor beta must be non-zero"}
)

// Validate checks what can be checked without the range tables.
func (c Config) Validate() error {
	switch {
	case c.TermMicroV <= 0 || c.TermWarmMicroV <= 0:
		return ErrTermVoltage
	case c.CurrentMicroA <= 0:
		return ErrChargeCurrent
	case c.DischargeLimitMicroA <= 0:
		return ErrDischargeLimit
	case c.VbusLimitMicroA <= 0:
		return ErrVbusLimit
	}
	switch c.Thermistor {
	case Thermistor10k, Thermistor47k, Thermistor100k:
		if c.ThermistorBeta == 0 {
			return ErrBeta
		}
	case ThermistorNone:
	default:
		return ErrThermistor
	}
	return nil
}
