package types

import (
	"time"

	"gaugecode-go/errcode"
)

// Configuration supplied retained on "config/gauge".

type GaugeConfig struct {
	Name     string        `yaml:"name" json:"name"`         // capability name, e.g. "internal"
	Bus      string        `yaml:"bus" json:"bus"`           // I2C bus name on hosts ("" = first)
	Addr     uint16        `yaml:"addr" json:"addr"`         // 7-bit; 0 = 0x6B
	Interval time.Duration `yaml:"interval" json:"interval"` // update cadence
	Model    string        `yaml:"model" json:"model"`       // embedded battery model

	TermMilliV           int32  `yaml:"term_mv" json:"term_mV"`
	TermWarmMilliV       int32  `yaml:"term_warm_mv" json:"term_warm_mV"`
	ChargeMilliA         int32  `yaml:"charge_ma" json:"charge_mA"`
	DischargeLimitMilliA int32  `yaml:"discharge_limit_ma" json:"discharge_limit_mA"`
	VbusLimitMilliA      int32  `yaml:"vbus_limit_ma" json:"vbus_limit_mA"`
	Thermistor           string `yaml:"thermistor" json:"thermistor"` // "10k" | "47k" | "100k" | "none"
	Beta                 uint32 `yaml:"beta" json:"beta"`
	Charging             *bool  `yaml:"charging" json:"charging,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"` // "debug" | "info" | "warn" | "error"
}

// ApplyDefaults fills zero fields with the stock 4.15 V / 150 mA cell setup.
func (c *GaugeConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "internal"
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.TermMilliV == 0 {
		c.TermMilliV = 4150
	}
	if c.TermWarmMilliV == 0 {
		c.TermWarmMilliV = 4000
	}
	if c.ChargeMilliA == 0 {
		c.ChargeMilliA = 150
	}
	if c.DischargeLimitMilliA == 0 {
		c.DischargeLimitMilliA = 1000
	}
	if c.VbusLimitMilliA == 0 {
		c.VbusLimitMilliA = 500
	}
	if c.Thermistor == "" {
		c.Thermistor = "10k"
	}
	if c.Beta == 0 {
		c.Beta = 3380
	}
	if c.Charging == nil {
		on := true
		c.Charging = &on
	}
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config.gauge", Msg: msg}
}

func (c GaugeConfig) Validate() error {
	switch {
	case c.Name == "":
		return invalid("name is required")
	case c.Interval < 10*time.Millisecond:
		return invalid("interval must be >= 10ms")
	case c.Addr > 0x7F:
		return invalid("addr must be a 7-bit address")
	case c.TermMilliV <= 0 || c.TermWarmMilliV <= 0:
		return invalid("termination voltages must be > 0")
	case c.TermWarmMilliV > c.TermMilliV:
		return invalid("term_warm_mv must not exceed term_mv")
	case c.ChargeMilliA <= 0 || c.DischargeLimitMilliA <= 0 || c.VbusLimitMilliA <= 0:
		return invalid("currents must be > 0")
	}
	switch c.Thermistor {
	case "10k", "47k", "100k", "none":
	default:
		return invalid("thermistor must be one of 10k, 47k, 100k, none")
	}
	return nil
}

// ChargingEnabled reads Charging with its default.
func (c GaugeConfig) ChargingEnabled() bool { return c.Charging == nil || *c.Charging }
