package types

// ------------------------
// Battery / Charger (npm1300 + fuel gauge)
// ------------------------

// Retained info: power/battery/<name>/info
type BatteryInfo struct {
	Model           string  `json:"model"`
	CapacityMilliAh float64 `json:"capacity_mAh"`
	Bus             string  `json:"bus"`
	Addr            uint16  `json:"addr"`
}

// Retained value: power/battery/<name>/value
type BatteryValue struct {
	VoltageMilliV int32   `json:"vbat_mV"`
	CurrentMilliA int32   `json:"ibat_mA"` // positive = discharge
	TempMilliC    int32   `json:"temp_mC"`
	SoCPercent    float32 `json:"soc_pct"`
	TTESeconds    int64   `json:"tte_s"` // -1 when not applicable
	TTFSeconds    int64   `json:"ttf_s"` // -1 when not applicable
	TS            int64   `json:"ts_ms"`
}

// Retained info: power/charger/<name>/info. Setpoints as programmed.
type ChargerInfo struct {
	TermMilliV           int32  `json:"term_mV"`
	TermWarmMilliV       int32  `json:"term_warm_mV"`
	ChargeMicroA         int32  `json:"charge_uA"`
	DischargeLimitMicroA int32  `json:"discharge_limit_uA"`
	VbusLimitMicroA      int32  `json:"vbus_limit_uA"`
	Thermistor           string `json:"thermistor"`
}

// Retained value: power/charger/<name>/value
type ChargerValue struct {
	Status      uint8  `json:"status"` // raw CHG_STAT bits
	Error       uint8  `json:"error"`  // raw ERR_REASON bits
	Vbus        uint8  `json:"vbus"`   // raw VBUS STATUS bits
	Regime      string `json:"regime"` // IBAT measurement regime
	VbusPresent bool   `json:"vbus_present"`
	Charging    bool   `json:"charging"` // charging enabled
	Complete    bool   `json:"complete"` // charge completed
	TS          int64  `json:"ts_ms"`
}

// Controls
type ChargingEnable struct{ On bool }     // verb: "charging"
type IdleCurrent struct{ MilliA float32 } // verb: "idle"
type ReadNow struct{}                     // verb: "read"; a nil payload also reads
