// Package npm1300 constants: register blocks, offsets and status bitfields
// of the nPM1300 charger, ADC and VBUS blocks.
package npm1300

const (
	// 7-bit I2C address.
	AddressDefault = 0x6B

	// --- Register blocks (first pointer byte) ---
	baseVbus = 0x02
	baseChgr = 0x03
	baseAdc  = 0x05

	// --- CHGR ---
	chgrEnSet     = 0x04 // W, 1 = enable charging
	chgrEnClr     = 0x05 // W, 1 = disable charging
	chgrIset      = 0x08 // W2, index/2 then index&1 at 0x09
	chgrIsetDisch = 0x0A // W2, index/2 then index&1 at 0x0B
	chgrVterm     = 0x0C // W
	chgrVtermR    = 0x0D // W, warm termination voltage
	chgrChgStat   = 0x34 // R
	chgrErrReason = 0x36 // R

	// --- ADC ---
	adcTaskVbat = 0x00 // W, 1 = trigger VBAT (and IBAT) conversion
	adcTaskTemp = 0x01 // W, 1 = trigger NTC conversion
	adcNtcrSel  = 0x0A // W, 0 = none, 1..3 = 10k/47k/100k
	adcResults  = 0x10 // R burst, frameLen bytes
	adcIbatEn   = 0x24 // W, 1 = enable battery current measurement

	// --- VBUS ---
	vbusTaskUpdate = 0x00 // W, 1 = re-apply the software current limit
	vbusIlim       = 0x01 // W
	vbusStatus     = 0x07 // R

	frameLen = 11
)

// IbatStat is the current-measurement regime reported in the first byte of
// the ADC frame. It selects the full scale used to convert the IBAT code.
type IbatStat uint8

const (
	IbatDischarge     IbatStat = 0x04
	IbatChargeTrickle IbatStat = 0x0C
	IbatChargeCool    IbatStat = 0x0D
	IbatChargeNormal  IbatStat = 0x0F
)

func (s IbatStat) String() string {
	switch s {
	case IbatDischarge:
		return "discharge"
	case IbatChargeTrickle:
		return "charge_trickle"
	case IbatChargeCool:
		return "charge_cool"
	case IbatChargeNormal:
		return "charge_normal"
	}
	return "unknown"
}

// Charging reports whether s is one of the charge regimes.
func (s IbatStat) Charging() bool {
	return s == IbatChargeTrickle || s == IbatChargeCool || s == IbatChargeNormal
}

// ChargeStatus is CHGR.CHG_STAT.
type ChargeStatus uint8

const (
	StatBatteryDetected  ChargeStatus = 1 << 0
	StatCompleted        ChargeStatus = 1 << 1
	StatTrickleCharge    ChargeStatus = 1 << 2
	StatConstantCurrent  ChargeStatus = 1 << 3
	StatConstantVoltage  ChargeStatus = 1 << 4
	StatRecharge         ChargeStatus = 1 << 5
	StatDieTempHighPause ChargeStatus = 1 << 6
	StatSupplementActive ChargeStatus = 1 << 7
)

// ErrorReason is CHGR.ERR_REASON.
type ErrorReason uint8

const (
	ErrNtcSensor      ErrorReason = 1 << 0
	ErrVbatSensor     ErrorReason = 1 << 1
	ErrVbatLow        ErrorReason = 1 << 2
	ErrVtrickle       ErrorReason = 1 << 3
	ErrMeasTimeout    ErrorReason = 1 << 4
	ErrChargeTimeout  ErrorReason = 1 << 5
	ErrTrickleTimeout ErrorReason = 1 << 6
)

// VbusStatus is VBUS.STATUS. Only VbusPresent drives the driver; the other
// bits are passed through.
type VbusStatus uint8

const (
	VbusPresent         VbusStatus = 1 << 0
	VbusCurrentLimitOn  VbusStatus = 1 << 1
	VbusOverVoltageProt VbusStatus = 1 << 2
	VbusUnderVoltage    VbusStatus = 1 << 3
	VbusSuspended       VbusStatus = 1 << 4
	VbusOutActive       VbusStatus = 1 << 5
)

func (b ChargeStatus) Has(flag ChargeStatus) bool { return b&flag != 0 }
func (b ErrorReason) Has(flag ErrorReason) bool   { return b&flag != 0 }
func (b VbusStatus) Has(flag VbusStatus) bool     { return b&flag != 0 }
