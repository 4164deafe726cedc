package npm1300

// State is the cache filled by SampleFetch. ChannelGet reads only from it.
type State struct {
	VoltageRaw uint16
	CurrentRaw uint16
	TempRaw    uint16

	Status ChargeStatus
	Error  ErrorReason
	Ibat   IbatStat
	Vbus   VbusStatus
}

// State returns a copy of the cache.
func (d *Device) State() State { return d.state }

// VbusPresent reports VBUS as seen by the last fetch.
func (d *Device) VbusPresent() bool { return d.state.Vbus.Has(VbusPresent) }

// Charging reports whether the last frame was taken in a charge regime.
func (s State) Charging() bool { return s.Ibat.Charging() }
