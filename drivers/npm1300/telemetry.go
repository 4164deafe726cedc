package npm1300

import (
	"gaugecode-go/errcode"
	"gaugecode-go/sensor"
)

// SampleFetch reads charger status, error reason and the ADC frame, commits
// them to the cache, then triggers the next temperature and VBAT
// conversions. It finishes with a VBUS status read; when VBUS has just
// appeared it re-applies the input current limit.
//
// Results are pipelined: the frame read here holds the conversions triggered
// by the previous fetch (or by Configure for the first one).
func (d *Device) SampleFetch() error {
	status, err := d.read(baseChgr, chgrChgStat)
	if err != nil {
		return fetchErr("chg_stat", err)
	}
	reason, err := d.read(baseChgr, chgrErrReason)
	if err != nil {
		return fetchErr("err_reason", err)
	}
	if err := d.readBurst(baseAdc, adcResults, d.frame[:]); err != nil {
		return fetchErr("results", err)
	}

	f := DecodeFrame(d.frame)
	d.state.VoltageRaw = f.VbatCode()
	d.state.TempRaw = f.NtcCode()
	d.state.CurrentRaw = f.IbatCode()
	d.state.Ibat = f.Ibat
	d.state.Status = ChargeStatus(status)
	d.state.Error = ErrorReason(reason)

	if err := d.write(baseAdc, adcTaskTemp, 1); err != nil {
		return fetchErr("task_temp", err)
	}
	if err := d.write(baseAdc, adcTaskVbat, 1); err != nil {
		return fetchErr("task_vbat", err)
	}

	v, err := d.read(baseVbus, vbusStatus)
	if err != nil {
		return fetchErr("vbus_status", err)
	}
	vbus := VbusStatus(v)
	if vbus.Has(VbusPresent) && !d.state.Vbus.Has(VbusPresent) {
		// Cache stays at "absent" on failure so the next fetch retries.
		if err := d.write(baseVbus, vbusTaskUpdate, 1); err != nil {
			return fetchErr("vbus_task_update", err)
		}
	}
	d.state.Vbus = vbus
	return nil
}

// ChannelGet converts the cached sample for ch. It never touches the bus.
func (d *Device) ChannelGet(ch sensor.Channel) (sensor.Value, error) {
	s := &d.state
	switch ch {
	case sensor.ChanGaugeVoltage:
		return sensor.FromMilli(VbatMilliV(s.VoltageRaw)), nil
	case sensor.ChanGaugeTemp:
		if d.cfg.Thermistor == ThermistorNone {
			return sensor.Value{}, ErrNoThermistor
		}
		return tempValue(s.TempRaw, d.cfg.ThermistorBeta), nil
	case sensor.ChanGaugeAvgCurrent:
		return sensor.FromMilli(IbatMilliA(s.CurrentRaw, s.Ibat, d.cfg.CurrentMicroA, d.cfg.DischargeLimitMicroA)), nil
	case sensor.ChanNPM1300ChargerStatus:
		return sensor.Value{Val1: int32(s.Status)}, nil
	case sensor.ChanNPM1300ChargerError:
		return sensor.Value{Val1: int32(s.Error)}, nil
	case sensor.ChanGaugeDesiredChargingCurrent:
		return sensor.FromMicro(int64(d.cfg.CurrentMicroA)), nil
	case sensor.ChanGaugeMaxLoadCurrent:
		return sensor.FromMicro(int64(d.cfg.DischargeLimitMicroA)), nil
	}
	return sensor.Value{}, ErrUnsupportedChannel
}

func fetchErr(step string, err error) error {
	return &errcode.E{C: busCode(err), Op: "npm1300.fetch", Msg: step, Err: err}
}
