//go:build tinygo && (rp2040 || rp2350)

// Command gauge-pico runs the fuel gauge on a Pico with the nPM1300 on I2C0.
package main

import (
	"context"
	"machine"
	"time"

	"gaugecode-go/bus"
	"gaugecode-go/services/config"
	"gaugecode-go/services/gauge"
	"gaugecode-go/twi"
	"gaugecode-go/types"
	"gaugecode-go/x/logx"
)

const board = "pico"

// serial prints telemetry lines on the USB console.
type serial struct{}

func (serial) Write(p []byte) (int, error) {
	print(string(p))
	return len(p), nil
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	cfg, err := config.Embedded(board)
	if err != nil {
		println("[main] config:", err.Error())
		cfg = config.Default()
	}
	lvl := logx.ParseLevel(cfg.Log.Level)

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: twi.DefaultFrequency,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("[main] i2c:", err.Error())
		return
	}

	ctx := context.Background()
	b := bus.NewBus(4)

	svc := gauge.New(twi.Bounded(i2c, twi.DefaultPerByte), logx.Println{Svc: "gauge", Min: lvl})
	svc.Out = serial{}
	_ = svc.Start(ctx, b.NewConnection("gauge"))

	mon := b.NewConnection("monitor")
	state := mon.Subscribe(bus.T("gauge", "state"))

	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, board)
	if err := config.NewConfigService(nil).Start(cfgCtx, b.NewConnection("config")); err != nil {
		println("[main] config service:", err.Error())
	}

	for m := range state.Channel() {
		if st, ok := m.Payload.(types.ServiceState); ok {
			println("[main] gauge", st.Level, st.Status, st.Error)
		}
	}
}
