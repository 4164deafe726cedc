// Command gauge-host runs the fuel gauge on a Linux host with the nPM1300 on
// an I²C bus, or against the simulated charger with -sim.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"tinygo.org/x/drivers"

	"gaugecode-go/battery"
	"gaugecode-go/bus"
	"gaugecode-go/drivers/npm1300"
	"gaugecode-go/drivers/npm1300/npm1300sim"
	"gaugecode-go/services/config"
	"gaugecode-go/services/gauge"
	"gaugecode-go/twi"
	"gaugecode-go/types"
	"gaugecode-go/x/strx"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML config file (default: embedded host board)")
		busName  = flag.String("i2c", "", "I2C bus name, e.g. /dev/i2c-1 (overrides config)")
		useSim   = flag.Bool("sim", false, "run against the simulated charger")
		vbus     = flag.Bool("sim-vbus", false, "simulated charger: VBUS present")
		interval = flag.Duration("interval", 0, "update interval (overrides config)")
	)
	flag.Parse()

	log := golog.NewDevelopmentLogger("gauge")

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *busName != "" {
		cfg.Gauge.Bus = *busName
	}
	if *interval > 0 {
		cfg.Gauge.Interval = *interval
	}
	if err := cfg.Gauge.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	log = withLevel(log, cfg.Log.Level)

	var i2c drivers.I2C
	if *useSim {
		i2c, err = simulated(cfg.Gauge, *vbus)
	} else {
		var c io.Closer
		i2c, c, err = twi.Open(cfg.Gauge.Bus, twi.DefaultFrequency)
		if c != nil {
			defer c.Close()
		}
	}
	if err != nil {
		log.Fatalf("i2c: %v", err)
	}
	i2c = twi.Bounded(i2c, twi.DefaultPerByte)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(16)
	svc := gauge.New(i2c, log.Named("svc"))
	svc.Out = os.Stdout
	if err := svc.Start(ctx, b.NewConnection("gauge")); err != nil {
		log.Fatalf("gauge: %v", err)
	}

	mon := b.NewConnection("monitor")
	status := mon.Subscribe(bus.T("power", string(types.KindBattery), cfg.Gauge.Name, "status"))

	if err := config.NewConfigService(&cfg).Start(ctx, b.NewConnection("config")); err != nil {
		log.Fatalf("config service: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			// Let the worker publish its stopped state.
			time.Sleep(50 * time.Millisecond)
			return
		case m := <-status.Channel():
			if st, ok := m.Payload.(types.CapabilityStatus); ok {
				log.Infow("battery link", "link", st.Link, "error", st.Error)
			}
		}
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Embedded("host")
	}
	return config.Load(path)
}

func withLevel(log golog.Logger, level string) golog.Logger {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using debug", level)
		return log
	}
	return log.Desugar().WithOptions(zap.IncreaseLevel(l)).Sugar()
}

// simulated returns a simulated charger driven by a cell model of the
// configured battery.
func simulated(g types.GaugeConfig, vbus bool) (drivers.I2C, error) {
	bm, err := battery.Load(strx.Coalesce(g.Model, battery.DefaultName))
	if err != nil {
		return nil, err
	}
	dcfg, err := config.DriverConfig(g)
	if err != nil {
		return nil, err
	}
	sim := npm1300sim.New()
	if dcfg.Address != npm1300.AddressDefault {
		sim.SetAddress(dcfg.Address)
	}
	if vbus {
		sim.SetVbusStatus(byte(npm1300.VbusPresent))
	}
	cell := &npm1300sim.Cell{
		CapacityMilliAh: bm.CapacityMilliAh,
		SoC:             0.6,
		LoadMilliA:      bm.IdleMilliA + 80,
		ChargeMilliA:    float64(g.ChargeMilliA),
		DischargeFSmA:   dcfg.DischargeLimitMicroA / 1000,
		Celsius:         25,
		Beta:            dcfg.ThermistorBeta,
		Now:             time.Now,
		OCV:             bm.VoltsAt,
	}
	cell.Attach(sim)
	return sim, nil
}
