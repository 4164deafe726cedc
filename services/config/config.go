// Package config loads gauge configuration from YAML (files or embedded
// board defaults) and publishes it retained on the bus.
package config

import (
	"context"
	"embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gaugecode-go/bus"
	"gaugecode-go/drivers/npm1300"
	"gaugecode-go/errcode"
	"gaugecode-go/types"
	"gaugecode-go/x/strx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for the board ID
)

//go:embed boards/*.yaml
var boardFS embed.FS

// Config is the whole configuration document.
type Config struct {
	Gauge types.GaugeConfig `yaml:"gauge"`
	Log   types.LogConfig   `yaml:"log"`
}

// Parse decodes a YAML document, applies defaults and validates.
func Parse(raw []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, errcode.Wrap(errcode.InvalidParams, "config.parse", err)
	}
	c.Gauge.ApplyDefaults()
	c.Log.Level = strx.Coalesce(c.Log.Level, "info")
	if err := c.Gauge.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(raw)
}

// Default is the configuration with every field defaulted.
func Default() Config {
	c, _ := Parse(nil)
	return c
}

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, err := boardFS.ReadFile("boards/" + strings.ToLower(board) + ".yaml")
	return b, err == nil
}

// Embedded parses the built-in config for board.
func Embedded(board string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return Config{}, &errcode.E{C: errcode.InvalidParams, Op: "config.embedded", Msg: "no embedded config for board: " + board}
	}
	return Parse(raw)
}

// Boards lists the embedded board names.
func Boards() []string {
	ents, _ := boardFS.ReadDir("boards")
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return out
}

// DriverConfig maps the gauge section onto the charger driver config.
func DriverConfig(g types.GaugeConfig) (npm1300.Config, error) {
	c := npm1300.DefaultConfig()
	if g.Addr != 0 {
		c.Address = g.Addr
	}
	c.TermMicroV = g.TermMilliV * 1000
	c.TermWarmMicroV = g.TermWarmMilliV * 1000
	c.CurrentMicroA = g.ChargeMilliA * 1000
	c.DischargeLimitMicroA = g.DischargeLimitMilliA * 1000
	c.VbusLimitMicroA = g.VbusLimitMilliA * 1000
	switch g.Thermistor {
	case "10k", "":
		c.Thermistor = npm1300.Thermistor10k
	case "47k":
		c.Thermistor = npm1300.Thermistor47k
	case "100k":
		c.Thermistor = npm1300.Thermistor100k
	case "none":
		c.Thermistor = npm1300.ThermistorNone
	default:
		return npm1300.Config{}, &errcode.E{C: errcode.InvalidParams, Op: "config.driver", Msg: "unknown thermistor " + g.Thermistor}
	}
	if g.Beta != 0 {
		c.ThermistorBeta = g.Beta
	}
	c.ChargingEnable = g.ChargingEnabled()
	return c, c.Validate()
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// ConfigService publishes each section retained on config/<section>.
// Source is used when set; otherwise the board ID in the context selects an
// embedded config.
type ConfigService struct {
	Name   string
	Source *Config
}

func NewConfigService(src *Config) *ConfigService {
	return &ConfigService{Name: serviceName, Source: src}
}

func (s *ConfigService) resolve(ctx context.Context) (Config, error) {
	if s.Source != nil {
		return *s.Source, nil
	}
	board, _ := ctx.Value(CtxDeviceKey).(string)
	if board == "" {
		return Config{}, &errcode.E{C: errcode.InvalidParams, Op: "config.publish", Msg: "missing board ID in context"}
	}
	return Embedded(board)
}

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	c, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	conn.Publish(conn.NewMessage(bus.T(configPrefix, "gauge"), c.Gauge, true))
	conn.Publish(conn.NewMessage(bus.T(configPrefix, "log"), c.Log, true))
	return nil
}

// Start publishes synchronously; retained delivery makes ordering against
// subscribers irrelevant.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) error {
	return s.publishConfig(ctx, conn)
}
