// Package battery holds the per-cell model records the fuel gauge is seeded
// with. Models are compiled in from models/*.yaml.
package battery

import (
	"embed"
	"errors"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"gaugecode-go/errcode"
)

//go:embed models/*.yaml
var files embed.FS

// DefaultName is the model used when none is configured.
const DefaultName = "LP803448"

var (
	ErrUnknownModel = &errcode.E{C: errcode.InvalidParams, Op: "battery", Msg: "unknown model"}
	ErrBadModel     = errors.New("battery: malformed model")
)

// Point is one open-circuit voltage sample.
type Point struct {
	SoC   float64 `yaml:"soc"` // %
	Volts float64 `yaml:"v"`
}

type Model struct {
	Name            string    `yaml:"name"`
	CapacityMilliAh float64   `yaml:"capacity_mah"`
	ResistanceOhm   float64   `yaml:"r0_ohm"`
	IdleMilliA      float64   `yaml:"idle_ma"`
	Temps           []float64 `yaml:"temps"` // °C, characterised range
	OCV             []Point   `yaml:"ocv"`   // ascending SoC
}

// Parse decodes and checks one model document.
func Parse(b []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, errcode.Wrap(errcode.InvalidPayload, "battery.parse", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidPayload, Op: "battery", Msg: msg, Err: ErrBadModel}
	}
	switch {
	case m.Name == "":
		return bad("name is required")
	case m.CapacityMilliAh <= 0:
		return bad("capacity_mah must be > 0")
	case m.ResistanceOhm < 0:
		return bad("r0_ohm must be >= 0")
	case len(m.OCV) < 2:
		return bad("ocv needs at least two points")
	}
	for i := 1; i < len(m.OCV); i++ {
		if m.OCV[i].SoC <= m.OCV[i-1].SoC || m.OCV[i].Volts < m.OCV[i-1].Volts {
			return bad("ocv must rise with soc")
		}
	}
	if m.OCV[0].SoC < 0 || m.OCV[len(m.OCV)-1].SoC > 100 {
		return bad("ocv soc outside 0..100")
	}
	return nil
}

// Load returns the embedded model called name (case-insensitive). An empty
// name loads DefaultName.
func Load(name string) (*Model, error) {
	if name == "" {
		name = DefaultName
	}
	b, err := files.ReadFile(path.Join("models", strings.ToLower(name)+".yaml"))
	if err != nil {
		return nil, ErrUnknownModel
	}
	return Parse(b)
}

// Names lists the embedded models.
func Names() []string {
	ents, _ := files.ReadDir("models")
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		if m, err := Load(strings.TrimSuffix(e.Name(), ".yaml")); err == nil {
			out = append(out, m.Name)
		}
	}
	sort.Strings(out)
	return out
}

// SoCAt interpolates the OCV curve backwards: the SoC (%) at which the cell
// rests at v. Values beyond the curve clamp to its ends.
func (m *Model) SoCAt(v float64) float64 {
	c := m.OCV
	if v <= c[0].Volts {
		return c[0].SoC
	}
	for i := 1; i < len(c); i++ {
		if v <= c[i].Volts {
			a, b := c[i-1], c[i]
			if b.Volts == a.Volts {
				return b.SoC
			}
			return a.SoC + (v-a.Volts)*(b.SoC-a.SoC)/(b.Volts-a.Volts)
		}
	}
	return c[len(c)-1].SoC
}

// VoltsAt interpolates the OCV curve at soc (%).
func (m *Model) VoltsAt(soc float64) float64 {
	c := m.OCV
	if soc <= c[0].SoC {
		return c[0].Volts
	}
	for i := 1; i < len(c); i++ {
		if soc <= c[i].SoC {
			a, b := c[i-1], c[i]
			return a.Volts + (soc-a.SoC)*(b.Volts-a.Volts)/(b.SoC-a.SoC)
		}
	}
	return c[len(c)-1].Volts
}

// ClampTemp limits t to the characterised range.
func (m *Model) ClampTemp(t float64) float64 {
	if len(m.Temps) == 0 {
		return t
	}
	lo, hi := m.Temps[0], m.Temps[0]
	for _, x := range m.Temps[1:] {
		lo, hi = min(lo, x), max(hi, x)
	}
	return min(max(t, lo), hi)
}

// Below 25 °C a cell delivers less of its rated charge.
const coldDerate = 0.005 // per °C

// CapacityAt is the usable capacity (mAh) at t, with t held to the
// characterised range.
func (m *Model) CapacityAt(t float64) float64 {
	t = m.ClampTemp(t)
	if t >= 25 {
		return m.CapacityMilliAh
	}
	return m.CapacityMilliAh * (1 - coldDerate*(25-t))
}
