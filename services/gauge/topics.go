package gauge

import (
	"gaugecode-go/bus"
	"gaugecode-go/types"
)

const (
	domainPower = "power"

	verbRead     = "read"
	verbCharging = "charging"
	verbIdle     = "idle"
)

var (
	topicConfigGauge = bus.T("config", "gauge")
	topicState       = bus.T("gauge", "state")
)

func capTopic(k types.Kind, name string, leaf ...any) bus.Topic {
	t := bus.Topic{domainPower, string(k), name}
	return append(t, leaf...)
}

func controlTopic(name string) bus.Topic {
	return capTopic(types.KindBattery, name, "control", bus.Plus)
}
