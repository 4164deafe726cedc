package types

// ------------------------
// Common service state (retained)
// ------------------------

type ServiceState struct {
	Level  string `json:"level"`           // "idle", "ready", "failed", "stopped"
	Status string `json:"status"`          // freeform short code
	TS     int64  `json:"ts_ms"`           // publish Unix ms
	Error  string `json:"error,omitempty"` // errcode of the last failure
}

// Link is the link/state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type CapabilityStatus struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`           // Unix ms
	Error string `json:"error,omitempty"` // machine-readable short code
}

// ------------------------
// Capability addressing & kinds
// ------------------------

type Kind string

const (
	KindBattery Kind = "battery"
	KindCharger Kind = "charger"
)

// CapabilityAddress identifies a public capability on the bus.
type CapabilityAddress struct {
	Domain string `json:"domain"` // "power"
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
}

// ControlReply answers a control request.
type ControlReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Value any    `json:"value,omitempty"`
}
