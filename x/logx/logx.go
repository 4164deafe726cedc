// Package logx is the logging seam used by services. Host builds pass a
// golog logger; MCU builds pass a Println logger.
package logx

import "fmt"

// Logger is the subset of golog.Logger the services use.
type Logger interface {
	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}

// Level orders log severities.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error". Unknown names map to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Println writes "[svc] Level: msg" lines with the builtin println.
type Println struct {
	Svc string
	Min Level
}

func (p Println) logf(l Level, tag, template string, args []any) {
	if l < p.Min {
		return
	}
	println("["+p.Svc+"]", tag, fmt.Sprintf(template, args...))
}

func (p Println) Debugf(template string, args ...any) { p.logf(LevelDebug, "Debug:", template, args) }
func (p Println) Infof(template string, args ...any)  { p.logf(LevelInfo, "Info:", template, args) }
func (p Println) Warnf(template string, args ...any)  { p.logf(LevelWarn, "Warn:", template, args) }
func (p Println) Errorf(template string, args ...any) { p.logf(LevelError, "Error:", template, args) }

// Nop discards everything.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
