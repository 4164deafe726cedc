package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unavailable    Code = "unavailable"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"

	Transport   Code = "transport_error" // NAK, arbitration lost, bus fault
	Timeout     Code = "timeout"         // bus transfer did not settle in time
	OutOfRange  Code = "out_of_range"    // setpoint not representable by the device
	Unsupported Code = "unsupported"     // unknown sensor channel or verb
	NotReady    Code = "not_ready"       // gauge used before a successful init
	ModelError  Code = "model_error"     // battery model rejected its inputs

	Error Code = "error" // generic fallback
)

// Errno returns the negative integer return code the firmware surface uses
// for c (errno values as on Zephyr/newlib). OK maps to 0.
func (c Code) Errno() int {
	switch c {
	case OK:
		return 0
	case Busy:
		return -16 // EBUSY
	case Unavailable, NotReady:
		return -11 // EAGAIN
	case InvalidParams, InvalidPayload, InvalidTopic, ModelError:
		return -22 // EINVAL
	case Transport:
		return -5 // EIO
	case Timeout:
		return -116 // ETIMEDOUT
	case OutOfRange:
		return -34 // ERANGE
	case Unsupported:
		return -134 // ENOTSUP
	default:
		return -5
	}
}

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if c, ok := e.Err.(Code); e.Err != nil && !(ok && c == e.C) {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, code) match the wrapper's code as well as its cause.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches code and op to cause. A nil cause yields nil.
func Wrap(c Code, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: cause}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for err != nil {
		if c, ok := err.(Code); ok {
			return c
		}
		if x, ok := err.(coder); ok {
			return x.Code()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Error
}

// Errno is shorthand for Of(err).Errno().
func Errno(err error) int { return Of(err).Errno() }
