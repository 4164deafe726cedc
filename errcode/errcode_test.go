package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOfUnwrapsWrappers(t *testing.T) {
	cause := errors.New("nak")
	err := fmt.Errorf("sample fetch: %w", Wrap(Transport, "read", cause))

	if got := Of(err); got != Transport {
		t.Fatalf("Of = %q, want %q", got, Transport)
	}
	if !errors.Is(err, Transport) {
		t.Fatal("errors.Is should match the wrapped code")
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should reach the cause")
	}
	if Of(nil) != OK || Of(errors.New("x")) != Error {
		t.Fatal("Of fallbacks")
	}
}

func TestErrnoMapping(t *testing.T) {
	cases := map[Code]int{
		OK:          0,
		Transport:   -5,
		Timeout:     -116,
		OutOfRange:  -34,
		Unsupported: -134,
		NotReady:    -11,
		ModelError:  -22,
	}
	for c, want := range cases {
		if got := c.Errno(); got != want {
			t.Fatalf("%s.Errno() = %d, want %d", c, got, want)
		}
	}
	if Errno(Wrap(OutOfRange, "vterm", OutOfRange)) != -34 {
		t.Fatal("Errno through wrapper")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(Transport, "x", nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
}

func TestErrorString(t *testing.T) {
	e := &E{C: Transport, Op: "write", Err: errors.New("nak")}
	if got, want := e.Error(), "write: transport_error: nak"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
