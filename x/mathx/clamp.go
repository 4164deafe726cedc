package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi. Unlike Clamp the bounds are taken as
// given: an inverted window contains nothing.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

// Overlaps reports whether [aLo, aHi] and [bLo, bHi] share at least one value.
func Overlaps[T constraints.Ordered](aLo, aHi, bLo, bHi T) bool {
	return aLo <= bHi && bLo <= aHi
}

// Abs for signed integers.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
