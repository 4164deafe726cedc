// Package linrange maps engineering values (µV, µA) onto register indices
// over one or more piecewise-linear segments.
//
// A Range covers indices [MinIdx, MaxIdx] with value(i) = Min + Step*(i-MinIdx).
// A Group is an ordered list of ranges whose index intervals abut; lookups try
// each range in order and the first match wins.
//
// Window look-ups return the smallest index whose value falls inside the
// requested [lo, hi] window. Callers choose the window to get the rounding
// they want, e.g. (target-step, target] rounds down to the nearest
// representable value without exceeding target.
package linrange

import (
	"gaugecode-go/errcode"
	"gaugecode-go/x/mathx"
)

// ErrOutOfRange is returned when no index maps into the requested window.
var ErrOutOfRange error = errcode.OutOfRange

// Range is one linear segment. Step == 0 means a single value at MinIdx.
type Range struct {
	Min    int32
	Step   uint32
	MinIdx uint16
	MaxIdx uint16
}

// Init builds a Range, mirroring the table form used in register maps.
func Init(min int32, step uint32, minIdx, maxIdx uint16) Range {
	return Range{Min: min, Step: step, MinIdx: minIdx, MaxIdx: maxIdx}
}

// Values returns the number of indices covered by r.
func (r Range) Values() uint16 { return r.MaxIdx - r.MinIdx + 1 }

// MaxValue returns the value at MaxIdx.
func (r Range) MaxValue() int32 {
	return r.Min + int32(r.Step)*int32(r.MaxIdx-r.MinIdx)
}

// Value returns the value programmed by idx.
func (r Range) Value(idx uint16) (int32, error) {
	if !mathx.Between(idx, r.MinIdx, r.MaxIdx) {
		return 0, ErrOutOfRange
	}
	return r.Min + int32(r.Step)*int32(idx-r.MinIdx), nil
}

// WinIndex returns the smallest index whose value lies in [lo, hi].
func (r Range) WinIndex(lo, hi int32) (uint16, error) {
	max := r.MaxValue()
	if hi < lo || !mathx.Overlaps(lo, hi, r.Min, max) {
		return 0, ErrOutOfRange
	}
	// Overlap guarantees hi >= Min, so Min is the first in-window value.
	if lo <= r.Min || r.Step == 0 {
		return r.MinIdx, nil
	}

	k := mathx.CeilDiv(int64(lo)-int64(r.Min), int64(r.Step))
	idx := int64(r.MinIdx) + k
	if idx > int64(r.MaxIdx) {
		return 0, ErrOutOfRange
	}
	v := int64(r.Min) + int64(r.Step)*k
	if v > int64(hi) {
		return 0, ErrOutOfRange
	}
	return uint16(idx), nil
}

// Group is an ordered sequence of ranges.
type Group []Range

// WinIndex applies Range.WinIndex to each range in order; first match wins.
func (g Group) WinIndex(lo, hi int32) (uint16, error) {
	for _, r := range g {
		if idx, err := r.WinIndex(lo, hi); err == nil {
			return idx, nil
		}
	}
	return 0, ErrOutOfRange
}

// Value returns the value programmed by idx in whichever range covers it.
func (g Group) Value(idx uint16) (int32, error) {
	for _, r := range g {
		if v, err := r.Value(idx); err == nil {
			return v, nil
		}
	}
	return 0, ErrOutOfRange
}

// RoundDown returns the index of the largest value that does not exceed
// target and lies within one step below it. It is the window (target-step, target].
func (r Range) RoundDown(target int32) (uint16, error) {
	lo := target
	if r.Step > 0 {
		lo = target - int32(r.Step) + 1
	}
	return r.WinIndex(lo, target)
}

// Exact returns the index whose value equals target.
func (g Group) Exact(target int32) (uint16, error) {
	return g.WinIndex(target, target)
}
