package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b) for non-negative a and positive b.
// b == 0 yields 0; callers keep to positives for register maths.
func CeilDiv[T constraints.Integer](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// TruncDivMod splits a by b the way C integer division does: the quotient
// truncates toward zero and the remainder keeps the sign of a.
func TruncDivMod[T constraints.Signed](a, b T) (q, r T) {
	return a / b, a % b
}
