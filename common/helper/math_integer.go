// Package helper holds overflow-checked integer arithmetic.
package helper

import "math"

// SafeAdd reports whether x+y wraps around uint64.
func SafeAdd(x, y uint64) (uint64, bool) {
	return x + y, y > math.MaxUint64-x
}

// SafeAddInt64 returns x+y, or true when the result does not fit in int64.
func SafeAddInt64(x, y int64) (int64, bool) {
	switch {
	case y > 0 && x > math.MaxInt64-y:
		return 0, true
	case y < 0 && x < math.MinInt64-y:
		return 0, true
	}
	return x + y, false
}

// SafeSubInt64 returns x-y, or true when the result does not fit in int64.
func SafeSubInt64(x, y int64) (int64, bool) {
	if y == math.MinInt64 {
		if x >= 0 {
			return 0, true
		}
		return x - y, false
	}
	return SafeAddInt64(x, -y)
}

func Min(x, y uint64) uint64 {
	if y < x {
		return y
	}
	return x
}
