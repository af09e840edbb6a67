// Package backoff provides delay functions mapping a 1-based retry attempt to
// the time to wait before that retry.
//
// Every Func is stateless and safe for concurrent use, so a single value can
// be shared by any number of retry loops.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	smoothing = 4.0
	maxintf   = float64(math.MaxInt64) - 1
	maxSoftT  = 1000.0
)

// Func returns the delay before the given retry attempt, starting at 1. It
// never returns a negative duration.
type Func func(attempt int) time.Duration

// Immediate retries with no delay at all. This amplifies load on a struggling
// server without helping it recover, so prefer any of the other functions.
func Immediate() Func {
	return func(int) time.Duration {
		return 0
	}
}

// Fixed waits d before every retry.
func Fixed(d time.Duration) Func {
	mustNotBeNegative("d", d)
	return func(int) time.Duration {
		return d
	}
}

// Linear waits attempt * d.
func Linear(d time.Duration) Func {
	mustNotBeNegative("d", d)
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		out := float64(d) * float64(attempt)
		if out >= maxintf {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(out)
	}
}

// Exponential waits base for the first retry and doubles on every following
// one until the delay reaches limit, after which it stays at limit. A limit of
// zero leaves the delay uncapped.
func Exponential(base, limit time.Duration) Func {
	mustNotBeNegative("base", base)
	mustNotBeNegative("limit", limit)
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		if base == 0 {
			return 0
		}
		// 2^1023 is the last finite power of two
		out := float64(base) * math.Pow(2, float64(min(attempt-1, 1023)))
		switch {
		case limit > 0 && out > float64(limit):
			return limit
		case math.IsInf(out, 1), out >= maxintf:
			// maxintf serves as a backstop against float64->int64 overflow
			return time.Duration(math.MaxInt64)
		default:
			return time.Duration(out)
		}
	}
}

// Jittered waits a uniformly random duration in [low, high].
func Jittered(low, high time.Duration) Func {
	mustNotBeNegative("low", low)
	if high < low {
		panic("backoff: high must not be less than low")
	}
	span := int64(high - low)
	return func(int) time.Duration {
		switch span {
		case 0:
			return low
		case math.MaxInt64:
			// span+1 overflows, draw the full non-negative range instead
			return low + time.Duration(rand.Uint64()>>1)
		}
		return low + time.Duration(rand.Int64N(span+1))
	}
}

// SoftExponential is a decorrelated "soft" exponential backoff. The median
// delay of the first retry is roughly initialMedian, and each attempt is drawn
// from a smoothed exponential curve with a random offset, so that many clients
// retrying at once spread out instead of arriving in waves. Delays are capped
// at maxDelay; a maxDelay of zero leaves them uncapped.
func SoftExponential(initialMedian, maxDelay time.Duration) Func {
	mustNotBeNegative("initialMedian", initialMedian)
	mustNotBeNegative("maxDelay", maxDelay)
	initial := float64(initialMedian)
	maxDf := float64(maxDelay)
	curve := func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		return math.Pow(2, t) * math.Tanh(math.Sqrt(smoothing*t))
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		if initialMedian == 0 {
			return 0
		}
		// past maxSoftT the step alone exceeds any time.Duration
		t := min(float64(attempt-1), maxSoftT) + rand.Float64()
		out := (curve(t) - curve(t-1)) * initial
		switch {
		case math.IsNaN(out), math.IsInf(out, 1):
			if maxDelay > 0 {
				return maxDelay
			}
			return time.Duration(math.MaxInt64)
		case out < 0:
			return 0
		case maxDelay > 0 && out > maxDf:
			return maxDelay
		case out >= maxintf:
			return time.Duration(math.MaxInt64)
		default:
			return time.Duration(out)
		}
	}
}

// Capped limits the delays of f to at most limit.
func (f Func) Capped(limit time.Duration) Func {
	mustNotBeNegative("limit", limit)
	return func(attempt int) time.Duration {
		return min(f(attempt), limit)
	}
}

// Schedule returns the delays f produces for attempts 1 through n.
func Schedule(f Func, n int) []time.Duration {
	if n < 0 {
		n = 0
	}
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = f(i + 1)
	}
	return out
}

// Total sums the delays f produces for attempts 1 through n.
func Total(f Func, n int) time.Duration {
	var total time.Duration
	for _, d := range Schedule(f, n) {
		if total > time.Duration(math.MaxInt64)-d {
			return time.Duration(math.MaxInt64)
		}
		total += d
	}
	return total
}

func mustNotBeNegative(name string, d time.Duration) {
	if d < 0 {
		panic("backoff: " + name + " must not be negative")
	}
}
