package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImmediateAndFixed(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		assert.Zero(t, Immediate()(attempt))
		assert.Equal(t, 25*time.Millisecond, Fixed(25*time.Millisecond)(attempt))
	}
}

func TestLinear(t *testing.T) {
	assert.Equal(t,
		[]time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
		Schedule(Linear(10*time.Millisecond), 3),
	)
	assert.Equal(t, time.Duration(math.MaxInt64), Linear(time.Hour)(math.MaxInt32))
}

func TestExponentialMonotonicUntilCap(t *testing.T) {
	const limit = 500 * time.Millisecond
	f := Exponential(10*time.Millisecond, limit)
	assert.Equal(t, 10*time.Millisecond, f(1))
	assert.Equal(t, 20*time.Millisecond, f(2))
	assert.Equal(t, 40*time.Millisecond, f(3))

	prev := time.Duration(0)
	capped := false
	for attempt := 1; attempt <= 200; attempt++ {
		d := f(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, d, limit)
		if capped {
			assert.Equal(t, limit, d, "attempt %d", attempt)
		}
		capped = d == limit
		prev = d
	}
	assert.True(t, capped)
}

func TestExponentialUncappedSaturates(t *testing.T) {
	f := Exponential(time.Second, 0)
	assert.Equal(t, time.Duration(math.MaxInt64), f(500))
	assert.GreaterOrEqual(t, f(63), f(62))
}

func TestJitteredRange(t *testing.T) {
	low, high := 5*time.Millisecond, 15*time.Millisecond
	f := Jittered(low, high)
	for range 1000 {
		d := f(1)
		assert.GreaterOrEqual(t, d, low)
		assert.LessOrEqual(t, d, high)
	}
	assert.Equal(t, low, Jittered(low, low)(3))
}

func TestSoftExponential(t *testing.T) {
	const limit = 20 * time.Second
	f := SoftExponential(time.Second, limit)
	for attempt := 1; attempt <= 64; attempt++ {
		for range 50 {
			d := f(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, limit)
		}
	}
	// first retries stay in the neighbourhood of the initial median
	for range 100 {
		assert.Less(t, f(1), 3*time.Second)
	}
}

func TestCappedAndTotal(t *testing.T) {
	f := Linear(time.Second).Capped(2 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 2 * time.Second}, Schedule(f, 3))
	assert.Equal(t, 5*time.Second, Total(f, 3))
	assert.Empty(t, Schedule(f, -1))
	assert.Equal(t, time.Duration(math.MaxInt64), Total(Fixed(time.Duration(math.MaxInt64)), 3))
}

func TestNegativeArgumentsPanic(t *testing.T) {
	assert.Panics(t, func() { Fixed(-1) })
	assert.Panics(t, func() { Linear(-1) })
	assert.Panics(t, func() { Exponential(-1, time.Second) })
	assert.Panics(t, func() { Exponential(time.Second, -1) })
	assert.Panics(t, func() { Jittered(-1, time.Second) })
	assert.Panics(t, func() { Jittered(time.Second, time.Millisecond) })
	assert.Panics(t, func() { SoftExponential(-1, 0) })
}

func TestVeryLateAttemptsStayCapped(t *testing.T) {
	const limit = 20 * time.Second
	soft := SoftExponential(time.Second, limit)
	softUncapped := SoftExponential(time.Nanosecond, 0)
	expo := Exponential(time.Second, limit)
	for attempt := 1000; attempt <= 1100; attempt++ {
		assert.Equal(t, limit, soft(attempt), "attempt %d", attempt)
		assert.Equal(t, time.Duration(math.MaxInt64), softUncapped(attempt), "attempt %d", attempt)
		assert.Equal(t, limit, expo(attempt), "attempt %d", attempt)
		assert.Equal(t, time.Duration(math.MaxInt64), Exponential(3*time.Second, 0)(attempt), "attempt %d", attempt)
		assert.Zero(t, Exponential(0, 0)(attempt), "attempt %d", attempt)
		assert.Zero(t, SoftExponential(0, limit)(attempt), "attempt %d", attempt)
	}
	assert.Equal(t, limit, soft(math.MaxInt))
	assert.Equal(t, limit, expo(math.MaxInt))
}

func TestJitteredFullRange(t *testing.T) {
	f := Jittered(0, time.Duration(math.MaxInt64))
	for range 1000 {
		assert.GreaterOrEqual(t, f(1), time.Duration(0))
	}
	g := Jittered(time.Second, time.Duration(math.MaxInt64))
	assert.NotPanics(t, func() { g(1) })
}
