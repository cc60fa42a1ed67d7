package behavior

import (
	"math"
	"math/rand"
	"time"
)

// Rand is the injected randomness contract. *rand.Rand satisfies it; tests
// substitute fixed sequences.
type Rand interface {
	Float64() float64
	ExpFloat64() float64
}

var _ Rand = (*rand.Rand)(nil)

// uniform returns a value in [-magnitude, magnitude).
func uniform(rng Rand, magnitude float64) float64 {
	return (rng.Float64()*2 - 1) * magnitude
}

// uniformRange returns a value in [lo, hi).
func uniformRange(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// TemperatureCycle models a diurnal sine wave with noise:
// base + amplitude·sin(2π·t/period) + uniform(-noise, noise).
func TemperatureCycle(rng Rand, elapsed time.Duration, base, amplitude, noise float64, period time.Duration) float64 {
	phase := 2 * math.Pi * elapsed.Seconds() / period.Seconds()
	return base + amplitude*math.Sin(phase) + uniform(rng, noise)
}

// HumidityWalk advances a bounded random walk. The result never leaves
// [lower, upper] regardless of the starting value.
func HumidityWalk(rng Rand, current, step, lower, upper float64) float64 {
	return Clamp(current+uniform(rng, step), lower, upper)
}

// FlowCycle models airflow variation on a slower sine (double the cycle
// period) with noise, floored at zero.
func FlowCycle(rng Rand, elapsed time.Duration, base, amplitude, noise float64, period time.Duration) float64 {
	phase := 2 * math.Pi * elapsed.Seconds() / (2 * period.Seconds())
	return math.Max(0, base+amplitude*math.Sin(phase)+uniform(rng, noise))
}

// PressureWalk advances a random walk bounded below at zero.
func PressureWalk(rng Rand, current, step float64) float64 {
	return math.Max(0, current+uniform(rng, step))
}

// BinaryFlip toggles the state with per-tick probability p.
func BinaryFlip(rng Rand, current bool, p float64) bool {
	if rng.Float64() < p {
		return !current
	}
	return current
}

// MultistateRotate advances a 1-based state index cyclically through
// numStates. numStates < 2 is the caller's error to catch; this function
// simply returns the current value in that case.
func MultistateRotate(current, numStates int) int {
	if numStates < 2 {
		return current
	}
	return (current % numStates) + 1
}

// NextFaultInterval draws an exponentially distributed interval with the
// given mean, for scheduling the next transient fault.
func NextFaultInterval(rng Rand, mean time.Duration) time.Duration {
	return time.Duration(rng.ExpFloat64() * float64(mean))
}

// RefreshBounded redraws a slowly-changing environmental value uniformly in
// [lo, hi]. Used for points like measured maximum airflow capacity.
func RefreshBounded(rng Rand, lo, hi float64) float64 {
	return uniformRange(rng, lo, hi)
}

// OccupancyShift returns the one-time setpoint offset applied when the
// occupancy command transitions: +delta on occupied, -delta on vacated.
func OccupancyShift(occupied bool, delta float64) float64 {
	if occupied {
		return delta
	}
	return -delta
}
