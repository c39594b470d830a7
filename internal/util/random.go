package util

import (
	"math"
	"math/rand/v2"
	"time"
)

// RandomStepped draws a uniformly random value from the stepped range
// [start, stop]: candidates are start, start+step, start+2*step and so on,
// with stop itself always included. Results are rounded to two decimals and
// clamped at zero. A step outside (0, 1] widens to the whole range.
func RandomStepped(start, stop, step float64) float64 {
	if stop <= start {
		return math.Max(0, round2(start))
	}
	if step <= 0 || step > 1 {
		step = stop - start
	}

	n := int(math.Floor((stop-start)/step)) + 1
	values := make([]float64, 0, n+1)
	for x := 0; x < n; x++ {
		values = append(values, start+float64(x)*step)
	}
	if stop-values[len(values)-1] > 1e-9 {
		values = append(values, stop)
	}

	return math.Max(0, round2(values[rand.IntN(len(values))]))
}

// RandomSteppedDuration is RandomStepped with the bounds given in seconds.
func RandomSteppedDuration(startSec, stopSec, step float64) time.Duration {
	return time.Duration(RandomStepped(startSec, stopSec, step) * float64(time.Second))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
