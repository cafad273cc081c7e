package series

import (
	"math"

	"github.com/Iron-Ham/sparcli/internal/errors"
)

// Normalize maps values linearly onto [0, 1] using the minimum and maximum
// of the finite entries. When every finite entry is equal, or there are
// none, finite entries map to 0.5. Non-finite entries map to NaN.
func Normalize(values []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range values {
		if !isFinite(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}

	// Halved so the range of two finite extremes cannot overflow.
	span := hi/2 - lo/2
	out := make([]float64, len(values))
	for i, x := range values {
		switch {
		case !isFinite(x):
			out[i] = math.NaN()
		case span > 0:
			out[i] = (x/2 - lo/2) / span
		default:
			out[i] = 0.5
		}
	}
	return out
}

// Compact halves values by averaging each consecutive pair. If one member
// of a pair is not finite the other is used as is; a pair with no finite
// member yields NaN. values must have even length.
func Compact(values []float64) ([]float64, error) {
	if len(values)%2 != 0 {
		return nil, errors.Wrapf(errors.ErrOddLength, "compact %d values", len(values))
	}
	out := make([]float64, len(values))
	copy(out, values)
	return compactInPlace(out), nil
}

// compactInPlace performs Compact reusing the backing array of values.
func compactInPlace(values []float64) []float64 {
	n := len(values) / 2
	for k := 0; k < n; k++ {
		values[k] = pairMean(values[2*k], values[2*k+1])
	}
	return values[:n]
}

func pairMean(a, b float64) float64 {
	switch {
	case isFinite(a) && isFinite(b):
		if m := (a + b) / 2; isFinite(m) {
			return m
		}
		return a/2 + b/2
	case isFinite(a):
		return a
	case isFinite(b):
		return b
	default:
		return math.NaN()
	}
}
