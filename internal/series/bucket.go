package series

import "math"

// StableBucket accumulates a running mean using the incremental update
// m += (x - m) / n, which stays accurate over long runs where a naive
// sum would lose precision.
//
// Size counts every Add, finite or not, so a bucket always spans a fixed
// number of raw samples. Only finite values contribute to the mean.
type StableBucket struct {
	size   int
	finite int
	mean   float64
}

// Add folds x into the bucket.
func (b *StableBucket) Add(x float64) {
	b.size++
	if !isFinite(x) {
		return
	}
	b.finite++
	n := float64(b.finite)
	if d := x - b.mean; isFinite(d) {
		b.mean += d / n
		return
	}
	b.mean += x/n - b.mean/n
}

// Size returns the number of values added, including non-finite ones.
func (b *StableBucket) Size() int {
	return b.size
}

// Mean returns the mean of the finite values added, or NaN if there are none.
func (b *StableBucket) Mean() float64 {
	if b.finite == 0 {
		return math.NaN()
	}
	return b.mean
}

// Empty reports whether nothing has been added since the last Reset.
func (b *StableBucket) Empty() bool {
	return b.size == 0
}

// Reset empties the bucket.
func (b *StableBucket) Reset() {
	*b = StableBucket{}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
