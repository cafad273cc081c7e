// Package series implements the bounded-memory history behind each
// sparkline.
//
// A CompactingSeries keeps at most MaxSize points. Recent samples are held
// at full resolution; whenever the stored points fill up they are averaged
// pairwise, halving the resolution of the whole history and doubling the
// number of raw samples each new point covers. An unbounded stream therefore
// fits in constant memory while keeping its overall shape.
//
// NaN marks a point with no finite samples and is preserved by every
// operation in this package.
package series

import (
	"math"

	"github.com/Iron-Ham/sparcli/internal/errors"
)

// CompactingSeries is a fixed-capacity, adaptively downsampled history of
// float64 samples. It is not safe for concurrent use.
type CompactingSeries struct {
	maxSize  int
	maxScale int

	tail     []float64
	head     StableBucket
	scale    int
	scaleExp int
}

// New creates a CompactingSeries holding at most maxSize points. maxSize
// must be a positive multiple of 2.
//
// maxScale caps compaction: once the series has compacted to scale
// maxScale, a full history drops its oldest point instead of compacting
// again, so the series becomes a sliding window at that resolution. Zero
// means no cap.
func New(maxSize, maxScale int) (*CompactingSeries, error) {
	if maxSize < 2 || maxSize%2 != 0 {
		return nil, errors.NewValidationError("max size must be a multiple of 2").
			WithField("max_size").
			WithValue(maxSize).
			WithCause(errors.ErrInvalidSeriesSize)
	}
	if maxScale < 0 {
		return nil, errors.NewValidationError("max scale must not be negative").
			WithField("max_scale").
			WithValue(maxScale)
	}
	return &CompactingSeries{
		maxSize:  maxSize,
		maxScale: maxScale,
		tail:     make([]float64, 0, maxSize),
		scale:    1,
		scaleExp: 1,
	}, nil
}

// Add records one sample.
func (s *CompactingSeries) Add(x float64) {
	s.head.Add(x)
	if s.head.Size() < s.scaleExp {
		return
	}

	s.tail = append(s.tail, s.head.Mean())
	s.head.Reset()

	if len(s.tail) < s.maxSize {
		return
	}
	if s.maxScale > 0 && s.scale >= s.maxScale {
		copy(s.tail, s.tail[1:])
		s.tail = s.tail[:len(s.tail)-1]
		return
	}
	s.tail = compactInPlace(s.tail)
	s.scale++
	s.scaleExp *= 2
}

// Values returns the points to display, oldest first. When a bucket is
// partially filled, a final point blends the last finalized point with the
// partial bucket's mean, weighted by the number of raw samples behind each,
// so the newest point moves with every sample instead of once per bucket.
// The result never holds more than MaxSize points.
func (s *CompactingSeries) Values() []float64 {
	out := make([]float64, len(s.tail), len(s.tail)+1)
	copy(out, s.tail)
	if s.head.Empty() {
		return out
	}

	current := s.head.Mean()
	if len(s.tail) == 0 {
		return append(out, current)
	}
	last := s.tail[len(s.tail)-1]
	return append(out, weightedMean(last, float64(s.scaleExp), current, float64(s.head.Size())))
}

// weightedMean averages a and b with weights wa and wb. A non-finite
// operand drops out; if both are non-finite the result is NaN.
func weightedMean(a, wa, b, wb float64) float64 {
	switch {
	case isFinite(a) && isFinite(b):
		w := wa + wb
		if m := (a*wa + b*wb) / w; isFinite(m) {
			return m
		}
		// The mean of finite values is finite; only the products overflowed.
		m := a*(wa/w) + b*(wb/w)
		if math.IsInf(m, 0) {
			return math.Copysign(math.MaxFloat64, m)
		}
		return m
	case isFinite(a):
		return a
	case isFinite(b):
		return b
	default:
		return math.NaN()
	}
}

// Tail returns a copy of the finalized points.
func (s *CompactingSeries) Tail() []float64 {
	out := make([]float64, len(s.tail))
	copy(out, s.tail)
	return out
}

// Head returns a copy of the partial bucket.
func (s *CompactingSeries) Head() StableBucket {
	return s.head
}

// Scale returns the current compaction level, starting at 1.
func (s *CompactingSeries) Scale() int {
	return s.scale
}

// ScaleExp returns the number of raw samples behind each new point,
// 2^(Scale-1).
func (s *CompactingSeries) ScaleExp() int {
	return s.scaleExp
}

// MaxSize returns the capacity.
func (s *CompactingSeries) MaxSize() int {
	return s.maxSize
}

// MaxScale returns the compaction cap, or 0 when uncapped.
func (s *CompactingSeries) MaxScale() int {
	return s.maxScale
}

// Len returns the number of finalized points.
func (s *CompactingSeries) Len() int {
	return len(s.tail)
}
