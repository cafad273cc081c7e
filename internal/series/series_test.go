package series

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/sparcli/internal/errors"
)

const delta = 1e-9

func feed(s *CompactingSeries, values ...float64) {
	for _, v := range values {
		s.Add(v)
	}
}

func TestNew_RejectsInvalidSize(t *testing.T) {
	for _, size := range []int{-2, 0, 1, 3, 7} {
		_, err := New(size, 0)
		require.Error(t, err, "New(%d)", size)
		assert.True(t, errors.Is(err, errors.ErrInvalidSeriesSize), "New(%d) error = %v", size, err)
		assert.Contains(t, strings.ToLower(err.Error()), "multiple of 2")
	}
}

func TestNew_RejectsNegativeScale(t *testing.T) {
	_, err := New(4, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestCompactingSeries_Compacts(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
		scale  int
	}{
		{"empty", nil, []float64{}, 1},
		{"single", []float64{1}, []float64{1}, 1},
		{"fills and compacts", []float64{1, 2, 3, 4}, []float64{1.5, 3.5}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(4, 0)
			require.NoError(t, err)
			feed(s, tt.values...)

			assert.Equal(t, tt.scale, s.Scale())
			assert.InDeltaSlice(t, tt.want, s.Values(), delta)
		})
	}
}

func TestCompactingSeries_PartialBucket(t *testing.T) {
	s, err := New(4, 0)
	require.NoError(t, err)
	feed(s, 1, 2, 3, 4, 5)

	assert.Equal(t, 2, s.Scale())
	assert.Equal(t, 2, s.ScaleExp())
	assert.InDeltaSlice(t, []float64{1.5, 3.5}, s.Tail(), delta)

	head := s.Head()
	assert.Equal(t, 1, head.Size())
	assert.InDelta(t, 5.0, head.Mean(), delta)

	assert.InDeltaSlice(t, []float64{1.5, 3.5, (3.5*2 + 5) / 3}, s.Values(), delta)
}

func TestCompactingSeries_WeightedHeadSize2(t *testing.T) {
	tests := []struct {
		values []float64
		tail   []float64
		want   []float64
	}{
		{nil, []float64{}, []float64{}},
		{[]float64{1}, []float64{1}, []float64{1}},
		{[]float64{1, 2, 3}, []float64{1.5}, []float64{1.5, 2}},
	}

	for _, tt := range tests {
		s, err := New(2, 0)
		require.NoError(t, err)
		feed(s, tt.values...)

		assert.InDeltaSlice(t, tt.tail, s.Tail(), delta, "tail after %v", tt.values)
		assert.InDeltaSlice(t, tt.want, s.Values(), delta, "values after %v", tt.values)
	}
}

func TestCompactingSeries_MaxScaleTruncates(t *testing.T) {
	s, err := New(4, 1)
	require.NoError(t, err)
	feed(s, 1, 2, 3, 4)

	assert.Equal(t, 1, s.Scale())
	assert.InDeltaSlice(t, []float64{2, 3, 4}, s.Values(), delta)

	feed(s, 5)
	assert.InDeltaSlice(t, []float64{3, 4, 5}, s.Values(), delta)
}

func TestCompactingSeries_MaxScaleAfterCompaction(t *testing.T) {
	s, err := New(4, 2)
	require.NoError(t, err)
	feed(s, 1, 2, 3, 4, 5, 6, 7, 8)

	// One compaction to scale 2, then buckets of two: [1.5 3.5 5.5 7.5]
	// fills up and drops its oldest point.
	assert.Equal(t, 2, s.Scale())
	assert.InDeltaSlice(t, []float64{3.5, 5.5, 7.5}, s.Values(), delta)
}

func TestCompactingSeries_BoundedLength(t *testing.T) {
	for _, size := range []int{2, 4, 6, 30, 64} {
		s, err := New(size, 0)
		require.NoError(t, err)
		for i := 0; i < 5000; i++ {
			s.Add(float64(i % 17))
			if n := len(s.Values()); n > size {
				t.Fatalf("New(%d): len(Values()) = %d after %d adds", size, n, i+1)
			}
		}
	}
}

func TestCompactingSeries_NonFinite(t *testing.T) {
	s, err := New(4, 0)
	require.NoError(t, err)
	feed(s, math.NaN(), 2, math.Inf(1), 4)

	// Scale 1 stores each sample as its own bucket: NaN, 2, NaN, 4.
	// Compaction substitutes the finite partner for each NaN.
	assert.InDeltaSlice(t, []float64{2, 4}, s.Values(), delta)

	feed(s, math.NaN())
	vals := s.Values()
	require.Len(t, vals, 3)
	assert.InDelta(t, 4.0, vals[2], delta, "a NaN-only head must not disturb the last point")
}

func TestCompactingSeries_AllNonFinite(t *testing.T) {
	s, err := New(2, 0)
	require.NoError(t, err)
	feed(s, math.NaN(), math.Inf(-1), math.NaN())

	vals := s.Values()
	require.Len(t, vals, 2)
	for i, v := range vals {
		assert.True(t, math.IsNaN(v), "Values()[%d] = %v, want NaN", i, v)
	}
}

func TestCompactingSeries_ValuesIsCopy(t *testing.T) {
	s, err := New(4, 0)
	require.NoError(t, err)
	feed(s, 1, 2)

	vals := s.Values()
	vals[0] = 99
	assert.InDeltaSlice(t, []float64{1, 2}, s.Values(), delta)
}
