package relax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore_NeedsTwoSamples(t *testing.T) {
	b := NewBuffer()
	_, ok := Score(b)
	require.False(t, ok)

	b.Append(1.0, 0)
	_, ok = Score(b)
	require.False(t, ok)
}

func TestScore_TwoSamples(t *testing.T) {
	b := NewBuffer()
	b.Append(1.0, 0)
	b.Append(1.5, 1000)

	got, ok := Score(b)
	require.True(t, ok)
	require.InDelta(t, 1.8028, got, 1e-3)
	require.InDelta(t, math.Sqrt(1+2.25), got, 1e-12)
}

func TestScore_ManySamples(t *testing.T) {
	b := NewBuffer()
	durations := []float64{0.8, 0.9, 1.0, 0.7}
	for i, d := range durations {
		b.Append(d, int64(i)*1000)
	}

	// sum=3.4, first=0.8, last=0.7, n-1=3
	x := (3.4 - 0.7) / 3
	y := (3.4 - 0.8) / 3
	got, ok := Score(b)
	require.True(t, ok)
	require.InDelta(t, math.Hypot(x, y), got, 1e-12)
}

func TestScore_AfterEviction(t *testing.T) {
	b := NewBuffer()
	b.Append(5.0, 0)
	b.Append(1.0, 2000)
	b.Append(1.5, 3000)
	b.Evict(3000, 1000)

	got, ok := Score(b)
	require.True(t, ok)
	require.InDelta(t, 1.8028, got, 1e-3)
}
