package relax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDurationFromBPM(t *testing.T) {
	cases := []struct {
		name string
		bpm  float64
		want float64
		ok   bool
	}{
		{"sixty", 60, 1, true},
		{"one_twenty", 120, 0.5, true},
		{"zero", 0, 0, false},
		{"negative", -72, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DurationFromBPM(tc.bpm)
			require.Equal(t, tc.ok, ok)
			require.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestBuffer_AppendKeepsOrderAndSum(t *testing.T) {
	b := NewBuffer()
	b.Append(1.0, 1000)
	b.Append(1.5, 2000)
	b.Append(0.5, 3000)

	require.Equal(t, 3, b.Len())
	require.InDelta(t, 3.0, b.Sum(), 1e-12)
	require.EqualValues(t, 1000, b.First().Timestamp)
	require.EqualValues(t, 3000, b.Last().Timestamp)
}

func TestBuffer_EvictRespectsWindow(t *testing.T) {
	b := NewBuffer()
	for ts := int64(0); ts <= 10_000; ts += 500 {
		b.Append(0.8, ts)
	}

	now := int64(10_000)
	retention := int64(3000)
	removed := b.Evict(now, retention)

	cutoff := now - retention
	for _, s := range b.Samples() {
		require.GreaterOrEqual(t, s.Timestamp, cutoff)
	}
	// 0..6500 step 500 are older than 7000.
	require.Equal(t, 14, removed)
	require.EqualValues(t, cutoff, b.First().Timestamp)
	require.InDelta(t, 0.8*float64(b.Len()), b.Sum(), 1e-9)
}

func TestBuffer_EvictStopsAtFirstRetained(t *testing.T) {
	b := NewBuffer()
	b.Append(1, 5000)
	b.Append(1, 9000)

	require.Zero(t, b.Evict(9500, 5000))
	require.Equal(t, 2, b.Len())
	require.Equal(t, 1, b.Evict(10_001, 5000))
	require.Equal(t, 1, b.Len())
}

func TestBuffer_EvictAllResetsSum(t *testing.T) {
	b := NewBuffer()
	b.Append(0.1, 0)
	b.Append(0.2, 1)
	b.Append(0.7, 2)

	require.Equal(t, 3, b.Evict(1_000_000, 1000))
	require.Zero(t, b.Len())
	require.Zero(t, b.Sum())
}

func TestBuffer_SamplesIsCopy(t *testing.T) {
	b := NewBuffer()
	b.Append(1, 1)
	s := b.Samples()
	s[0].Duration = 42
	require.InDelta(t, 1.0, b.First().Duration, 1e-12)
}
