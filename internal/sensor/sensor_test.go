package sensor

import (
	"testing"
	"time"

	"github.com/and161185/relax-alerting/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestNew_Unavailable(t *testing.T) {
	for _, kind := range []string{"", "optical", "script:"} {
		_, err := New(kind, 72, 1)
		require.ErrorIs(t, err, errs.ErrSensorUnavailable, kind)
	}
}

func TestNew_BadScript(t *testing.T) {
	_, err := New("script:70,abc", 72, 1)
	require.Error(t, err)
}

func TestScript_Loops(t *testing.T) {
	s, err := New("script:70, 80,0", 0, 0)
	require.NoError(t, err)
	now := time.Now()
	var got []float64
	for i := 0; i < 5; i++ {
		got = append(got, s.Read(now))
	}
	require.Equal(t, []float64{70, 80, 0, 70, 80}, got)
	require.Zero(t, NewScript().Read(now))
}

func TestSimulator_StaysPlausibleAndDeterministic(t *testing.T) {
	a := NewSimulator(72, 42)
	b := NewSimulator(72, 42)
	start := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 1000; i++ {
		now := start.Add(time.Duration(i) * time.Second)
		va, vb := a.Read(now), b.Read(now)
		require.Equal(t, va, vb)
		require.Greater(t, va, 40.0)
		require.Less(t, va, 110.0)
	}
}
