// Package relax turns heart-rate readings into a relaxation score and
// decides when a low score is worth an alert.
package relax

import (
	"math"

	"github.com/and161185/relax-alerting/model"
)

// DurationFromBPM converts a heart-rate reading into an inter-beat duration in seconds.
// Readings that are not strictly positive are rejected.
func DurationFromBPM(bpm float64) (float64, bool) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return 0, false
	}
	return 60 / bpm, true
}

// Buffer keeps inter-beat durations in timestamp order and evicts the ones
// that fall out of the retention window. It keeps a running total of durations.
type Buffer struct {
	samples []model.Sample
	sum     float64
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a sample stamped with nowMs.
func (b *Buffer) Append(duration float64, nowMs int64) {
	b.samples = append(b.samples, model.Sample{Timestamp: nowMs, Duration: duration})
	b.sum += duration
}

// Evict drops samples older than nowMs - retentionMs and returns how many were removed.
func (b *Buffer) Evict(nowMs, retentionMs int64) int {
	cutoff := nowMs - retentionMs

	i := 0
	for i < len(b.samples) && b.samples[i].Timestamp < cutoff {
		b.sum -= b.samples[i].Duration
		i++
	}
	if i == 0 {
		return 0
	}

	b.samples = append(b.samples[:0], b.samples[i:]...)
	if len(b.samples) == 0 {
		b.sum = 0
	}
	return i
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int { return len(b.samples) }

// Sum returns the total of retained durations.
func (b *Buffer) Sum() float64 { return b.sum }

// First returns the oldest sample. It panics on an empty buffer.
func (b *Buffer) First() model.Sample { return b.samples[0] }

// Last returns the newest sample. It panics on an empty buffer.
func (b *Buffer) Last() model.Sample { return b.samples[len(b.samples)-1] }

// Samples returns a copy of the retained samples.
func (b *Buffer) Samples() []model.Sample {
	out := make([]model.Sample, len(b.samples))
	copy(out, b.samples)
	return out
}
