package relax

import (
	"math"

	"github.com/and161185/relax-alerting/model"
)

// MinSamples is the smallest window a score can be computed from.
const MinSamples = 2

// Window is what the estimator needs from a sample buffer.
type Window interface {
	Len() int
	Sum() float64
	First() model.Sample
	Last() model.Sample
}

// Score reduces the window to a single relaxation value.
//
// The window is split into two overlapping partial means, one without the newest
// sample and one without the oldest, and the score is the Euclidean norm of the pair.
// ok is false when the window holds fewer than MinSamples samples.
func Score(w Window) (score float64, ok bool) {
	n := w.Len()
	if n < MinSamples {
		return 0, false
	}

	sum := w.Sum()
	k := float64(n - 1)
	centerX := (sum - w.Last().Duration) / k
	centerY := (sum - w.First().Duration) / k

	return math.Sqrt(centerX*centerX + centerY*centerY), true
}
