package relax

import "github.com/and161185/relax-alerting/model"

// State is the detector state.
type State int

const (
	Armed State = iota
	Suppressed
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Suppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// Transition is the outcome of one evaluation.
type Transition int

const (
	NoChange Transition = iota
	Fired               // Armed -> Suppressed, a detection happened.
	Cleared             // Suppressed -> Armed.
)

// Detector is a two-state hysteresis gate over the relaxation score.
// A detection fires once per excursion below ThresholdLow and re-arms only
// after the score rises above ThresholdHigh.
type Detector struct {
	state State
	count int
}

// NewDetector returns an armed detector with no detections.
func NewDetector() *Detector {
	return &Detector{state: Armed}
}

// Evaluate applies score against the thresholds in s.
// ThresholdLow < ThresholdHigh is assumed and not checked.
func (d *Detector) Evaluate(score float64, s model.Settings) Transition {
	switch d.state {
	case Armed:
		if score < s.ThresholdLow {
			d.count++
			d.state = Suppressed
			return Fired
		}
	case Suppressed:
		if score > s.ThresholdHigh {
			d.state = Armed
			return Cleared
		}
	}
	return NoChange
}

// State returns the current state.
func (d *Detector) State() State { return d.state }

// Count returns the number of detections so far.
func (d *Detector) Count() int { return d.count }
