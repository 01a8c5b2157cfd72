// Package sensor provides heart-rate readings for the device.
package sensor

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/relax-alerting/internal/errs"
)

// Sensor produces one heart-rate reading in beats per minute per call.
// A reading of zero means no value is available right now.
type Sensor interface {
	Read(now time.Time) float64
}

// New builds the sensor named by kind:
//
//	simulated          synthetic heart rate around baseBPM
//	script:70,72,150   replays the listed readings in a loop
//
// Anything else reports errs.ErrSensorUnavailable.
func New(kind string, baseBPM float64, seed uint64) (Sensor, error) {
	switch {
	case kind == "simulated":
		return NewSimulator(baseBPM, seed), nil
	case strings.HasPrefix(kind, "script:"):
		return parseScript(strings.TrimPrefix(kind, "script:"))
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrSensorUnavailable, kind)
	}
}

// Simulator is a synthetic heart rate: a slow breathing-driven oscillation
// around a drifting baseline plus noise.
type Simulator struct {
	base    float64
	drift   float64
	rng     *rand.Rand
	breathe float64 // breaths per second
}

func NewSimulator(baseBPM float64, seed uint64) *Simulator {
	return &Simulator{
		base:    baseBPM,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		breathe: 0.25,
	}
}

func (s *Simulator) Read(now time.Time) float64 {
	t := float64(now.UnixMilli()) / 1000

	s.drift += (s.rng.Float64() - 0.5) * 0.5
	s.drift = math.Max(-15, math.Min(15, s.drift))

	rsa := 4 * math.Sin(2*math.Pi*s.breathe*t)
	noise := (s.rng.Float64()*2 - 1) * 1.5

	bpm := s.base + s.drift + rsa + noise
	if bpm < 30 {
		bpm = 30
	}
	return bpm
}

// Script replays a fixed list of readings.
type Script struct {
	values []float64
	next   int
}

func NewScript(values ...float64) *Script {
	return &Script{values: values}
}

func (s *Script) Read(time.Time) float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func parseScript(list string) (*Script, error) {
	var values []float64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("script reading %q: %w", part, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty script", errs.ErrSensorUnavailable)
	}
	return NewScript(values...), nil
}
