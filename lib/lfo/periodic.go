package lfo

import (
	"math"

	"arcctl/lib/model"
)

// Shapes map a phase in [0,1) to [-1,1].
func Sine(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

// Saw ramps from -1 to +1 and jumps back at the wrap.
func Saw(phase float64) float64 {
	return 2*phase - 1
}

func Square(phase float64) float64 {
	if phase < 0.5 {
		return 1
	}
	return -1
}

func Triangle(phase float64) float64 {
	return 4*math.Abs(phase-0.5) - 1
}

type periodic struct {
	style model.LfoStyle
	shape func(float64) float64
}

func (p *periodic) Style() model.LfoStyle { return p.style }

func (p *periodic) Advance(r *model.RingState, dt float64) (float64, bool) {
	r.LfoPhase = wrapPhase(r.LfoPhase + r.LfoFrequency*dt)
	return r.LfoAmplitude * p.shape(r.LfoPhase), true
}

func wrapPhase(p float64) float64 {
	p -= math.Floor(p)
	if p >= 1 {
		p = 0
	}
	return p
}
