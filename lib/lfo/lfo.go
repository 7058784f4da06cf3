// Package lfo holds the waveform generators the signal engine runs on rings
// whose LFO style is not STATIC.
//
// Generators read and advance the ring's own LfoPhase, LfoFrequency and
// LfoAmplitude, so replacing a generator keeps phase continuity. Anything a
// generator keeps for itself (noise seed, eased target) dies with it.
package lfo

import (
	"math/rand"

	"arcctl/lib/logging"
	"arcctl/lib/model"
)

var log = logging.New("lfo")

type Generator interface {
	Style() model.LfoStyle

	// Advance moves the generator dt seconds forward and returns its output,
	// a signal centred on zero. ok is false when the ring's current value
	// should be left as it is.
	Advance(r *model.RingState, dt float64) (out float64, ok bool)
}

// New returns a fresh generator for style. Unknown styles fall back to STATIC.
// rng feeds generators that draw random targets and may be nil.
func New(style model.LfoStyle, r *model.RingState, rng *rand.Rand) Generator {
	switch style {
	case model.LfoStatic:
		return static{}
	case model.LfoSine:
		return &periodic{style: style, shape: Sine}
	case model.LfoSaw:
		return &periodic{style: style, shape: Saw}
	case model.LfoSquare:
		return &periodic{style: style, shape: Square}
	case model.LfoTriangle:
		return &periodic{style: style, shape: Triangle}
	case model.LfoPerlin:
		return newNoiseWalk(r)
	case model.LfoRandomEase:
		return newRandomEase(rng)
	}
	log.Warnw("unknown lfo style, falling back", "style", style, "fallback", model.LfoStatic)
	return static{}
}

type static struct{}

func (static) Style() model.LfoStyle { return model.LfoStatic }

func (static) Advance(*model.RingState, float64) (float64, bool) { return 0, false }
