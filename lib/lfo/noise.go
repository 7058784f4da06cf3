package lfo

import (
	"math"
	"math/rand"

	perlin "github.com/aquilax/go-perlin"

	"arcctl/lib/model"
)

const (
	noiseAlpha   = 2
	noiseBeta    = 2
	noiseOctaves = 3
)

// noiseWalk samples 1D Perlin noise along an unbounded phase. The seed comes
// from the ring's CC number so each ring wanders differently but repeatably.
type noiseWalk struct {
	noise *perlin.Perlin
}

func newNoiseWalk(r *model.RingState) *noiseWalk {
	var seed int64
	if r != nil {
		seed = int64(r.CCNumber) * 10
	}
	return &noiseWalk{noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed)}
}

func (*noiseWalk) Style() model.LfoStyle { return model.LfoPerlin }

func (n *noiseWalk) Advance(r *model.RingState, dt float64) (float64, bool) {
	r.LfoPhase += r.LfoFrequency * dt
	return r.LfoAmplitude * n.noise.Noise1D(r.LfoPhase), true
}

const (
	EaseMaxInterval = 4.0
	EaseMinInterval = 0.1
	EaseCoefficient = 0.05
	EaseOutputScale = 1.0
)

// randomEase glides toward a target redrawn every interval; the interval
// shrinks linearly as frequency goes from 0 to 1.
type randomEase struct {
	rng    *rand.Rand
	target float64
	value  float64
	timer  float64
}

func newRandomEase(rng *rand.Rand) *randomEase {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	g := &randomEase{rng: rng}
	g.target = g.draw()
	return g
}

func (*randomEase) Style() model.LfoStyle { return model.LfoRandomEase }

func (g *randomEase) draw() float64 {
	return g.rng.Float64()*2 - 1
}

// EaseInterval is the redraw interval in seconds for a frequency.
func EaseInterval(freq float64) float64 {
	f := model.Clamp(freq, 0, 1)
	return EaseMaxInterval + (EaseMinInterval-EaseMaxInterval)*f
}

func (g *randomEase) Advance(r *model.RingState, dt float64) (float64, bool) {
	if r.LfoFrequency == 0 {
		return 0, false
	}
	if r.LfoAmplitude == 0 {
		return 0, true
	}
	interval := EaseInterval(r.LfoFrequency)
	g.timer += dt
	if g.timer > interval {
		g.timer = math.Mod(g.timer, interval)
		g.target = g.draw()
	}
	g.value += (g.target - g.value) * EaseCoefficient
	return r.LfoAmplitude * g.value * EaseOutputScale, true
}
