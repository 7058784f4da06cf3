package led

import (
	"math"

	perlin "github.com/aquilax/go-perlin"

	"arcctl/lib/model"
)

const (
	perlinMinRadius     = math.Phi / 2
	perlinRadiusScale   = 5.0
	perlinMoveSpeed     = 0.1
	perlinCrawl         = 0.01
	perlinYScale        = 0.3
	perlinBrightScale   = 2.0
	perlinBrightOffset  = 0.5
	perlinPositionLimit = 1e4
	perlinAlpha         = 2
	perlinBeta          = 2
	perlinOctaves       = 3
)

// noiseCircle samples 2D noise around a circle whose radius grows with the
// value. The scan position only moves while the value does.
type noiseCircle struct {
	max      int
	noise    *perlin.Perlin
	cos, sin []float64
	position float64
	prev     float64
	levels   []int
}

func newPerlin(opts Options) *noiseCircle {
	n := opts.LEDs
	c := &noiseCircle{
		max:    opts.MaxBrightness,
		noise:  perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, opts.Seed),
		cos:    make([]float64, n),
		sin:    make([]float64, n),
		levels: make([]int, n),
	}
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		c.cos[i], c.sin[i] = math.Cos(a), math.Sin(a)
	}
	return c
}

func (*noiseCircle) Style() model.LedStyle { return model.LedPerlin }

func (c *noiseCircle) Levels(value float64, vs model.ValueStyle) []int {
	norm := Normalize(value, vs)
	radius := perlinMinRadius + norm*perlinRadiusScale
	if norm != c.prev {
		c.position += norm*perlinMoveSpeed + perlinCrawl
	}
	c.prev = norm

	pos := c.position
	y := perlinYScale * pos
	for i := range c.levels {
		n := c.noise.Noise2D(radius*c.cos[i]+pos, radius*c.sin[i]+y)
		raw := (n*perlinBrightScale + perlinBrightOffset) * float64(c.max)
		c.levels[i] = clampLevel(int(raw), c.max)
	}
	if pos > perlinPositionLimit {
		c.position = 0
	}
	return c.levels
}
