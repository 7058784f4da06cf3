package led

import (
	"math"

	"arcctl/lib/model"
)

// dot draws a point interpolated across two neighbouring LEDs and leaves a
// geometrically decaying tail behind it.
type dot struct {
	max    int
	decay  float64
	tail   []float64
	levels []int
}

func newDot(opts Options) *dot {
	return &dot{
		max:    opts.MaxBrightness,
		decay:  model.Clamp(opts.TailDecay, 0, 1),
		tail:   make([]float64, opts.LEDs),
		levels: make([]int, opts.LEDs),
	}
}

func (*dot) Style() model.LedStyle { return model.LedDot }

func (d *dot) Levels(value float64, vs model.ValueStyle) []int {
	n := len(d.tail)
	for i, f := range d.tail {
		d.tail[i] = f * d.decay
	}

	pos := math.Mod(Normalize(value, vs)*float64(n), float64(n))
	if pos < 0 {
		pos += float64(n)
	}
	lower := int(pos) % n
	upper := (lower + 1) % n
	frac := pos - math.Floor(pos)

	d.tail[lower] = math.Max(d.tail[lower], (1-frac)*float64(d.max))
	d.tail[upper] = math.Max(d.tail[upper], frac*float64(d.max))

	for i, f := range d.tail {
		d.levels[i] = clampLevel(int(math.Round(f)), d.max)
	}
	return d.levels
}
