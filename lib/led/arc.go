package led

import (
	"math"

	"arcctl/lib/model"
)

// Arc geometry is laid out for a 64 LED ring with LED 0 at the top and
// scaled to other ring sizes.
func scaleIndex(i64, n int) int {
	return int(math.Round(float64(i64*n)/64)) % n
}

// potentiometer lights a clockwise arc from the lower left to the lower
// right, ramping from 1 at the start to max at the value's position.
type potentiometer struct {
	max    int
	arc    []int
	levels []int
}

func newPotentiometer(opts Options) *potentiometer {
	n := opts.LEDs
	start, end := scaleIndex(40, n), scaleIndex(24, n)
	var arc []int
	for i := start; ; i = (i + 1) % n {
		arc = append(arc, i)
		if i == end {
			break
		}
	}
	return &potentiometer{max: opts.MaxBrightness, arc: arc, levels: make([]int, n)}
}

func (*potentiometer) Style() model.LedStyle { return model.LedPotentiometer }

func (p *potentiometer) Levels(value float64, vs model.ValueStyle) []int {
	clear(p.levels)

	norm := model.Clamp(Normalize(value, vs), 0, 1)
	pos := norm * float64(len(p.arc)-1)
	lead := int(math.Floor(pos))
	if pos > float64(lead) {
		lead++
	}
	if lead == 0 {
		p.levels[p.arc[0]] = 1
		return p.levels
	}
	for k := 0; k <= lead; k++ {
		b := 1 + float64(p.max-1)*float64(k)/float64(lead)
		p.levels[p.arc[k]] = clampLevel(int(math.Round(b)), p.max)
	}
	return p.levels
}

// bipolar marks the top centre and both ends of the range, then fills a dim
// band from the centre toward the side the value leans to.
type bipolar struct {
	max    int
	right  int
	left   int
	span   int
	levels []int
}

func newBipolar(opts Options) *bipolar {
	n := opts.LEDs
	right := scaleIndex(21, n)
	return &bipolar{
		max:    opts.MaxBrightness,
		right:  right,
		left:   (n - right) % n,
		span:   right,
		levels: make([]int, n),
	}
}

func (*bipolar) Style() model.LedStyle { return model.LedBipolar }

func (b *bipolar) Levels(value float64, vs model.ValueStyle) []int {
	n := len(b.levels)
	clear(b.levels)

	dim := b.max / 4
	if dim < 1 {
		dim = 1
	}
	b.levels[0] = b.max
	b.levels[b.left] = dim
	b.levels[b.right] = dim

	c := model.Clamp(Normalize(value, vs)-0.5, -0.5, 0.5)
	steps := int(math.Round(math.Abs(c) * float64(b.span) * 2))
	sign := 1
	if c < 0 {
		sign = -1
	}
	for s := 1; s <= steps; s++ {
		b.levels[((sign*s)%n+n)%n] = dim
	}
	return b.levels
}
