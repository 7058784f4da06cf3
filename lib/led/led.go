// Package led composes a ring's value into per-LED brightness levels.
package led

import (
	"math"

	"arcctl/lib/logging"
	"arcctl/lib/model"
)

var log = logging.New("led")

const DefaultTailDecay = 0.9

type Options struct {
	LEDs          int
	MaxBrightness int
	TailDecay     float64
	Seed          int64
}

// Style turns a value into LEDs levels in [0, MaxBrightness]. The returned
// slice belongs to the style and is overwritten by the next call.
type Style interface {
	Style() model.LedStyle
	Levels(value float64, vs model.ValueStyle) []int
}

// New returns a fresh instance of style. Unknown styles fall back to DOT.
func New(style model.LedStyle, opts Options) Style {
	switch style {
	case model.LedDot:
		return newDot(opts)
	case model.LedPotentiometer:
		return newPotentiometer(opts)
	case model.LedBipolar:
		return newBipolar(opts)
	case model.LedPerlin:
		return newPerlin(opts)
	}
	log.Warnw("unknown led style, falling back", "style", style, "fallback", model.LedDot)
	return newDot(opts)
}

// Normalize maps a value onto [0,1]. INFINITE values wrap; every other style
// is already normalized by its owner.
func Normalize(v float64, vs model.ValueStyle) float64 {
	if vs != model.ValueInfinite {
		return v
	}
	n := math.Mod(v, 1)
	if n < 0 {
		n++
	}
	if n >= 1 {
		n = 0
	}
	return n
}

func clampLevel(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
