package model

type ValueStyle string

const (
	ValueLinear   ValueStyle = "linear"
	ValueBipolar  ValueStyle = "bipolar"
	ValueInfinite ValueStyle = "infinite"
	ValueMIDI7    ValueStyle = "midi_7_bit"
	ValueMIDI14   ValueStyle = "midi_14_bit"
)

// Valid reports whether s is a known value style.
func (s ValueStyle) Valid() bool {
	switch s {
	case ValueLinear, ValueBipolar, ValueInfinite, ValueMIDI7, ValueMIDI14:
		return true
	}
	return false
}

// Bounded reports whether values of this style are clamped to Range.
func (s ValueStyle) Bounded() bool {
	return s != ValueInfinite
}

// Range is the closed interval current values of this style live in. All
// bounded styles store a normalized value; BIPOLAR is centred on 0.5 and the
// MIDI styles are scaled to integers only at the sender.
func (s ValueStyle) Range() (lo, hi float64) {
	return 0, 1
}

// Clamp applies the style's range policy to v.
func (s ValueStyle) Clamp(v float64) float64 {
	if !s.Bounded() {
		return v
	}
	lo, hi := s.Range()
	return Clamp(v, lo, hi)
}

// Centre is the value a zero modulation signal maps to.
func (s ValueStyle) Centre() float64 {
	if !s.Bounded() {
		return 0
	}
	lo, hi := s.Range()
	return (lo + hi) / 2
}

type LedStyle string

const (
	LedPotentiometer LedStyle = "potentiometer"
	LedBipolar       LedStyle = "bipolar"
	LedDot           LedStyle = "dot"
	LedPerlin        LedStyle = "perlin"
)

func (s LedStyle) Valid() bool {
	switch s {
	case LedPotentiometer, LedBipolar, LedDot, LedPerlin:
		return true
	}
	return false
}

type LfoStyle string

const (
	LfoStatic     LfoStyle = "static"
	LfoSine       LfoStyle = "sine"
	LfoSaw        LfoStyle = "saw"
	LfoSquare     LfoStyle = "square"
	LfoTriangle   LfoStyle = "triangle"
	LfoPerlin     LfoStyle = "perlin"
	LfoRandomEase LfoStyle = "random_ease"
)

func (s LfoStyle) Valid() bool {
	switch s {
	case LfoStatic, LfoSine, LfoSaw, LfoSquare, LfoTriangle, LfoPerlin, LfoRandomEase:
		return true
	}
	return false
}

var (
	ValueStyles = []ValueStyle{ValueLinear, ValueBipolar, ValueInfinite, ValueMIDI7, ValueMIDI14}
	LedStyles   = []LedStyle{LedPotentiometer, LedBipolar, LedDot, LedPerlin}
	LfoStyles   = []LfoStyle{LfoStatic, LfoSine, LfoSaw, LfoSquare, LfoTriangle, LfoPerlin, LfoRandomEase}
)

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
