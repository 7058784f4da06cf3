package model

import "fmt"

// Preset is a bundle of styles applied to a ring in one step.
type Preset struct {
	Name       string     `yaml:"name" json:"name"`
	ValueStyle ValueStyle `yaml:"value_style" json:"valueStyle"`
	LedStyle   LedStyle   `yaml:"led_style" json:"ledStyle"`
	LfoStyle   LfoStyle   `yaml:"lfo_style" json:"lfoStyle"`
}

func (p Preset) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%s/%s/%s", p.ValueStyle, p.LedStyle, p.LfoStyle)
}

// Sanitized returns p with every unknown style tag replaced by its default
// (LINEAR, DOT, STATIC), logging each replacement.
func (p Preset) Sanitized() Preset {
	if !p.ValueStyle.Valid() {
		log.Warnw("unknown value style, falling back", "preset", p.Name, "style", p.ValueStyle, "fallback", ValueLinear)
		p.ValueStyle = ValueLinear
	}
	if !p.LedStyle.Valid() {
		log.Warnw("unknown led style, falling back", "preset", p.Name, "style", p.LedStyle, "fallback", LedDot)
		p.LedStyle = LedDot
	}
	if !p.LfoStyle.Valid() {
		log.Warnw("unknown lfo style, falling back", "preset", p.Name, "style", p.LfoStyle, "fallback", LfoStatic)
		p.LfoStyle = LfoStatic
	}
	return p
}

var DefaultPreset = Preset{
	Name:       "linear",
	ValueStyle: ValueLinear,
	LedStyle:   LedPotentiometer,
	LfoStyle:   LfoStatic,
}
