// Package model holds the layer/ring state tree shared by the mode handlers,
// the signal engine and the LED renderer. It has no behaviour beyond small
// mutation helpers and is only ever touched from the control loop.
package model

import (
	"fmt"

	"arcctl/lib/logging"
)

var log = logging.New("model")

// RingDefaults are the per-ring values every ring starts with.
type RingDefaults struct {
	ValueGain    float64
	LfoFreqGain  float64
	LfoFrequency float64
	LfoAmplitude float64
}

var DefaultRing = RingDefaults{
	ValueGain:    0.001,
	LfoFreqGain:  0.0005,
	LfoFrequency: 0.5,
	LfoAmplitude: 0.5,
}

type Options struct {
	NumLayers int
	Rings     int
	CCBase    int
	Presets   []Preset
	Ring      RingDefaults
}

type Model struct {
	Layers []*LayerState

	activeLayer int
}

type LayerState struct {
	Name  string
	Rings []*RingState
}

type RingState struct {
	Layer int
	Index int

	Value      float64
	CCNumber   int
	ValueStyle ValueStyle
	LedStyle   LedStyle
	LfoStyle   LfoStyle

	LfoFrequency float64
	LfoAmplitude float64
	LfoPhase     float64

	PresetIndex int
	ValueGain   float64
	LfoFreqGain float64

	presets []Preset
}

// New builds the state tree. CC numbers are assigned once, in layer-major
// order starting at CCBase, and every ring starts on the first preset.
func New(opts Options) (*Model, error) {
	if opts.NumLayers < 1 {
		return nil, fmt.Errorf("model: num layers %d < 1", opts.NumLayers)
	}
	if opts.Rings < 1 {
		return nil, fmt.Errorf("model: rings %d < 1", opts.Rings)
	}
	if opts.Ring == (RingDefaults{}) {
		opts.Ring = DefaultRing
	}

	m := &Model{Layers: make([]*LayerState, opts.NumLayers)}
	for l := range m.Layers {
		layer := &LayerState{
			Name:  fmt.Sprintf("L%d", l),
			Rings: make([]*RingState, opts.Rings),
		}
		for r := range layer.Rings {
			ring := &RingState{
				Layer:        l,
				Index:        r,
				CCNumber:     opts.CCBase + l*opts.Rings + r,
				ValueStyle:   DefaultPreset.ValueStyle,
				LedStyle:     DefaultPreset.LedStyle,
				LfoStyle:     DefaultPreset.LfoStyle,
				LfoFrequency: opts.Ring.LfoFrequency,
				LfoAmplitude: opts.Ring.LfoAmplitude,
				ValueGain:    opts.Ring.ValueGain,
				LfoFreqGain:  opts.Ring.LfoFreqGain,
			}
			ring.SetPresets(opts.Presets)
			if len(opts.Presets) > 0 {
				ring.ApplyPreset(opts.Presets[0])
			}
			layer.Rings[r] = ring
		}
		m.Layers[l] = layer
	}
	return m, nil
}

func (m *Model) ActiveLayerIdx() int {
	return m.activeLayer
}

func (m *Model) ActiveLayer() *LayerState {
	return m.Layers[m.activeLayer]
}

// Ring returns ring idx of the active layer, or nil if idx is out of range.
func (m *Model) Ring(idx int) *RingState {
	rings := m.ActiveLayer().Rings
	if idx < 0 || idx >= len(rings) {
		return nil
	}
	return rings[idx]
}

// CycleLayer moves the active layer by step, wrapping in both directions.
func (m *Model) CycleLayer(step int) {
	next := wrap(m.activeLayer+step, len(m.Layers))
	log.Infow("layer changed", "from", m.activeLayer, "to", next)
	m.activeLayer = next
}

// SetPresets rebinds every ring to a new shared preset list.
func (m *Model) SetPresets(presets []Preset) {
	for _, layer := range m.Layers {
		for _, ring := range layer.Rings {
			ring.SetPresets(presets)
		}
	}
}

// Each calls fn for every ring of every layer, layer-major.
func (m *Model) Each(fn func(layer, ring int, r *RingState)) {
	for l, layer := range m.Layers {
		for i, ring := range layer.Rings {
			fn(l, i, ring)
		}
	}
}

func (r *RingState) String() string {
	return fmt.Sprintf("L%d/R%d", r.Layer, r.Index)
}

func (r *RingState) Presets() []Preset {
	return r.presets
}

// SetPresets binds the ring to a preset list shared with its siblings and
// pulls PresetIndex back into range.
func (r *RingState) SetPresets(presets []Preset) {
	r.presets = presets
	if len(presets) == 0 {
		r.PresetIndex = 0
		return
	}
	if r.PresetIndex >= len(presets) {
		r.setPresetIndex(len(presets) - 1)
	}
}

// ApplyPreset replaces the three style tags. A BIPOLAR value or LED style
// recentres the value on 0.5.
func (r *RingState) ApplyPreset(p Preset) {
	p = p.Sanitized()
	if r.ValueStyle != p.ValueStyle || r.LedStyle != p.LedStyle || r.LfoStyle != p.LfoStyle {
		log.Infow("preset applied", "ring", r.String(), "preset", p.String())
	}
	r.ValueStyle = p.ValueStyle
	r.LedStyle = p.LedStyle
	r.LfoStyle = p.LfoStyle
	if p.ValueStyle == ValueBipolar || p.LedStyle == LedBipolar {
		r.SetValue(0.5)
	}
}

// CyclePreset moves PresetIndex by step (either sign, wrapping) and applies
// the preset it lands on.
func (r *RingState) CyclePreset(step int) {
	if len(r.presets) == 0 {
		log.Warnw("preset list is empty, cannot cycle", "ring", r.String())
		return
	}
	r.setPresetIndex(wrap(r.PresetIndex+step, len(r.presets)))
	r.ApplyPreset(r.presets[r.PresetIndex])
}

// ApplyDelta moves the value by delta*ValueGain under the style's range policy.
func (r *RingState) ApplyDelta(delta float64) {
	r.SetValue(r.Value + delta*r.ValueGain)
}

// ApplyLfoDelta moves the LFO frequency by delta*LfoFreqGain within [0,1].
func (r *RingState) ApplyLfoDelta(delta float64) {
	next := Clamp(r.LfoFrequency+delta*r.LfoFreqGain, 0, 1)
	if next != r.LfoFrequency {
		log.Debugw("lfo frequency", "ring", r.String(), "from", r.LfoFrequency, "to", next)
	}
	r.LfoFrequency = next
}

// SetValue stores v clamped by the ring's value style.
func (r *RingState) SetValue(v float64) {
	r.Value = r.ValueStyle.Clamp(v)
}

func (r *RingState) setPresetIndex(i int) {
	if i != r.PresetIndex {
		log.Infow("preset index", "ring", r.String(), "from", r.PresetIndex, "to", i)
	}
	r.PresetIndex = i
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
