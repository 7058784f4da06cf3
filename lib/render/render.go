// Package render draws ring state onto a device sink, sending a ring's
// levels only when they differ from what was last sent.
package render

import (
	"errors"
	"fmt"
	"slices"

	"arcctl/lib/device"
	"arcctl/lib/led"
	"arcctl/lib/logging"
	"arcctl/lib/model"
)

var log = logging.New("render")

var ErrNotReady = errors.New("render: no device bound")

type Options struct {
	Rings         int
	LEDs          int
	MaxBrightness int
	TailDecay     float64
	Seed          int64
}

type Renderer struct {
	opts       Options
	sink       device.Sink
	styles     map[int]cachedStyle
	last       map[int][]int
	suppressed bool
}

func New(opts Options) *Renderer {
	return &Renderer{
		opts:   opts,
		styles: map[int]cachedStyle{},
		last:   map[int][]int{},
	}
}

// Bind attaches the renderer to a device sink and forgets what was sent to
// any previous one.
func (r *Renderer) Bind(sink device.Sink) {
	r.sink = sink
	clear(r.last)
	log.Infow("device bound")
}

func (r *Renderer) Unbind() {
	r.sink = nil
	clear(r.last)
	log.Infow("device unbound")
}

func (r *Renderer) Bound() bool {
	return r.sink != nil
}

func (r *Renderer) Suppressed() bool {
	return r.suppressed
}

// SetSuppressed freezes (true) or thaws every render call. Highlight and
// AllOff are not affected.
func (r *Renderer) SetSuppressed(v bool) {
	if v == r.suppressed {
		return
	}
	r.suppressed = v
	log.Infow("rendering suppressed", "suppressed", v)
}

func (r *Renderer) AllOff() error {
	if r.sink == nil {
		return ErrNotReady
	}
	for i := 0; i < r.opts.Rings; i++ {
		if err := r.sink.SetAll(i, 0); err != nil {
			return fmt.Errorf("render: all off: %w", err)
		}
	}
	clear(r.last)
	return nil
}

// Highlight turns everything off and lights one ring uniformly at level.
func (r *Renderer) Highlight(idx, level int) error {
	if err := r.AllOff(); err != nil {
		return err
	}
	log.Debugw("highlight", "ring", idx, "level", level)
	if err := r.sink.SetAll(idx, level); err != nil {
		return fmt.Errorf("render: highlight: %w", err)
	}
	return nil
}

// RenderLayer turns everything off and draws every ring of layer in order.
func (r *Renderer) RenderLayer(layer *model.LayerState, force bool) error {
	if r.sink == nil {
		return ErrNotReady
	}
	if r.suppressed {
		return nil
	}
	if err := r.AllOff(); err != nil {
		return err
	}
	for i, ring := range layer.Rings {
		if i >= r.opts.Rings {
			break
		}
		if err := r.RenderRing(i, ring, force); err != nil {
			return err
		}
	}
	return nil
}

// RenderRing composes ring idx and sends it unless it matches the last
// levels sent for that ring. force always sends.
func (r *Renderer) RenderRing(idx int, ring *model.RingState, force bool) error {
	if r.sink == nil {
		return ErrNotReady
	}
	if r.suppressed {
		return nil
	}
	levels := r.style(idx, ring.LedStyle).Levels(ring.Value, ring.ValueStyle)
	if prev, ok := r.last[idx]; ok && !force && slices.Equal(prev, levels) {
		return nil
	}
	if err := r.sink.SetLevels(idx, levels); err != nil {
		return fmt.Errorf("render: ring %d: %w", idx, err)
	}
	r.last[idx] = slices.Clone(levels)
	return nil
}

// cachedStyle remembers the tag it was built for, which differs from the
// instance's own tag after a fallback.
type cachedStyle struct {
	tag   model.LedStyle
	style led.Style
}

func (r *Renderer) style(idx int, want model.LedStyle) led.Style {
	c, ok := r.styles[idx]
	if ok && c.tag == want {
		return c.style
	}
	log.Infow("led style changed", "ring", idx, "from", c.tag, "to", want)
	c = cachedStyle{tag: want, style: led.New(want, led.Options{
		LEDs:          r.opts.LEDs,
		MaxBrightness: r.opts.MaxBrightness,
		TailDecay:     r.opts.TailDecay,
		Seed:          r.opts.Seed + int64(idx),
	})}
	r.styles[idx] = c
	return c.style
}
