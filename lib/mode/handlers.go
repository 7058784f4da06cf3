package mode

import (
	"context"

	"arcctl/lib/accum"
	"arcctl/lib/device"
	"arcctl/lib/model"
)

const highlightLevel = 1

type Renderer interface {
	Bind(sink device.Sink)
	Unbind()
	AllOff() error
	Highlight(idx, level int) error
	SetSuppressed(v bool)
	RenderRing(idx int, r *model.RingState, force bool) error
	RenderLayer(layer *model.LayerState, force bool) error
}

type Engine interface {
	Start(ctx context.Context)
	Stop()
}

type Sender interface {
	Send(r *model.RingState)
}

// Controller holds what the mode handlers act on.
type Controller struct {
	Ctx      context.Context
	Model    *model.Model
	Renderer Renderer
	Engine   Engine
	Sender   Sender
	Accum    *accum.Accumulator[int]
	Sink     device.Sink
}

// Handlers returns the handler for every state.
func (c *Controller) Handlers() map[State]Handler {
	return map[State]Handler{
		Ready:        {Enter: c.ready},
		ValueSend:    {Delta: c.valueDelta},
		LayerSelect:  {Enter: c.enterLayerSelect, Exit: c.refresh},
		PresetSelect: {Enter: c.enterPresetSelect, Exit: c.exitPresetSelect, Delta: c.presetDelta},
		Disconnected: {Enter: c.disconnected},
	}
}

func (c *Controller) check(op string, err error) {
	if err != nil {
		log.Warnw(op, "err", err)
	}
}

func (c *Controller) ready() {
	c.Renderer.Bind(c.Sink)
	c.check("all off", c.Renderer.AllOff())
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	c.Engine.Start(ctx)
	c.check("render layer", c.Renderer.RenderLayer(c.Model.ActiveLayer(), true))
}

func (c *Controller) disconnected() {
	c.Engine.Stop()
	c.Renderer.Unbind()
}

func (c *Controller) valueDelta(idx int, delta float64) {
	r := c.Model.Ring(idx)
	if r == nil {
		log.Warnw("delta for unknown ring", "ring", idx)
		return
	}
	if r.LfoStyle == model.LfoStatic {
		r.ApplyDelta(delta)
		if c.Sender != nil {
			c.Sender.Send(r)
		}
	} else {
		r.ApplyLfoDelta(delta)
	}
	c.check("render ring", c.Renderer.RenderRing(idx, r, false))
}

func (c *Controller) highlightActive() {
	rings := len(c.Model.ActiveLayer().Rings)
	c.check("highlight", c.Renderer.Highlight(c.Model.ActiveLayerIdx()%rings, highlightLevel))
}

func (c *Controller) enterLayerSelect() {
	c.Renderer.SetSuppressed(true)
	c.Model.CycleLayer(1)
	c.highlightActive()
}

func (c *Controller) refresh() {
	c.Renderer.SetSuppressed(false)
	c.check("render layer", c.Renderer.RenderLayer(c.Model.ActiveLayer(), true))
}

// enterPresetSelect steps back the layer the entering press moved on, so
// presets are edited on the layer the user was on.
func (c *Controller) enterPresetSelect() {
	c.Renderer.SetSuppressed(true)
	c.Model.CycleLayer(-1)
	c.highlightActive()
}

func (c *Controller) presetDelta(idx int, delta float64) {
	r := c.Model.Ring(idx)
	if r == nil {
		log.Warnw("delta for unknown ring", "ring", idx)
		return
	}
	c.Renderer.SetSuppressed(false)
	c.check("render ring", c.Renderer.RenderRing(idx, r, false))
	steps := c.Accum.Add(idx, delta)
	if steps == 0 {
		return
	}
	r.CyclePreset(steps)
	c.check("render layer", c.Renderer.RenderLayer(c.Model.ActiveLayer(), true))
}

func (c *Controller) exitPresetSelect() {
	c.Accum.ResetAll()
	c.refresh()
}
