// Package engine runs the per-ring LFO generators at a fixed frame rate and
// pushes the results to the renderer and the protocol senders.
package engine

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"arcctl/lib/lfo"
	"arcctl/lib/logging"
	"arcctl/lib/model"
)

var log = logging.New("engine")

const staticEpsilon = 1e-6

const (
	framePending int32 = iota
	frameRunning
	frameAbandoned
)

type Renderer interface {
	RenderRing(idx int, r *model.RingState, force bool) error
}

type Sender interface {
	Send(r *model.RingState)
}

// Executor runs a frame on the goroutine that owns the model.
type Executor interface {
	Post(fn func()) bool
}

type Options struct {
	FPS float64
	// Executor is optional; without one frames run on the engine goroutine.
	Executor Executor
	Seed     int64
}

type key struct {
	layer, ring int
}

type cachedGen struct {
	tag model.LfoStyle
	gen lfo.Generator
}

type Engine struct {
	model  *model.Model
	render Renderer
	out    Sender
	opts   Options
	rng    *rand.Rand

	gens map[key]cachedGen

	mu     sync.Mutex
	cancel context.CancelFunc
	exited chan struct{}
}

func New(m *model.Model, render Renderer, out Sender, opts Options) *Engine {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	return &Engine{
		model:  m,
		render: render,
		out:    out,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		gens:   map[key]cachedGen{},
	}
}

func (e *Engine) Interval() time.Duration {
	return time.Duration(float64(time.Second) / e.opts.FPS)
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// Start launches the frame loop. It does nothing if already running.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.exited = make(chan struct{})
	log.Infow("starting", "fps", e.opts.FPS)
	go e.run(ctx, e.exited)
}

// Stop cancels the frame loop and returns once it has exited. No frame runs
// after Stop returns. Safe to call when not running, and from the executor.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, exited := e.cancel, e.exited
	e.cancel, e.exited = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	log.Infow("stopping")
	cancel()
	<-exited
	log.Infow("stopped")
}

func (e *Engine) run(ctx context.Context, exited chan struct{}) {
	defer close(exited)

	interval := e.Interval()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	prev := time.Now()
	target := prev
	for {
		now := time.Now()
		dt := now.Sub(prev).Seconds()
		prev = now

		if !e.frame(ctx, dt) {
			return
		}

		target = nextDeadline(target, time.Now(), interval)
		timer.Reset(time.Until(target))
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// nextDeadline advances target by one interval, or snaps it to now when it
// has fallen more than a full interval behind.
func nextDeadline(target, now time.Time, interval time.Duration) time.Time {
	target = target.Add(interval)
	if now.Sub(target) > interval {
		return now
	}
	return target
}

// frame runs one Tick on the executor and waits for it. It reports false
// once ctx is done; a Tick the executor has already started is still waited
// for, so nothing renders or sends after Stop returns.
func (e *Engine) frame(ctx context.Context, dt float64) bool {
	if e.opts.Executor == nil {
		if ctx.Err() != nil {
			return false
		}
		e.Tick(dt)
		return true
	}

	// A posted frame is claimed once: either the executor starts it, or a
	// cancelled frame call abandons it before it starts.
	var state atomic.Int32
	done := make(chan struct{})
	if !e.opts.Executor.Post(func() {
		defer close(done)
		if !state.CompareAndSwap(framePending, frameRunning) || ctx.Err() != nil {
			return
		}
		e.Tick(dt)
	}) {
		return false
	}
	select {
	case <-ctx.Done():
		if !state.CompareAndSwap(framePending, frameAbandoned) {
			<-done
		}
		return false
	case <-done:
		return ctx.Err() == nil
	}
}

// Tick advances every non-STATIC ring by dt seconds. It must run on the
// goroutine that owns the model.
func (e *Engine) Tick(dt float64) {
	active := e.model.ActiveLayerIdx()
	e.model.Each(func(l, i int, r *model.RingState) {
		if r.LfoStyle == model.LfoStatic {
			return
		}
		k := key{l, i}
		old := r.Value
		if out, ok := e.generator(k, r).Advance(r, dt); ok {
			r.SetValue(r.ValueStyle.Centre() + out)
		}
		if l == active {
			if err := e.render.RenderRing(i, r, false); err != nil {
				log.Debugw("render failed", "ring", r.String(), "err", err)
			}
		}
		if e.out != nil && shouldSend(r.LfoStyle, old, r.Value) {
			e.out.Send(r)
		}
	})
}

// shouldSend keeps modulated rings streaming every frame; a STATIC ring only
// goes out when its value actually moved.
func shouldSend(style model.LfoStyle, old, cur float64) bool {
	return style != model.LfoStatic || math.Abs(cur-old) > staticEpsilon
}

func (e *Engine) generator(k key, r *model.RingState) lfo.Generator {
	c, ok := e.gens[k]
	if ok && c.tag == r.LfoStyle {
		return c.gen
	}
	log.Infow("lfo style changed", "ring", r.String(), "from", c.tag, "to", r.LfoStyle)
	c = cachedGen{tag: r.LfoStyle, gen: lfo.New(r.LfoStyle, r, e.rng)}
	e.gens[k] = c
	return c.gen
}
