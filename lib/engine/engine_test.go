package engine

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"arcctl/lib/loop"
	"arcctl/lib/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingRenderer struct {
	calls atomic.Int64
	rings []int
}

func (c *countingRenderer) RenderRing(idx int, r *model.RingState, force bool) error {
	c.calls.Add(1)
	c.rings = append(c.rings, idx)
	return nil
}

type countingSender struct {
	calls atomic.Int64
	last  []string
}

func (c *countingSender) Send(r *model.RingState) {
	c.calls.Add(1)
	c.last = append(c.last, r.String())
}

func newModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.New(model.Options{NumLayers: 2, Rings: 2})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTickAdvancesModulatedRings(t *testing.T) {
	m := newModel(t)
	r := m.Layers[0].Rings[0]
	r.LfoStyle = model.LfoSine
	r.LfoFrequency = 1
	r.LfoAmplitude = 0.25
	r.LfoPhase = 0

	rend := &countingRenderer{}
	out := &countingSender{}
	e := New(m, rend, out, Options{FPS: 60})
	e.Tick(0.25)

	if math.Abs(r.Value-0.75) > 1e-9 {
		t.Errorf("value: got %v, want 0.75", r.Value)
	}
	if got := rend.calls.Load(); got != 1 || rend.rings[0] != 0 {
		t.Errorf("renders: got %d %v, want one on ring 0", got, rend.rings)
	}
	if got := out.calls.Load(); got != 1 || out.last[0] != "L0/R0" {
		t.Errorf("sends: got %d %v, want one for L0/R0", got, out.last)
	}
}

func TestTickClampsBoundedStyles(t *testing.T) {
	m := newModel(t)
	r := m.Layers[0].Rings[1]
	r.LfoStyle = model.LfoSquare
	r.LfoFrequency = 0.1
	r.LfoAmplitude = 3
	e := New(m, &countingRenderer{}, nil, Options{})
	e.Tick(0.1)
	if r.Value != 1 {
		t.Errorf("got %v, want clamped to 1", r.Value)
	}

	r.ValueStyle = model.ValueInfinite
	e.Tick(0.1)
	if r.Value != 3 {
		t.Errorf("infinite: got %v, want 3", r.Value)
	}
}

func TestInactiveLayerIsSentNotRendered(t *testing.T) {
	m := newModel(t)
	m.Layers[1].Rings[0].LfoStyle = model.LfoTriangle
	rend := &countingRenderer{}
	out := &countingSender{}
	New(m, rend, out, Options{}).Tick(0.01)
	if rend.calls.Load() != 0 {
		t.Errorf("rendered an inactive layer")
	}
	if out.calls.Load() != 1 {
		t.Errorf("sends: got %d, want 1", out.calls.Load())
	}
}

func TestStaticRingsAreLeftAlone(t *testing.T) {
	m := newModel(t)
	m.Layers[0].Rings[0].Value = 0.3
	rend := &countingRenderer{}
	out := &countingSender{}
	New(m, rend, out, Options{}).Tick(0.1)
	if rend.calls.Load() != 0 || out.calls.Load() != 0 {
		t.Errorf("static rings touched: %d renders, %d sends", rend.calls.Load(), out.calls.Load())
	}
	if m.Layers[0].Rings[0].Value != 0.3 {
		t.Errorf("static value changed")
	}
}

func TestShouldSend(t *testing.T) {
	if !shouldSend(model.LfoSine, 0.5, 0.5) {
		t.Error("modulated ring must always send")
	}
	if shouldSend(model.LfoStatic, 0.5, 0.5+1e-9) {
		t.Error("static ring sent without a change")
	}
	if !shouldSend(model.LfoStatic, 0.5, 0.6) {
		t.Error("static ring change not sent")
	}
}

func TestStyleSwitchKeepsPhase(t *testing.T) {
	m := newModel(t)
	r := m.Layers[0].Rings[0]
	r.LfoStyle = model.LfoSine
	r.LfoFrequency = 1
	e := New(m, &countingRenderer{}, nil, Options{})
	e.Tick(0.3)
	first := e.gens[key{0, 0}].gen

	r.LfoStyle = model.LfoSaw
	e.Tick(0.1)
	if e.gens[key{0, 0}].gen == first {
		t.Fatal("generator not replaced after style change")
	}
	if math.Abs(r.LfoPhase-0.4) > 1e-9 {
		t.Errorf("phase: got %v, want 0.4", r.LfoPhase)
	}
}

func TestNextDeadline(t *testing.T) {
	base := time.Unix(100, 0)
	iv := 10 * time.Millisecond
	if got := nextDeadline(base, base.Add(5*time.Millisecond), iv); !got.Equal(base.Add(iv)) {
		t.Errorf("on time: got %v", got)
	}
	if got := nextDeadline(base, base.Add(15*time.Millisecond), iv); !got.Equal(base.Add(iv)) {
		t.Errorf("slightly late keeps cadence: got %v", got)
	}
	now := base.Add(time.Second)
	if got := nextDeadline(base, now, iv); !got.Equal(now) {
		t.Errorf("stalled: got %v, want resync to now", got)
	}
}

func TestStopWithoutStart(t *testing.T) {
	e := New(newModel(t), &countingRenderer{}, nil, Options{})
	e.Stop()
	e.Stop()
	if e.Running() {
		t.Error("running after Stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNoCallsAfterStop(t *testing.T) {
	m := newModel(t)
	m.Layers[0].Rings[0].LfoStyle = model.LfoSine
	rend := &countingRenderer{}
	out := &countingSender{}
	e := New(m, rend, out, Options{FPS: 500})

	e.Start(context.Background())
	e.Start(context.Background())
	waitFor(t, func() bool { return out.calls.Load() > 3 })
	e.Stop()

	renders, sends := rend.calls.Load(), out.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if rend.calls.Load() != renders || out.calls.Load() != sends {
		t.Errorf("calls after Stop: renders %d -> %d, sends %d -> %d",
			renders, rend.calls.Load(), sends, out.calls.Load())
	}
}

func TestStopFromExecutor(t *testing.T) {
	m := newModel(t)
	m.Layers[0].Rings[0].LfoStyle = model.LfoSaw
	l := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-l.Done()
	}()
	go l.Run(ctx)

	out := &countingSender{}
	e := New(m, &countingRenderer{}, out, Options{FPS: 500, Executor: l})
	e.Start(ctx)
	waitFor(t, func() bool { return out.calls.Load() > 3 })

	if err := l.Do(ctx, e.Stop); err != nil {
		t.Fatal(err)
	}
	sends := out.calls.Load()
	time.Sleep(20 * time.Millisecond)
	l.Do(ctx, func() {})
	if out.calls.Load() != sends {
		t.Errorf("sends after Stop: %d -> %d", sends, out.calls.Load())
	}
}

type blockingRenderer struct {
	countingRenderer
	once    atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRenderer) RenderRing(idx int, r *model.RingState, force bool) error {
	if b.once.CompareAndSwap(false, true) {
		close(b.entered)
		<-b.release
	}
	return b.countingRenderer.RenderRing(idx, r, force)
}

func TestStopWaitsForRunningFrame(t *testing.T) {
	m := newModel(t)
	m.Layers[0].Rings[0].LfoStyle = model.LfoSine
	m.Layers[0].Rings[1].LfoStyle = model.LfoSaw
	l := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-l.Done()
	}()
	go l.Run(ctx)

	rend := &blockingRenderer{entered: make(chan struct{}), release: make(chan struct{})}
	out := &countingSender{}
	e := New(m, rend, out, Options{FPS: 500, Executor: l})
	e.Start(ctx)
	<-rend.entered

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a frame was running")
	case <-time.After(30 * time.Millisecond):
	}

	close(rend.release)
	<-stopped
	renders, sends := rend.calls.Load(), out.calls.Load()
	if renders != 2 || sends != 2 {
		t.Errorf("frame did not finish: renders %d, sends %d, want 2 and 2", renders, sends)
	}
	time.Sleep(20 * time.Millisecond)
	if err := l.Do(ctx, func() {}); err != nil {
		t.Fatal(err)
	}
	if rend.calls.Load() != renders || out.calls.Load() != sends {
		t.Errorf("calls after Stop: renders %d -> %d, sends %d -> %d",
			renders, rend.calls.Load(), sends, out.calls.Load())
	}
}
