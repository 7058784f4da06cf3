// Package app wires the model, renderer, engine, mode machine, senders and
// a device backend into one running controller.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"arcctl/lib/accum"
	"arcctl/lib/arc"
	"arcctl/lib/config"
	"arcctl/lib/device"
	"arcctl/lib/engine"
	"arcctl/lib/logging"
	"arcctl/lib/loop"
	"arcctl/lib/mode"
	"arcctl/lib/model"
	"arcctl/lib/render"
	"arcctl/lib/sender"
	"arcctl/lib/streamdeck"
	"arcctl/lib/xtouch"
)

var log = logging.New("app")

type App struct {
	cfg  *config.Config
	path string

	model    *model.Model
	renderer *render.Renderer
	loop     *loop.Loop
	engine   *engine.Engine
	ctrl     *mode.Controller
	machine  *mode.Machine
	out      *sender.Output
	dev      device.Device
}

// Open builds the senders and the configured backend, then the App.
func Open(cfg *config.Config, path string) (*App, error) {
	out, err := OpenOutput(cfg)
	if err != nil {
		return nil, err
	}
	dev, err := OpenDevice(cfg)
	if err != nil {
		out.Close()
		return nil, err
	}
	a, err := New(cfg, path, dev, out)
	if err != nil {
		dev.Close()
		out.Close()
		return nil, err
	}
	return a, nil
}

// OpenOutput opens the MIDI and OSC senders the config enables.
func OpenOutput(cfg *config.Config) (*sender.Output, error) {
	out := &sender.Output{Channel: cfg.MIDI.Channel}
	if cfg.MIDI.Enabled {
		m, err := sender.OpenMIDI(cfg.MIDI.Port, cfg.MIDI.Virtual)
		if err != nil {
			return nil, err
		}
		out.MIDI = m
	}
	if cfg.OSC.Enabled {
		o, err := sender.OpenOSC(cfg.OSC.Transport, cfg.OSC.Host, cfg.OSC.Port, cfg.OSC.Prefix)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.OSC = o
	}
	return out, nil
}

func OpenDevice(cfg *config.Config) (device.Device, error) {
	d := cfg.Device
	switch d.Backend {
	case config.BackendArc:
		return arc.New(arc.Options{
			SerialOSCPort: d.SerialOSCPort,
			HostPort:      d.HostPort,
			Prefix:        d.Prefix,
			Rings:         d.Rings,
			LEDs:          d.LEDs,
		})
	case config.BackendXTouch:
		return xtouch.Open(xtouch.Options{
			Port:      d.MIDIPort,
			Rings:     d.Rings,
			LEDs:      d.LEDs,
			KeyButton: xtouch.NoteSelectFirst,
		})
	case config.BackendStreamDeck:
		return streamdeck.Open(streamdeck.Options{
			LEDs:          d.LEDs,
			MaxBrightness: cfg.Renderer.MaxBrightness,
		})
	}
	return nil, fmt.Errorf("app: unknown backend %q", d.Backend)
}

// New wires an App around an already open device and output.
func New(cfg *config.Config, path string, dev device.Device, out *sender.Output) (*App, error) {
	m, err := model.New(cfg.ModelOptions())
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	acc, err := accum.New[int](cfg.Controller.PresetThreshold)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	seed := time.Now().UnixNano()
	a := &App{
		cfg:   cfg,
		path:  path,
		model: m,
		loop:  loop.New(),
		out:   out,
		dev:   dev,
	}
	a.renderer = render.New(render.Options{
		Rings:         cfg.Device.Rings,
		LEDs:          cfg.Device.LEDs,
		MaxBrightness: cfg.Renderer.MaxBrightness,
		TailDecay:     cfg.Renderer.DotTailDecay,
		Seed:          seed,
	})
	a.engine = engine.New(m, a.renderer, out, engine.Options{
		FPS:      cfg.Engine.FPS,
		Executor: a.loop,
		Seed:     seed,
	})
	a.ctrl = &mode.Controller{
		Model:    m,
		Renderer: a.renderer,
		Engine:   a.engine,
		Sender:   out,
		Accum:    acc,
		Sink:     dev,
	}
	a.machine = mode.NewMachine(a.ctrl.Handlers(), mode.Options{
		LongPress: cfg.Controller.LongPressDuration,
		Post:      a.loop.Post,
	})
	return a, nil
}

func (a *App) Model() *model.Model { return a.model }

// Run blocks until ctx is done or the device fails, then turns the rings off
// and closes everything.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	a.ctrl.Ctx = ctx
	events := make(chan device.Event, 64)

	g.Go(func() error {
		if err := a.loop.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := a.dev.Run(ctx, events); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case ev := <-events:
				a.dispatch(ev)
			case <-ctx.Done():
				return nil
			}
		}
	})
	if a.cfg.WatchPresets && a.path != "" {
		g.Go(func() error {
			return config.WatchPresets(ctx, a.path, a.ReloadPresets)
		})
	}

	log.Infow("running", "backend", a.cfg.Device.Backend, "layers", a.cfg.Model.NumLayers, "rings", a.cfg.Device.Rings)
	err := g.Wait()
	a.shutdown()
	return err
}

func (a *App) dispatch(ev device.Event) {
	if r, ok := ev.(device.Ready); ok && (r.Rings != a.cfg.Device.Rings || r.LEDs != a.cfg.Device.LEDs) {
		log.Warnw("device shape differs from config", "device", r, "rings", a.cfg.Device.Rings, "leds", a.cfg.Device.LEDs)
	}
	log.Debugw("event", "event", ev)
	a.loop.Post(func() { a.machine.Handle(ev) })
}

// ReloadPresets replaces every ring's preset list and redraws.
func (a *App) ReloadPresets(presets []model.Preset) {
	a.loop.Post(func() {
		a.model.SetPresets(presets)
		if !a.renderer.Bound() {
			return
		}
		if err := a.renderer.RenderLayer(a.model.ActiveLayer(), true); err != nil {
			log.Warnw("render after reload", "err", err)
		}
	})
}

// shutdown runs after the loop has stopped, so it owns the renderer.
func (a *App) shutdown() {
	a.engine.Stop()
	if a.renderer.Bound() {
		if err := a.renderer.AllOff(); err != nil {
			log.Warnw("all off", "err", err)
		}
	}
	if err := a.out.Close(); err != nil {
		log.Warnw("close output", "err", err)
	}
	if err := a.dev.Close(); err != nil {
		log.Warnw("close device", "err", err)
	}
	log.Infow("stopped")
}
