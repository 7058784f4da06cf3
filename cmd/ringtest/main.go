// ringtest sweeps every LED style across the rings of the configured device.
// Each key press shifts the styles one ring along.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"arcctl/lib/app"
	"arcctl/lib/config"
	"arcctl/lib/device"
	"arcctl/lib/led"
	"arcctl/lib/lfo"
	"arcctl/lib/model"
)

var styles = []struct {
	led   model.LedStyle
	value model.ValueStyle
}{
	{model.LedPotentiometer, model.ValueLinear},
	{model.LedBipolar, model.ValueBipolar},
	{model.LedDot, model.ValueInfinite},
	{model.LedPerlin, model.ValueLinear},
}

func main() {
	defer midi.CloseDriver()

	path := config.DefaultPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dev, err := app.OpenDevice(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan device.Event, 64)
	go func() {
		if err := dev.Run(ctx, events); err != nil {
			fmt.Fprintf(os.Stderr, "Device error: %v\n", err)
			stop()
		}
	}()

	var (
		rings  []led.Style
		shift  int
		phase  float64
		ready  bool
		ticker = time.NewTicker(time.Second / 30)
	)
	defer ticker.Stop()

	build := func(n int) {
		rings = make([]led.Style, n)
		for i := range rings {
			s := styles[(i+shift)%len(styles)]
			rings[i] = led.New(s.led, led.Options{
				LEDs:          cfg.Device.LEDs,
				MaxBrightness: cfg.Renderer.MaxBrightness,
				TailDecay:     cfg.Renderer.DotTailDecay,
				Seed:          int64(i),
			})
			fmt.Printf("ring %d: %s\n", i, s.led)
		}
	}

	for {
		select {
		case ev := <-events:
			fmt.Println(ev)
			switch e := ev.(type) {
			case device.Ready:
				ready = true
				build(e.Rings)
			case device.Disconnected:
				ready = false
			case device.Key:
				if e.Pressed && ready {
					shift++
					build(len(rings))
				}
			}

		case <-ticker.C:
			if !ready {
				continue
			}
			phase = math.Mod(phase+1.0/30/4, 1)
			for i, s := range rings {
				vs := styles[(i+shift)%len(styles)].value
				v := (lfo.Triangle(phase) + 1) / 2
				if vs == model.ValueInfinite {
					v = phase * 2
				}
				if err := dev.SetLevels(i, s.Levels(v, vs)); err != nil {
					fmt.Fprintf(os.Stderr, "ring %d: %v\n", i, err)
				}
			}

		case <-ctx.Done():
			for i := range rings {
				dev.SetAll(i, 0)
			}
			fmt.Println()
			return
		}
	}
}
