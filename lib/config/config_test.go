package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcctl/lib/model"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "arcctl.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := write(t, t.TempDir(), `
model:
  num_layers: 2
device:
  backend: xtouch
  rings_per_device: 8
engine:
  fps: 30
controller:
  long_press_duration: 750ms
presets:
  - name: wobble
    value_style: bipolar
    led_style: perlin
    lfo_style: sine
  - name: broken
    value_style: sideways
    led_style: dot
    lfo_style: static
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Model.NumLayers)
	assert.Equal(t, BackendXTouch, c.Device.Backend)
	assert.Equal(t, 8, c.Device.Rings)
	assert.Equal(t, 64, c.Device.LEDs)
	assert.Equal(t, 30.0, c.Engine.FPS)
	assert.Equal(t, 750*time.Millisecond, c.Controller.LongPressDuration)
	require.Len(t, c.Presets, 2)
	assert.Equal(t, model.LfoSine, c.Presets[0].LfoStyle)
	assert.Equal(t, model.ValueStyle("sideways"), c.Presets[1].ValueStyle)

	opts := c.ModelOptions()
	assert.Equal(t, 8, opts.Rings)
	assert.Equal(t, 1, opts.CCBase)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARCCTL_LOG_LEVEL", "debug")
	t.Setenv("ARCCTL_DEVICE", "streamdeck")
	t.Setenv("ARCCTL_OSC_PORT", "9000")
	t.Setenv("ARCCTL_MIDI_PORT", "loopMIDI")

	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, BackendStreamDeck, c.Device.Backend)
	assert.Equal(t, 9000, c.OSC.Port)
	assert.Equal(t, "loopMIDI", c.MIDI.Port)
	assert.Equal(t, "127.0.0.1", c.OSC.Host)
}

func TestPath(t *testing.T) {
	assert.Equal(t, "a.yaml", Path("a.yaml", Env{ConfigPath: "b.yaml"}))
	assert.Equal(t, "b.yaml", Path("", Env{ConfigPath: "b.yaml"}))
	assert.Equal(t, DefaultPath, Path("", Env{}))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"layers":    func(c *Config) { c.Model.NumLayers = 0 },
		"rings":     func(c *Config) { c.Device.Rings = 0 },
		"leds":      func(c *Config) { c.Device.LEDs = 3 },
		"backend":   func(c *Config) { c.Device.Backend = "grid" },
		"fps":       func(c *Config) { c.Engine.FPS = 0 },
		"bright":    func(c *Config) { c.Renderer.MaxBrightness = 0 },
		"threshold": func(c *Config) { c.Controller.PresetThreshold = 0 },
		"longpress": func(c *Config) { c.Controller.LongPressDuration = 0 },
		"channel":   func(c *Config) { c.MIDI.Channel = 16 },
		"cc":        func(c *Config) { c.MIDI.CCBase = 120 },
		"transport": func(c *Config) { c.OSC.Transport = "carrier-pigeon" },
		"level":     func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	p := write(t, t.TempDir(), "engine:\n  fps: -1\n")
	_, err := Load(p)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	p := write(t, t.TempDir(), "model: [\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestEmptyPresetListFallsBack(t *testing.T) {
	p := write(t, t.TempDir(), "presets: []\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []model.Preset{model.DefaultPreset}, c.Presets)
}

func TestWatchPresets(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "presets:\n  - {name: a, value_style: linear, led_style: dot, lfo_style: static}\n")

	got := make(chan []model.Preset, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchPresets(ctx, p, func(ps []model.Preset) { got <- ps }) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(100 * time.Millisecond)
	write(t, dir, "presets:\n  - {name: b, value_style: linear, led_style: dot, lfo_style: saw}\n  - {name: c, value_style: bipolar, led_style: bipolar, lfo_style: static}\n")

	select {
	case ps := <-got:
		require.Len(t, ps, 2)
		assert.Equal(t, "b", ps[0].Name)
		assert.Equal(t, model.LfoSaw, ps[0].LfoStyle)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}
