// Package config loads arcctl's YAML configuration, applies environment
// overrides and watches the file for preset changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"arcctl/lib/logging"
	"arcctl/lib/model"
	"arcctl/lib/osc"
)

var log = logging.New("config")

var ErrInvalid = errors.New("config: invalid")

const DefaultPath = "arcctl.yaml"

const (
	BackendArc        = "arc"
	BackendXTouch     = "xtouch"
	BackendStreamDeck = "streamdeck"
)

type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Device     DeviceConfig     `yaml:"device"`
	Presets    []model.Preset   `yaml:"presets"`
	Ring       RingConfig       `yaml:"ring"`
	Engine     EngineConfig     `yaml:"engine"`
	Renderer   RendererConfig   `yaml:"renderer"`
	Controller ControllerConfig `yaml:"controller"`
	MIDI       MIDIConfig       `yaml:"midi"`
	OSC        OSCConfig        `yaml:"osc"`
	Log        LogConfig        `yaml:"log"`

	WatchPresets bool `yaml:"watch_presets"`
}

type ModelConfig struct {
	NumLayers int `yaml:"num_layers"`
}

type DeviceConfig struct {
	Backend       string `yaml:"backend"`
	Rings         int    `yaml:"rings_per_device"`
	LEDs          int    `yaml:"leds_per_ring"`
	SerialOSCPort int    `yaml:"serialosc_port"`
	HostPort      int    `yaml:"host_port"`
	Prefix        string `yaml:"prefix"`
	MIDIPort      string `yaml:"midi_port"`
}

type RingConfig struct {
	ValueGain    float64 `yaml:"value_gain"`
	LfoFreqGain  float64 `yaml:"lfo_freq_gain"`
	LfoFrequency float64 `yaml:"lfo_frequency"`
	LfoAmplitude float64 `yaml:"lfo_amplitude"`
}

type EngineConfig struct {
	FPS float64 `yaml:"fps"`
}

type RendererConfig struct {
	MaxBrightness int     `yaml:"max_brightness"`
	DotTailDecay  float64 `yaml:"dot_tail_decay"`
}

type ControllerConfig struct {
	LongPressDuration time.Duration `yaml:"long_press_duration"`
	PresetThreshold   float64       `yaml:"preset_threshold"`
}

type MIDIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	Virtual bool   `yaml:"virtual"`
	Channel int    `yaml:"channel"`
	CCBase  int    `yaml:"cc_base"`
}

type OSCConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Prefix    string `yaml:"prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Model: ModelConfig{NumLayers: 4},
		Device: DeviceConfig{
			Backend:       BackendArc,
			Rings:         4,
			LEDs:          64,
			SerialOSCPort: 12002,
			Prefix:        "/arcctl",
			MIDIPort:      "x-touch",
		},
		Presets: []model.Preset{model.DefaultPreset},
		Ring: RingConfig{
			ValueGain:    model.DefaultRing.ValueGain,
			LfoFreqGain:  model.DefaultRing.LfoFreqGain,
			LfoFrequency: model.DefaultRing.LfoFrequency,
			LfoAmplitude: model.DefaultRing.LfoAmplitude,
		},
		Engine:   EngineConfig{FPS: 60},
		Renderer: RendererConfig{MaxBrightness: 15, DotTailDecay: 0.9},
		Controller: ControllerConfig{
			LongPressDuration: 500 * time.Millisecond,
			PresetThreshold:   30,
		},
		MIDI: MIDIConfig{Enabled: true, Port: "arcctl", Virtual: true, Channel: 0, CCBase: 1},
		OSC: OSCConfig{
			Transport: osc.TransportUDP,
			Host:      "127.0.0.1",
			Port:      57120,
			Prefix:    "/arcctl",
		},
		Log:          LogConfig{Level: "info"},
		WatchPresets: true,
	}
}

// Env holds the environment overrides. Empty values leave the file alone.
type Env struct {
	ConfigPath string `env:"ARCCTL_CONFIG"`
	LogLevel   string `env:"ARCCTL_LOG_LEVEL"`
	Device     string `env:"ARCCTL_DEVICE"`
	MIDIPort   string `env:"ARCCTL_MIDI_PORT"`
	OSCHost    string `env:"ARCCTL_OSC_HOST"`
	OSCPort    int    `env:"ARCCTL_OSC_PORT"`
}

func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("config: env: %w", err)
	}
	return e, nil
}

func (e Env) apply(c *Config) {
	if e.LogLevel != "" {
		c.Log.Level = e.LogLevel
	}
	if e.Device != "" {
		c.Device.Backend = e.Device
	}
	if e.MIDIPort != "" {
		c.MIDI.Port = e.MIDIPort
	}
	if e.OSCHost != "" {
		c.OSC.Host = e.OSCHost
	}
	if e.OSCPort != 0 {
		c.OSC.Port = e.OSCPort
	}
}

// Path picks the config file: the flag if given, then ARCCTL_CONFIG, then
// DefaultPath.
func Path(flag string, e Env) string {
	if flag != "" {
		return flag
	}
	if e.ConfigPath != "" {
		return e.ConfigPath
	}
	return DefaultPath
}

// Load reads path over the defaults, applies the environment and validates.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	e, err := ParseEnv()
	if err != nil {
		return nil, err
	}
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	e.apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infow("no config file, using defaults", "path", path)
			return c, nil
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(c.Presets) == 0 {
		log.Warnw("config has no presets, using the default", "path", path)
		c.Presets = []model.Preset{model.DefaultPreset}
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate rejects values the controller cannot run with. Unknown style
// tags in presets are not errors; they fall back when applied.
func (c *Config) Validate() error {
	var errs []error
	if c.Model.NumLayers < 1 {
		errs = append(errs, invalid("model.num_layers %d < 1", c.Model.NumLayers))
	}
	if c.Device.Rings < 1 {
		errs = append(errs, invalid("device.rings_per_device %d < 1", c.Device.Rings))
	}
	if c.Device.LEDs < 4 {
		errs = append(errs, invalid("device.leds_per_ring %d < 4", c.Device.LEDs))
	}
	switch c.Device.Backend {
	case BackendArc, BackendXTouch, BackendStreamDeck:
	default:
		errs = append(errs, invalid("device.backend %q", c.Device.Backend))
	}
	if c.Engine.FPS <= 0 {
		errs = append(errs, invalid("engine.fps %v <= 0", c.Engine.FPS))
	}
	if c.Renderer.MaxBrightness < 1 {
		errs = append(errs, invalid("renderer.max_brightness %d < 1", c.Renderer.MaxBrightness))
	}
	if c.Controller.PresetThreshold <= 0 {
		errs = append(errs, invalid("controller.preset_threshold %v <= 0", c.Controller.PresetThreshold))
	}
	if c.Controller.LongPressDuration <= 0 {
		errs = append(errs, invalid("controller.long_press_duration %v <= 0", c.Controller.LongPressDuration))
	}
	if c.MIDI.Channel < 0 || c.MIDI.Channel > 15 {
		errs = append(errs, invalid("midi.channel %d outside 0..15", c.MIDI.Channel))
	}
	if last := c.MIDI.CCBase + c.Model.NumLayers*c.Device.Rings - 1; c.MIDI.CCBase < 0 || last > 127 {
		errs = append(errs, invalid("midi.cc_base %d puts the last ring on cc %d", c.MIDI.CCBase, last))
	}
	switch c.OSC.Transport {
	case osc.TransportUDP, osc.TransportTCP:
	default:
		errs = append(errs, invalid("osc.transport %q", c.OSC.Transport))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, invalid("log.level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// ModelOptions is the model shape this config describes.
func (c *Config) ModelOptions() model.Options {
	return model.Options{
		NumLayers: c.Model.NumLayers,
		Rings:     c.Device.Rings,
		CCBase:    c.MIDI.CCBase,
		Presets:   c.Presets,
		Ring: model.RingDefaults{
			ValueGain:    c.Ring.ValueGain,
			LfoFreqGain:  c.Ring.LfoFreqGain,
			LfoFrequency: c.Ring.LfoFrequency,
			LfoAmplitude: c.Ring.LfoAmplitude,
		},
	}
}
