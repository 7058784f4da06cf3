// Package mode is the controller's state machine: it routes device input to
// the handler of the current mode and times the long press.
package mode

import (
	"errors"
	"fmt"
	"time"

	"arcctl/lib/device"
	"arcctl/lib/logging"
)

var log = logging.New("mode")

var ErrInvalidTransition = errors.New("mode: invalid transition")

type State int

const (
	Disconnected State = iota
	Ready
	ValueSend
	LayerSelect
	PresetSelect
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Ready:
		return "ready"
	case ValueSend:
		return "value_send"
	case LayerSelect:
		return "layer_select"
	case PresetSelect:
		return "preset_select"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Trigger string

const (
	Press              Trigger = "press"
	LongPress          Trigger = "long_press"
	Release            Trigger = "release"
	DeviceReady        Trigger = "device_ready"
	DeviceDisconnected Trigger = "device_disconnected"
)

type transition struct {
	trigger Trigger
	source  State
	any     bool
	dest    State
}

var transitions = []transition{
	{trigger: Press, any: true, dest: LayerSelect},
	{trigger: LongPress, source: LayerSelect, dest: PresetSelect},
	{trigger: Release, any: true, dest: ValueSend},
	{trigger: DeviceReady, any: true, dest: Ready},
	{trigger: DeviceDisconnected, any: true, dest: Disconnected},
}

func lookup(t Trigger, from State) (State, bool) {
	for _, tr := range transitions {
		if tr.trigger == t && (tr.any || tr.source == from) {
			return tr.dest, true
		}
	}
	return 0, false
}

// Handler is what a mode does. Every field is optional.
type Handler struct {
	Enter func()
	Exit  func()
	Delta func(ring int, delta float64)
}

// Timer is the part of *time.Timer the machine needs.
type Timer interface {
	Stop() bool
}

type Options struct {
	LongPress time.Duration
	// Post runs fn on the goroutine that owns the machine. Long-press timers
	// fire through it.
	Post func(fn func()) bool
	// AfterFunc defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, fn func()) Timer
}

// Machine is not safe for concurrent use; drive it from one goroutine.
type Machine struct {
	opts     Options
	state    State
	handlers map[State]Handler

	held     bool
	timer    Timer
	timerGen uint64
}

func NewMachine(handlers map[State]Handler, opts Options) *Machine {
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		}
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) bool {
			fn()
			return true
		}
	}
	return &Machine{opts: opts, state: Disconnected, handlers: handlers}
}

func (m *Machine) State() State {
	return m.state
}

// Fire runs trigger against the transition table. An out-of-table trigger
// returns ErrInvalidTransition and leaves the state alone. Self transitions
// run both hooks.
func (m *Machine) Fire(t Trigger) error {
	dest, ok := lookup(t, m.state)
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, t, m.state)
	}
	m.move(t, dest)
	if dest == Ready {
		m.move(t, ValueSend)
	}
	return nil
}

func (m *Machine) move(t Trigger, dest State) {
	from := m.state
	if h := m.handlers[from]; h.Exit != nil {
		h.Exit()
	}
	m.state = dest
	log.Infow("transition", "trigger", t, "from", from, "to", dest)
	if h := m.handlers[dest]; h.Enter != nil {
		h.Enter()
	}
}

// KeyDown fires press and arms the long-press timer.
func (m *Machine) KeyDown() {
	m.held = true
	m.cancelTimer()
	if err := m.Fire(Press); err != nil {
		log.Errorw("press", "err", err)
	}
	gen := m.timerGen
	m.timer = m.opts.AfterFunc(m.opts.LongPress, func() {
		m.opts.Post(func() { m.longPress(gen) })
	})
}

func (m *Machine) longPress(gen uint64) {
	if gen != m.timerGen || !m.held {
		return
	}
	m.timer = nil
	if err := m.Fire(LongPress); err != nil {
		log.Errorw("long press", "err", err)
	}
}

// KeyUp cancels any pending long press and fires release.
func (m *Machine) KeyUp() {
	m.held = false
	m.cancelTimer()
	if err := m.Fire(Release); err != nil {
		log.Errorw("release", "err", err)
	}
}

func (m *Machine) cancelTimer() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Delta forwards ring input to the current mode, or drops it.
func (m *Machine) Delta(ring int, delta float64) {
	h := m.handlers[m.state]
	if h.Delta == nil {
		log.Debugw("delta dropped", "state", m.state, "ring", ring, "delta", delta)
		return
	}
	h.Delta(ring, delta)
}

func (m *Machine) DeviceReady() {
	if err := m.Fire(DeviceReady); err != nil {
		log.Errorw("device ready", "err", err)
	}
}

func (m *Machine) DeviceDisconnected() {
	m.held = false
	m.cancelTimer()
	if err := m.Fire(DeviceDisconnected); err != nil {
		log.Errorw("device disconnected", "err", err)
	}
}

// Handle dispatches one device event.
func (m *Machine) Handle(ev device.Event) {
	switch e := ev.(type) {
	case device.Ready:
		m.DeviceReady()
	case device.Disconnected:
		m.DeviceDisconnected()
	case device.Key:
		if e.Pressed {
			m.KeyDown()
		} else {
			m.KeyUp()
		}
	case device.Delta:
		m.Delta(e.Ring, e.Amount)
	default:
		log.Warnw("unknown event", "event", ev)
	}
}
