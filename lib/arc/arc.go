// Package arc drives a monome arc through serialosc.
package arc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"arcctl/lib/device"
	"arcctl/lib/logging"
	"arcctl/lib/osc"
)

var log = logging.New("arc")

var ErrNoDevice = errors.New("arc: no device")

const (
	DefaultSerialOSCPort = 12002
	rediscoverInterval   = 2 * time.Second
)

type Options struct {
	Host          string
	SerialOSCPort int
	// HostPort is the local port serialosc and the device talk to; 0 picks one.
	HostPort int
	Prefix   string
	Rings    int
	LEDs     int
}

type Arc struct {
	opts      Options
	ep        *osc.Endpoint
	serialosc *net.UDPAddr

	mu  sync.Mutex
	id  string
	dev *net.UDPAddr
}

var _ device.Device = (*Arc)(nil)

func New(opts Options) (*Arc, error) {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.SerialOSCPort == 0 {
		opts.SerialOSCPort = DefaultSerialOSCPort
	}
	ep, err := osc.Listen(opts.Host, opts.HostPort)
	if err != nil {
		return nil, fmt.Errorf("arc: %w", err)
	}
	return &Arc{
		opts:      opts,
		ep:        ep,
		serialosc: &net.UDPAddr{IP: net.ParseIP(opts.Host), Port: opts.SerialOSCPort},
	}, nil
}

// Port is the local port serialosc replies to.
func (a *Arc) Port() int {
	return a.ep.Port()
}

func (a *Arc) Close() error {
	return a.ep.Close()
}

func (a *Arc) Run(ctx context.Context, events chan<- device.Event) error {
	emit := func(ev device.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	go a.discover(ctx)
	a.notify()

	err := a.ep.Serve(ctx, func(m osc.Message, _ *net.UDPAddr) {
		a.handle(m, emit)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// discover asks serialosc for its devices until one is bound.
func (a *Arc) discover(ctx context.Context) {
	t := time.NewTicker(rediscoverInterval)
	defer t.Stop()
	for {
		if !a.bound() {
			a.send(a.serialosc, "/serialosc/list", a.opts.Host, int32(a.ep.Port()))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// notify asks for the next add/remove notification. serialosc only sends
// one per request.
func (a *Arc) notify() {
	a.send(a.serialosc, "/serialosc/notify", a.opts.Host, int32(a.ep.Port()))
}

func (a *Arc) send(to *net.UDPAddr, addr string, args ...any) {
	if err := a.ep.SendTo(to, addr, args...); err != nil {
		log.Warnw("send failed", "addr", addr, "err", err)
	}
}

func (a *Arc) bound() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dev != nil
}

func (a *Arc) handle(m osc.Message, emit func(device.Event)) {
	switch m.Address {
	case "/serialosc/device", "/serialosc/add":
		if m.Address == "/serialosc/add" {
			a.notify()
		}
		id, _ := m.Str(0)
		typ, _ := m.Str(1)
		port, ok := m.Int(2)
		if !ok || !strings.Contains(strings.ToLower(typ), "arc") || a.bound() {
			return
		}
		a.bind(id, port)
		emit(device.Ready{Name: id, Rings: ringsFromType(typ, a.opts.Rings), LEDs: a.opts.LEDs})

	case "/serialosc/remove":
		a.notify()
		id, _ := m.Str(0)
		a.mu.Lock()
		gone := a.dev != nil && id == a.id
		if gone {
			a.dev, a.id = nil, ""
		}
		a.mu.Unlock()
		if gone {
			log.Infow("device removed", "id", id)
			emit(device.Disconnected{})
		}

	case a.opts.Prefix + "/enc/delta":
		n, ok1 := m.Int(0)
		d, ok2 := m.Int(1)
		if ok1 && ok2 {
			emit(device.Delta{Ring: n, Amount: float64(d)})
		}

	case a.opts.Prefix + "/enc/key":
		s, ok := m.Int(1)
		if ok {
			emit(device.Key{Pressed: s != 0})
		}

	default:
		log.Debugw("ignored", "msg", m.String())
	}
}

func (a *Arc) bind(id string, port int) {
	dev := &net.UDPAddr{IP: a.serialosc.IP, Port: port}
	a.mu.Lock()
	a.id, a.dev = id, dev
	a.mu.Unlock()

	a.send(dev, "/sys/port", int32(a.ep.Port()))
	a.send(dev, "/sys/host", a.opts.Host)
	a.send(dev, "/sys/prefix", a.opts.Prefix)
	log.Infow("device bound", "id", id, "port", port)
}

// ringsFromType reads the ring count off a type string like "monome arc 4".
func ringsFromType(typ string, fallback int) int {
	fields := strings.Fields(typ)
	if len(fields) == 0 {
		return fallback
	}
	if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > 0 {
		return n
	}
	return fallback
}

func (a *Arc) target() (*net.UDPAddr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev == nil {
		return nil, ErrNoDevice
	}
	return a.dev, nil
}

func (a *Arc) SetAll(ring, level int) error {
	dev, err := a.target()
	if err != nil {
		return err
	}
	return a.ep.SendTo(dev, a.opts.Prefix+"/ring/all", int32(ring), int32(level))
}

func (a *Arc) SetLevels(ring int, levels []int) error {
	dev, err := a.target()
	if err != nil {
		return err
	}
	args := make([]any, 0, len(levels)+1)
	args = append(args, int32(ring))
	for _, l := range levels {
		args = append(args, int32(l))
	}
	return a.ep.SendTo(dev, a.opts.Prefix+"/ring/map", args...)
}
