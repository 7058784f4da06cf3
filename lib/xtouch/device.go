package xtouch

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"arcctl/lib/device"
	"arcctl/lib/logging"
	"arcctl/lib/midiport"
)

var log = logging.New("xtouch")

type Options struct {
	// Port is matched against MIDI port names, e.g. "x-touch" or "ext".
	Port      string
	DeviceID  uint8
	Rings     int
	LEDs      int
	KeyButton uint8
}

// XTouch is a device.Device over a pair of MIDI ports.
type XTouch struct {
	opts Options
	in   drivers.In
	out  *Output
	dec  *Decoder
}

var _ device.Device = (*XTouch)(nil)

func Open(opts Options) (*XTouch, error) {
	if opts.Rings < 1 || opts.Rings > NumEncoders {
		opts.Rings = NumEncoders
	}
	if opts.DeviceID == 0 {
		opts.DeviceID = DeviceIDXTouch
	}
	in, err := midiport.FindIn(opts.Port)
	if err != nil {
		return nil, fmt.Errorf("xtouch: %w", err)
	}
	outPort, err := midiport.FindOut(opts.Port)
	if err != nil {
		return nil, fmt.Errorf("xtouch: %w", err)
	}
	out, err := NewOutput(outPort, opts.DeviceID)
	if err != nil {
		outPort.Close()
		return nil, err
	}
	return &XTouch{opts: opts, in: in, out: out, dec: &Decoder{KeyButton: opts.KeyButton}}, nil
}

// Run reports Ready straight away; MIDI ports give no link state, so
// Disconnected is never sent.
func (x *XTouch) Run(ctx context.Context, events chan<- device.Event) error {
	emit := func(ev device.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	stop, err := midi.ListenTo(x.in, func(msg midi.Message, timestampms int32) {
		ev := x.dec.Decode(msg)
		switch ev.(type) {
		case device.Key, device.Delta:
			emit(ev)
		case nil:
		default:
			log.Debugw("ignored", "event", ev)
		}
	})
	if err != nil {
		return fmt.Errorf("xtouch: listen: %w", err)
	}
	defer stop()

	for i := 0; i < x.opts.Rings; i++ {
		if err := x.out.SetLCD(uint8(i), ColorWhite, "arcctl", fmt.Sprintf("ring %d", i)); err != nil {
			log.Warnw("lcd", "err", err)
		}
	}
	log.Infow("listening", "port", x.in.String())
	emit(device.Ready{Name: x.in.String(), Rings: x.opts.Rings, LEDs: x.opts.LEDs})

	<-ctx.Done()
	return nil
}

func (x *XTouch) Close() error {
	return errors.Join(x.in.Close(), x.out.Close())
}

func (x *XTouch) SetAll(ring, level int) error {
	v := uint8(0)
	if level > 0 {
		v = 127
	}
	return x.out.SetEncoderRing(uint8(ring), v)
}

// SetLevels reduces a level array to the single position an X-Touch ring
// can show.
func (x *XTouch) SetLevels(ring int, levels []int) error {
	return x.out.SetEncoderRing(uint8(ring), RingValue(levels))
}

// RingValue is the brightest LED's index scaled to 0..127; the last one
// wins ties.
func RingValue(levels []int) uint8 {
	if len(levels) < 2 {
		return 0
	}
	best, at := 0, 0
	for i, l := range levels {
		if l > 0 && l >= best {
			best, at = l, i
		}
	}
	return uint8(at * 127 / (len(levels) - 1))
}
