package xtouch

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"arcctl/lib/device"
)

func TestDecode(t *testing.T) {
	d := &Decoder{KeyButton: 24}
	cases := []struct {
		msg  midi.Message
		want device.Event
	}{
		{midi.ControlChange(0, CCEncoderFirst+2, 65), device.Delta{Ring: 2, Amount: 1}},
		{midi.ControlChange(0, CCEncoderFirst, 1), device.Delta{Ring: 0, Amount: -1}},
		{midi.ControlChange(0, CCEncoderFirst+7, 68), device.Delta{Ring: 7, Amount: 4}},
		{midi.NoteOn(0, 24, 127), device.Key{Pressed: true}},
		{midi.NoteOn(0, 24, 0), device.Key{Pressed: false}},
		{midi.NoteOffVelocity(0, 24, 0), device.Key{Pressed: false}},
		{midi.NoteOn(0, 5, 127), ButtonEvent{Button: 5, Pressed: true}},
		{midi.ControlChange(0, CCFaderMain, 99), FaderEvent{Fader: 8, Value: 99}},
		{midi.ControlChange(0, CCJogWheel, 65), JogWheelEvent{Clockwise: true}},
		{midi.ControlChange(0, 20, 1), nil},
	}
	for _, c := range cases {
		if got := d.Decode(c.msg); got != c.want {
			t.Errorf("%v: got %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestRingValue(t *testing.T) {
	levels := make([]int, 64)
	if got := RingValue(levels); got != 0 {
		t.Errorf("dark ring: got %d, want 0", got)
	}
	levels[63] = 3
	if got := RingValue(levels); got != 127 {
		t.Errorf("last led: got %d, want 127", got)
	}
	levels[21] = 15
	if got := RingValue(levels); got != 42 {
		t.Errorf("brightest: got %d, want 42", got)
	}
}

func TestFit(t *testing.T) {
	if got := fit("ab", 4); got != "ab  " {
		t.Errorf("got %q, want %q", got, "ab  ")
	}
	if got := fit("abcdefgh", 7); got != "abcdefg" {
		t.Errorf("got %q, want %q", got, "abcdefg")
	}
}

type closingIn struct {
	drivers.In
	closed bool
}

func (c *closingIn) Close() error {
	c.closed = true
	return nil
}

func TestCloseReleasesBothPorts(t *testing.T) {
	in := &closingIn{}
	outClosed := false
	x := &XTouch{
		in: in,
		out: &Output{
			send:  func(midi.Message) error { return nil },
			close: func() error { outClosed = true; return nil },
		},
	}
	if err := x.Close(); err != nil {
		t.Fatal(err)
	}
	if !in.closed || !outClosed {
		t.Errorf("closed: in %v, out %v, want both", in.closed, outClosed)
	}
}
