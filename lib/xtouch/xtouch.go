// Package xtouch drives a Behringer X-Touch or X-Touch Extender in MC/MIDI
// mode as a ring surface: the channel encoders are rings and one button is
// the key.
package xtouch

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"arcctl/lib/device"
)

const (
	DeviceIDXTouch   = 0x14
	DeviceIDExtender = 0x15
)

const (
	CCFaderFirst   = 70
	CCFaderLast    = 77
	CCFaderMain    = 78
	CCEncoderFirst = 80
	CCEncoderLast  = 87
	CCJogWheel     = 88
)

const (
	NoteButtonFirst = 0
	NoteButtonLast  = 103
	NoteSelectFirst = 24
	NumEncoders     = CCEncoderLast - CCEncoderFirst + 1
)

// ButtonEvent is any button other than the key.
type ButtonEvent struct {
	Button  uint8
	Pressed bool
}

func (e ButtonEvent) String() string {
	action := "released"
	if e.Pressed {
		action = "pressed"
	}
	return fmt.Sprintf("Button %d %s", e.Button, action)
}

type FaderEvent struct {
	Fader uint8
	Value uint8
}

func (e FaderEvent) String() string {
	if e.Fader == 8 {
		return fmt.Sprintf("Fader main = %d", e.Value)
	}
	return fmt.Sprintf("Fader %d = %d", e.Fader, e.Value)
}

type JogWheelEvent struct {
	Clockwise bool
}

func (e JogWheelEvent) String() string {
	if e.Clockwise {
		return "Jog wheel CW"
	}
	return "Jog wheel CCW"
}

// Decoder maps X-Touch MIDI onto ring events. Encoders must be in relative
// mode, where 65 is one step clockwise and 1 one step back.
type Decoder struct {
	KeyButton uint8
}

func (d *Decoder) Decode(msg midi.Message) device.Event {
	var channel, a, b uint8
	switch {
	case msg.GetNoteOn(&channel, &a, &b):
		return d.button(a, b > 0)
	case msg.GetNoteOff(&channel, &a, &b):
		return d.button(a, false)
	case msg.GetControlChange(&channel, &a, &b):
		return decodeCC(a, b)
	}
	return nil
}

func (d *Decoder) button(note uint8, pressed bool) device.Event {
	if note > NoteButtonLast {
		return nil
	}
	if note == d.KeyButton {
		return device.Key{Pressed: pressed}
	}
	return ButtonEvent{Button: note, Pressed: pressed}
}

func decodeCC(cc, value uint8) device.Event {
	switch {
	case cc >= CCEncoderFirst && cc <= CCEncoderLast:
		return device.Delta{Ring: int(cc - CCEncoderFirst), Amount: float64(relative(value))}
	case cc >= CCFaderFirst && cc <= CCFaderLast:
		return FaderEvent{Fader: cc - CCFaderFirst, Value: value}
	case cc == CCFaderMain:
		return FaderEvent{Fader: 8, Value: value}
	case cc == CCJogWheel:
		return JogWheelEvent{Clockwise: value == 65}
	}
	return nil
}

// relative decodes a sign-magnitude step: 65.. is clockwise, 1.. is counter.
func relative(v uint8) int {
	switch {
	case v > 64:
		return int(v - 64)
	case v > 0:
		return -int(v)
	}
	return 0
}
