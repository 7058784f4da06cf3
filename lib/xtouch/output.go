package xtouch

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type LCDColor uint8

const (
	ColorBlack LCDColor = 0
	ColorRed   LCDColor = 1
	ColorGreen LCDColor = 2
	ColorWhite LCDColor = 7
)

type Output struct {
	send     func(msg midi.Message) error
	close    func() error
	DeviceID uint8
}

func NewOutput(port drivers.Out, deviceID uint8) (*Output, error) {
	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("xtouch: open output port: %w", err)
	}
	return &Output{send: send, close: port.Close, DeviceID: deviceID}, nil
}

func (o *Output) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// SetEncoderRing sets the ring position the device draws for an encoder.
func (o *Output) SetEncoderRing(encoder, value uint8) error {
	return o.send(midi.ControlChange(0, CCEncoderFirst+encoder, value))
}

// SetLCD writes two 7 character lines on a channel scribble strip.
func (o *Output) SetLCD(lcd uint8, color LCDColor, upper, lower string) error {
	data := []byte{0x00, 0x20, 0x32, o.DeviceID, 0x4C, lcd, uint8(color)}
	data = append(data, fit(upper, 7)...)
	data = append(data, fit(lower, 7)...)
	return o.send(midi.SysEx(data))
}

func fit(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return fmt.Sprintf("%-*s", n, s)
}
