// Package sender turns ring values into MIDI Control Change and OSC
// traffic.
package sender

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"arcctl/lib/logging"
	"arcctl/lib/midiport"
	"arcctl/lib/model"
)

var log = logging.New("sender")

const (
	Max7  = 127
	Max14 = 16383
	// 14-bit pairs put the LSB on cc+32, so the MSB controller must be below 32.
	MaxCC14 = 31
)

// Scale7 maps a normalized value to 0..127, truncating.
func Scale7(v float64) int {
	return int(model.Clamp(v*Max7, 0, Max7))
}

// Scale14 maps a normalized value to 0..16383, truncating.
func Scale14(v float64) int {
	return int(model.Clamp(v*Max14, 0, Max14))
}

// Split14 returns the MSB and LSB halves of a 14-bit value.
func Split14(v int) (msb, lsb uint8) {
	return uint8((v >> 7) & 0x7F), uint8(v & 0x7F)
}

type MIDI struct {
	send  func(msg midi.Message) error
	close func() error
}

// NewMIDI wraps a send function such as the one midi.SendTo returns.
func NewMIDI(send func(msg midi.Message) error) *MIDI {
	return &MIDI{send: send}
}

// OpenMIDI opens a virtual output port called name, or the first existing
// output port whose name contains name.
func OpenMIDI(name string, virtual bool) (*MIDI, error) {
	var (
		port drivers.Out
		err  error
	)
	if virtual {
		port, err = midiport.OpenVirtualOut(name)
	} else {
		port, err = midiport.FindOut(name)
	}
	if err != nil {
		return nil, fmt.Errorf("sender: midi: %w", err)
	}
	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("sender: midi: open output port: %w", err)
	}
	log.Infow("midi output open", "port", port.String(), "virtual", virtual)
	return &MIDI{send: send, close: port.Close}, nil
}

func (m *MIDI) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

func (m *MIDI) SendCC7(ch, cc, v int) error {
	if err := m.send(midi.ControlChange(uint8(ch), uint8(cc), uint8(v&0x7F))); err != nil {
		return fmt.Errorf("sender: cc %d: %w", cc, err)
	}
	return nil
}

// SendCC14 sends the MSB on cc and the LSB on cc+32.
func (m *MIDI) SendCC14(ch, cc, v int) error {
	if cc > MaxCC14 {
		return fmt.Errorf("sender: cc %d cannot carry a 14-bit value", cc)
	}
	msb, lsb := Split14(v)
	if err := m.send(midi.ControlChange(uint8(ch), uint8(cc), msb)); err != nil {
		return fmt.Errorf("sender: cc %d msb: %w", cc, err)
	}
	if err := m.send(midi.ControlChange(uint8(ch), uint8(cc+32), lsb)); err != nil {
		return fmt.Errorf("sender: cc %d lsb: %w", cc+32, err)
	}
	return nil
}
