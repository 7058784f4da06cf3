package streamdeck

import (
	"arcctl/lib/device"
)

// Parser turns Stream Deck+ input reports into ring events. Key presses are
// tracked per key and per encoder, so the surface key stays held while any
// of them is down.
type Parser struct {
	KeyIndex int

	keys     [NumKeys]bool
	encoders [NumEncoders]bool
	held     bool
}

func (p *Parser) Parse(buf []byte) []device.Event {
	if len(buf) < 4 {
		return nil
	}
	switch buf[0] {
	case 0x00:
		for i := 0; i < NumKeys && 3+i < len(buf); i++ {
			p.keys[i] = buf[3+i] > 0
		}
		return p.key()
	case 0x03:
		if len(buf) < 4+NumEncoders {
			return nil
		}
		switch buf[3] {
		case 0x00:
			for i := range NumEncoders {
				p.encoders[i] = buf[4+i] > 0
			}
			return p.key()
		case 0x01:
			var evs []device.Event
			for i := range NumEncoders {
				if d := int8(buf[4+i]); d != 0 {
					evs = append(evs, device.Delta{Ring: i, Amount: float64(d)})
				}
			}
			return evs
		}
	}
	return nil
}

func (p *Parser) key() []device.Event {
	held := p.KeyIndex >= 0 && p.KeyIndex < NumKeys && p.keys[p.KeyIndex]
	for _, e := range p.encoders {
		held = held || e
	}
	if held == p.held {
		return nil
	}
	p.held = held
	return []device.Event{device.Key{Pressed: held}}
}
