package streamdeck

import (
	"context"
	"fmt"
	"image"

	"arcctl/lib/device"
	"arcctl/lib/logging"
)

var log = logging.New("streamdeck")

type Options struct {
	LEDs          int
	MaxBrightness int
	KeyIndex      int
	Brightness    byte
}

// panel is the part of *Deck the surface drives.
type panel interface {
	SerialNumber() string
	ReadReport() ([]byte, error)
	SetLCDImage(r image.Rectangle, img image.Image) error
	Close() error
}

// Surface is a device.Device over a Stream Deck+.
type Surface struct {
	opts Options
	deck panel
}

var _ device.Device = (*Surface)(nil)

func Open(opts Options) (*Surface, error) {
	if opts.LEDs <= 0 {
		opts.LEDs = 64
	}
	if opts.MaxBrightness <= 0 {
		opts.MaxBrightness = 15
	}
	if opts.Brightness == 0 {
		opts.Brightness = 60
	}
	deck, err := OpenDeck()
	if err != nil {
		return nil, err
	}
	if err := deck.SetBrightness(opts.Brightness); err != nil {
		deck.Close()
		return nil, fmt.Errorf("streamdeck: brightness: %w", err)
	}
	return &Surface{opts: opts, deck: deck}, nil
}

// Run reads HID input until ctx is done or the device goes away.
func (s *Surface) Run(ctx context.Context, events chan<- device.Event) error {
	emit := func(ev device.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	name := "Stream Deck+ " + s.deck.SerialNumber()
	log.Infow("opened", "device", name)
	if !emit(device.Ready{Name: name, Rings: NumEncoders, LEDs: s.opts.LEDs}) {
		return nil
	}

	p := &Parser{KeyIndex: s.opts.KeyIndex}
	for {
		buf, err := s.deck.ReadReport()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			emit(device.Disconnected{Err: err})
			return fmt.Errorf("streamdeck: read: %w", err)
		}
		for _, ev := range p.Parse(buf) {
			if !emit(ev) {
				return nil
			}
		}
	}
}

// Close also unblocks a pending read in Run.
func (s *Surface) Close() error {
	return s.deck.Close()
}

func (s *Surface) SetAll(ring, level int) error {
	levels := make([]int, s.opts.LEDs)
	for i := range levels {
		levels[i] = level
	}
	return s.SetLevels(ring, levels)
}

// SetLevels redraws the segment every call; the renderer decides what is
// worth sending.
func (s *Surface) SetLevels(ring int, levels []int) error {
	if ring < 0 || ring >= NumEncoders {
		return fmt.Errorf("streamdeck: no ring %d", ring)
	}
	img := RingImage(levels, s.opts.MaxBrightness, fmt.Sprintf("R%d", ring))
	return s.deck.SetLCDImage(Segment(ring), img)
}
