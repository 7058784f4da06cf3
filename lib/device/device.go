// Package device is the contract between the controller and a ring surface
// backend (arc, X-Touch, Stream Deck+).
package device

import (
	"context"
	"fmt"
)

type Event interface {
	String() string
}

// Ready is sent once the backend can accept LED output.
type Ready struct {
	Name  string
	Rings int
	LEDs  int
}

func (e Ready) String() string {
	return fmt.Sprintf("Ready %s (%d rings x %d leds)", e.Name, e.Rings, e.LEDs)
}

type Disconnected struct {
	Err error
}

func (e Disconnected) String() string {
	if e.Err != nil {
		return fmt.Sprintf("Disconnected: %v", e.Err)
	}
	return "Disconnected"
}

type Key struct {
	Pressed bool
}

func (e Key) String() string {
	if e.Pressed {
		return "Key pressed"
	}
	return "Key released"
}

type Delta struct {
	Ring   int
	Amount float64
}

func (e Delta) String() string {
	return fmt.Sprintf("Ring %d %+g", e.Ring, e.Amount)
}

// Sink accepts ring LED output. levels has one entry per LED.
type Sink interface {
	SetAll(ring, level int) error
	SetLevels(ring int, levels []int) error
}

// Device is a backend. Run blocks, delivering events until ctx is done or
// the link fails for good; a backend that can reconnect sends Disconnected
// and later Ready again instead of returning.
type Device interface {
	Sink
	Run(ctx context.Context, events chan<- Event) error
	Close() error
}
