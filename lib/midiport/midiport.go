// Package midiport finds MIDI ports by case-insensitive substring.
package midiport

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func FindIn(substr string) (drivers.In, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matching %q", substr)
}

func FindOut(substr string) (drivers.Out, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", substr)
}

// OpenVirtualOut creates an output port other applications can connect to.
func OpenVirtualOut(name string) (drivers.Out, error) {
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, fmt.Errorf("virtual MIDI ports need the rtmidi driver")
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		return nil, fmt.Errorf("open virtual port %q: %w", name, err)
	}
	return out, nil
}

// Names lists the port names of both directions.
func Names() (in, out []string) {
	for _, p := range midi.GetInPorts() {
		in = append(in, p.String())
	}
	for _, p := range midi.GetOutPorts() {
		out = append(out, p.String())
	}
	return in, out
}
