package sender

import (
	"errors"

	"arcctl/lib/model"
)

// Output fans a ring's value out to whichever senders are configured. Either
// may be nil.
type Output struct {
	MIDI    *MIDI
	OSC     *OSC
	Channel int

	failing bool
}

// Send pushes r's current value. MIDI goes out only for the MIDI value
// styles; OSC carries every style as a float.
func (o *Output) Send(r *model.RingState) {
	var errs []error
	if o.MIDI != nil {
		switch r.ValueStyle {
		case model.ValueMIDI7:
			errs = append(errs, o.MIDI.SendCC7(o.Channel, r.CCNumber, Scale7(r.Value)))
		case model.ValueMIDI14:
			errs = append(errs, o.MIDI.SendCC14(o.Channel, r.CCNumber, Scale14(r.Value)))
		}
	}
	if o.OSC != nil {
		errs = append(errs, o.OSC.SendFloat(o.OSC.Address(r.Layer, r.Index), r.Value))
	}
	o.report(r, errors.Join(errs...))
}

// report logs the first failure and the recovery, not every frame between.
func (o *Output) report(r *model.RingState, err error) {
	switch {
	case err != nil && !o.failing:
		log.Warnw("send failed", "ring", r.String(), "err", err)
	case err == nil && o.failing:
		log.Infow("send recovered", "ring", r.String())
	}
	o.failing = err != nil
}

func (o *Output) Close() error {
	var errs []error
	if o.MIDI != nil {
		errs = append(errs, o.MIDI.Close())
	}
	if o.OSC != nil {
		errs = append(errs, o.OSC.Close())
	}
	return errors.Join(errs...)
}
