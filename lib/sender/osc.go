package sender

import (
	"fmt"

	"arcctl/lib/osc"
)

type OSC struct {
	client *osc.Client
	prefix string
}

func OpenOSC(transport, host string, port int, prefix string) (*OSC, error) {
	c, err := osc.Dial(transport, host, port)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	log.Infow("osc output open", "transport", transport, "host", host, "port", port, "prefix", prefix)
	return &OSC{client: c, prefix: prefix}, nil
}

func (o *OSC) Close() error {
	return o.client.Close()
}

// Address is where a ring's value goes.
func (o *OSC) Address(layer, ring int) string {
	return fmt.Sprintf("%s/layer/%d/ring/%d/value", o.prefix, layer, ring)
}

func (o *OSC) SendFloat(addr string, v float64) error {
	return o.client.Send(addr, float32(v))
}

func (o *OSC) SendInt(addr string, v int) error {
	return o.client.Send(addr, int32(v))
}
