package osc

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	data := Encode("/arcctl/layer/0/ring/1/value", float64(0.25), 7, "hi", true)
	if len(data)%4 != 0 {
		t.Fatalf("length %d not 4-aligned", len(data))
	}
	m, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Address != "/arcctl/layer/0/ring/1/value" {
		t.Errorf("got %q", m.Address)
	}
	if len(m.Args) != 4 {
		t.Fatalf("got %d args, want 4", len(m.Args))
	}
	if m.Args[0] != float32(0.25) {
		t.Errorf("float: got %v", m.Args[0])
	}
	if v, ok := m.Int(1); !ok || v != 7 {
		t.Errorf("int: got %v %v", v, ok)
	}
	if s, ok := m.Str(2); !ok || s != "hi" {
		t.Errorf("string: got %q %v", s, ok)
	}
	if m.Args[3] != true {
		t.Errorf("bool: got %v", m.Args[3])
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	got := Encode("/a", int32(1))
	want := []byte{'/', 'a', 0, 0, ',', 'i', 0, 0, 0, 0, 0, 1}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{1}); err == nil {
		t.Error("expected error for short message")
	}
	if _, err := Decode([]byte("#bundle\x00")); err == nil {
		t.Error("expected error for bundle")
	}
	data := Encode("/a", int32(1))
	if _, err := Decode(data[:len(data)-2]); err == nil {
		t.Error("expected error for truncated int")
	}
}

func TestSLIPRoundTrip(t *testing.T) {
	payload := []byte{1, slipEnd, 2, slipEsc, 3}
	framed := SLIPEncode(payload)
	frame, rest, ok := NextFrame(append(framed, slipEnd))
	if !ok {
		t.Fatal("no frame")
	}
	if !bytes.Equal(frame, payload) {
		t.Errorf("got %v, want %v", frame, payload)
	}
	if len(rest) != 1 {
		t.Errorf("rest: got %v", rest)
	}
}

func TestNextFrameIncomplete(t *testing.T) {
	_, rest, ok := NextFrame([]byte{slipEnd, 1, 2})
	if ok {
		t.Fatal("got a frame from a partial buffer")
	}
	if len(rest) != 3 {
		t.Errorf("partial buffer consumed: %v", rest)
	}
}

func receive(t *testing.T, s *TestServer) Message {
	t.Helper()
	select {
	case m := <-s.Messages:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestClientTransports(t *testing.T) {
	for _, transport := range []string{TransportUDP, TransportTCP} {
		t.Run(transport, func(t *testing.T) {
			s, err := NewTestServer(transport)
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()

			c, err := Dial(transport, "127.0.0.1", s.Port())
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()

			if err := c.Send("/x", float64(0.5)); err != nil {
				t.Fatal(err)
			}
			if err := c.Send("/y", 3); err != nil {
				t.Fatal(err)
			}
			if m := receive(t, s); m.Address != "/x" || m.Args[0] != float32(0.5) {
				t.Errorf("got %v", m)
			}
			if m := receive(t, s); m.Address != "/y" {
				t.Errorf("got %v", m)
			}
		})
	}
}

func TestDialUnknownTransport(t *testing.T) {
	if _, err := Dial("sctp", "127.0.0.1", 1); err == nil {
		t.Error("expected error")
	}
}

func TestEndpointServe(t *testing.T) {
	s, err := NewTestServer(TransportUDP)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Handler = func(m Message, from *net.UDPAddr, reply func(*net.UDPAddr, string, ...any)) {
		reply(from, "/pong", m.Args...)
	}

	e, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	got := make(chan Message, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Serve(ctx, func(m Message, _ *net.UDPAddr) { got <- m })
	}()

	to := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: s.Port()}
	if err := e.SendTo(to, "/ping", int32(9)); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-got:
		if v, _ := m.Int(0); m.Address != "/pong" || v != 9 {
			t.Errorf("got %v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve: got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}
