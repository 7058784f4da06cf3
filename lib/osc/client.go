package osc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
)

// Client sends messages to one remote peer.
type Client struct {
	transport string
	conn      net.Conn
	mu        sync.Mutex
}

func Dial(transport, host string, port int) (*Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	var (
		conn net.Conn
		err  error
	)
	switch transport {
	case TransportUDP:
		conn, err = net.Dial("udp", addr)
	case TransportTCP:
		conn, err = net.DialTimeout("tcp", addr, 5*time.Second)
	default:
		return nil, fmt.Errorf("osc: unknown transport %q", transport)
	}
	if err != nil {
		return nil, fmt.Errorf("osc: dial %s %s: %w", transport, addr, err)
	}
	return &Client{transport: transport, conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Send(addr string, args ...any) error {
	msg := Encode(addr, args...)
	if c.transport == TransportTCP {
		msg = SLIPEncode(msg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("osc: send %s: %w", addr, err)
	}
	return nil
}

// Endpoint is a local UDP socket that both receives and sends to arbitrary
// peers, as a serialosc client needs.
type Endpoint struct {
	conn *net.UDPConn
}

func Listen(host string, port int) (*Endpoint, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP(host), Port: port})
	if err != nil {
		return nil, fmt.Errorf("osc: listen: %w", err)
	}
	return &Endpoint{conn: conn}, nil
}

func (e *Endpoint) Port() int {
	return e.conn.LocalAddr().(*net.UDPAddr).Port
}

func (e *Endpoint) Close() error {
	return e.conn.Close()
}

func (e *Endpoint) SendTo(to *net.UDPAddr, addr string, args ...any) error {
	if _, err := e.conn.WriteToUDP(Encode(addr, args...), to); err != nil {
		return fmt.Errorf("osc: send %s to %s: %w", addr, to, err)
	}
	return nil
}

// Serve decodes incoming datagrams and hands them to fn until ctx is done or
// the socket is closed. Undecodable datagrams are dropped.
func (e *Endpoint) Serve(ctx context.Context, fn func(Message, *net.UDPAddr)) error {
	stop := context.AfterFunc(ctx, func() { e.conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, 65536)
	for {
		n, from, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("osc: read: %w", err)
		}
		msg, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		fn(msg, from)
	}
}
