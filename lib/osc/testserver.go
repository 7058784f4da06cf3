package osc

import (
	"net"
	"sync"
)

// TestServer is an in-process OSC peer for tests. It records every message
// it receives and, for UDP, can answer through Handler.
type TestServer struct {
	Messages chan Message
	// Handler, if set, is called for each UDP message; reply sends back to
	// the address given in the reply call.
	Handler func(msg Message, from *net.UDPAddr, reply func(to *net.UDPAddr, addr string, args ...any))

	udp      *net.UDPConn
	listener net.Listener
	mu       sync.Mutex
	conns    []net.Conn
	wg       sync.WaitGroup
}

func NewTestServer(transport string) (*TestServer, error) {
	s := &TestServer{Messages: make(chan Message, 256)}
	switch transport {
	case TransportTCP:
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		s.listener = ln
		s.wg.Add(1)
		go s.serveTCP()
	default:
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
		if err != nil {
			return nil, err
		}
		s.udp = conn
		s.wg.Add(1)
		go s.serveUDP()
	}
	return s, nil
}

func (s *TestServer) Port() int {
	if s.listener != nil {
		return s.listener.Addr().(*net.TCPAddr).Port
	}
	return s.udp.LocalAddr().(*net.UDPAddr).Port
}

// Send sends a message from the server's UDP socket.
func (s *TestServer) Send(to *net.UDPAddr, addr string, args ...any) error {
	_, err := s.udp.WriteToUDP(Encode(addr, args...), to)
	return err
}

func (s *TestServer) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.udp != nil {
		err = s.udp.Close()
	}
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *TestServer) record(m Message) {
	select {
	case s.Messages <- m:
	default:
	}
}

func (s *TestServer) serveUDP() {
	defer s.wg.Done()
	buf := make([]byte, 65536)
	for {
		n, from, err := s.udp.ReadFromUDP(buf)
		if err != nil {
			return
		}
		msg, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		s.record(msg)
		if s.Handler != nil {
			s.Handler(msg, from, func(to *net.UDPAddr, addr string, args ...any) {
				s.Send(to, addr, args...)
			})
		}
	}
}

func (s *TestServer) serveTCP() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *TestServer) handleConn(conn net.Conn) {
	defer s.wg.Done()
	buf := make([]byte, 0, 65536)
	tmp := make([]byte, 4096)
	for {
		n, err := conn.Read(tmp)
		if err != nil {
			return
		}
		buf = append(buf, tmp[:n]...)
		for {
			frame, rest, ok := NextFrame(buf)
			if !ok {
				break
			}
			buf = rest
			if msg, err := Decode(frame); err == nil {
				s.record(msg)
			}
		}
	}
}
