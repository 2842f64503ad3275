package simulator

import (
	"bufio"
	"fmt"
	"net"
	"sync"
)

type server struct {
	handler func(sess *session, line string) ([]string, bool)

	listener net.Listener
	connMu   sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// Start listens on a free loopback port and returns its address.
func (s *server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.conns = make(map[net.Conn]struct{})

	s.wg.Add(1)
	go s.acceptLoop()

	return ln.Addr().String(), nil
}

// Addr returns the listen address.
func (s *server) Addr() string {
	return s.listener.Addr().String()
}

// ConnectionCount returns the number of open client connections.
func (s *server) ConnectionCount() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}

// Close stops the listener and closes all client connections.
func (s *server) Close() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()

	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return err
}

func (s *server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.connMu.Lock()
		delete(s.conns, conn)
		s.connMu.Unlock()
		conn.Close()
	}()

	sess := &session{}
	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		replies, ok := s.handler(sess, scanner.Text())
		if !ok {
			continue
		}
		for _, r := range replies {
			if _, err := w.WriteString(r + "\r\n"); err != nil {
				return
			}
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
