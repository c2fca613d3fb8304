// Package gateway forwards decoded frames to the network, the same shape
// as direwolf's kissnet.go (a bare TCP fan-out server) combined with
// igate.go's idea of handing received packets to a wider audience. Every
// connected client receives every validated frame as a length-prefixed
// message; the service also advertises itself on the LAN via mDNS so
// clients don't need to know the host ahead of time.
package gateway

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

const serviceType = "_spooky._tcp"

// Server fans decoded frames out to every connected TCP client.
type Server struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[net.Conn]struct{}
}

// NewServer creates a gateway server. Call Sink as a decoder.Sink to feed
// it validated frames, and Serve to accept clients and advertise the
// service.
func NewServer() *Server {
	return &Server{
		logger:  log.WithPrefix("gateway"),
		clients: make(map[net.Conn]struct{}),
	}
}

// Sink satisfies decoder.Sink: it fans data out to every connected client
// as a 2-byte big-endian length prefix followed by the payload.
func (s *Server) Sink(data []byte, _ any) {
	frame := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(frame, uint16(len(data)))
	copy(frame[2:], data)

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if _, err := conn.Write(frame); err != nil {
			s.logger.Warn("client write failed, dropping", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

// Serve accepts TCP clients on addr and advertises the service over mDNS
// until ctx is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}
	defer listener.Close()

	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err == nil {
		if cancel, err := s.advertise(ctx, portStr); err == nil {
			defer cancel()
		} else {
			s.logger.Warn("mdns advertise failed", "err", err)
		}
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		s.logger.Info("client connected", "remote", conn.RemoteAddr())
		s.mu.Lock()
		s.clients[conn] = struct{}{}
		s.mu.Unlock()
	}
}

func (s *Server) advertise(ctx context.Context, port string) (func(), error) {
	var p int
	fmt.Sscanf(port, "%d", &p)

	cfg := dnssd.Config{
		Name: "spooky",
		Type: serviceType,
		Port: p,
	}
	service, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, err
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, err
	}
	handle, err := responder.Add(service)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := responder.Respond(runCtx); err != nil && runCtx.Err() == nil {
			s.logger.Warn("mdns responder stopped", "err", err)
		}
	}()

	return func() {
		responder.Remove(handle)
		cancel()
	}, nil
}
