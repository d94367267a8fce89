package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ServerConfig holds the TCP relay endpoint options.
type ServerConfig struct {
	// Address is the interface to bind to. Empty means all interfaces.
	Address string
	// Port is the TCP port clients connect to.
	Port int
}

// Server accepts raw TCP connections and hands them to the node.
type Server struct {
	node   *Node
	config ServerConfig
	ln     net.Listener
}

// NewServer creates a TCP relay server attached to the given node.
func NewServer(n *Node, config ServerConfig) *Server {
	return &Server{
		node:   n,
		config: config,
	}
}

// Listen binds the relay endpoint. It is separate from Run so a bind
// failure surfaces synchronously during startup.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Address, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run accepts connections until ctx is canceled. Sessions admitted
// before cancellation keep running, closing them is the node's concern.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		transport := NewTCPTransport(conn, s.node.TransportConfig())
		if _, err := s.node.HandleTransport(transport); err != nil {
			log.Warn().Err(err).Str("address", conn.RemoteAddr().String()).Msg("refusing connection")
			_ = transport.Close()
		}
	}
}
