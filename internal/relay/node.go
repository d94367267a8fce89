package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/framecast/framecast/internal/metrics"
	"github.com/framecast/framecast/internal/protocol"
)

// ErrShutdown is returned when a new session is offered to a node that
// already started shutting down.
var ErrShutdown = errors.New("node is shutting down")

// NodeConfig holds the runtime options of a relay node.
type NodeConfig struct {
	// Name is the node name shown in logs and used as a metric label.
	Name string
	// MaxFrameSize limits the size of one inbound frame. Zero disables
	// the check.
	MaxFrameSize uint32
	// WriteTimeout bounds a single frame write to a TCP client. Zero
	// means no deadline.
	WriteTimeout time.Duration
	// ConnectionLimit caps the number of simultaneous sessions. Zero
	// means the wire identifier space is the only limit.
	ConnectionLimit int
}

// Node is the relay runtime. It admits transports, keeps the session
// registry and fans every inbound message out to all other sessions.
type Node struct {
	mu        sync.Mutex
	config    NodeConfig
	hub       *Hub
	shutdown  bool
	closeCh   chan struct{}
	sessionWG sync.WaitGroup
}

// New creates a relay node with the given options.
func New(config NodeConfig) *Node {
	return &Node{
		config:  config,
		hub:     newHub(config.ConnectionLimit),
		closeCh: make(chan struct{}),
	}
}

// Config returns a copy of the node options.
func (n *Node) Config() NodeConfig {
	return n.config
}

// TransportConfig returns the per-connection options raw TCP transports
// must be created with.
func (n *Node) TransportConfig() TCPTransportConfig {
	return TCPTransportConfig{
		MaxFrameSize: n.config.MaxFrameSize,
		WriteTimeout: n.config.WriteTimeout,
	}
}

// HandleTransport admits a new connection. It allocates a wire
// identifier, registers the session and starts its supervised read loop.
// Ownership of the transport passes to the node on success, on error the
// caller still owns it and must close it.
func (n *Node) HandleTransport(t Transport) (*Client, error) {
	c := newClient(n, t)
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return nil, ErrShutdown
	}
	id, err := n.hub.add(c)
	if err != nil {
		n.mu.Unlock()
		metrics.IncConnectionsRefused(t.Name())
		return nil, err
	}
	n.sessionWG.Add(1)
	n.mu.Unlock()

	metrics.IncConnections(t.Name())
	metrics.SetClients(n.hub.NumSessions())
	log.Debug().Str("client", c.uid).Uint8("id", id).Str("transport", t.Name()).Str("address", t.RemoteAddr()).Msg("client connected")

	go func() {
		defer n.sessionWG.Done()
		c.run()
	}()
	return c, nil
}

// removeClient drops the session from the registry. Safe to call more
// than once for one session.
func (n *Node) removeClient(c *Client) {
	if n.hub.remove(c.id) {
		metrics.SetClients(n.hub.NumSessions())
	}
}

// Broadcast republishes msg to every active session except the one with
// the given wire identifier. Passing 0 delivers to everyone.
func (n *Node) Broadcast(msg protocol.Message, excludeID uint8) {
	n.hub.broadcast(msg, excludeID)
}

// NumClients returns the number of active sessions.
func (n *Node) NumClients() int {
	return n.hub.NumSessions()
}

// NotifyShutdown returns a channel which is closed as soon as node
// shutdown starts.
func (n *Node) NotifyShutdown() chan struct{} {
	return n.closeCh
}

// Shutdown stops admitting new sessions, closes every active session and
// waits for their read loops to finish or for ctx to expire.
func (n *Node) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return nil
	}
	n.shutdown = true
	close(n.closeCh)
	n.mu.Unlock()

	n.hub.shutdown()

	done := make(chan struct{})
	go func() {
		n.sessionWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
