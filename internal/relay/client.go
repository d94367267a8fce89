package relay

import (
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/framecast/framecast/internal/metrics"
	"github.com/framecast/framecast/internal/protocol"
)

// State describes the lifecycle of a client session. A session is only
// reachable by broadcasts while it is active.
type State int

const (
	// StateActive means the session is registered and relaying frames.
	StateActive State = iota
	// StateClosing means teardown started but resources are not yet
	// released.
	StateClosing
	// StateClosed means the connection is closed and the registry entry
	// is gone.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Close reasons used in logs and disconnect metrics.
const (
	reasonPeerClosed        = "peer closed connection"
	reasonReadError         = "read error"
	reasonWriteError        = "write error"
	reasonProtocolViolation = "protocol violation"
	reasonFrameTooLarge     = "frame size limit exceeded"
	reasonShutdown          = "shutdown"
)

// ErrClientClosed is returned by Send when the session already left the
// active state.
var ErrClientClosed = errors.New("client is closed")

// Client is one relay session. It owns the read side of its transport
// and republishes every valid inbound message to all other sessions with
// the sender field rewritten to its own wire identifier.
type Client struct {
	mu        sync.RWMutex
	node      *Node
	transport Transport
	// uid identifies the session in logs across reconnects, id is the
	// single-byte identifier peers see on the wire.
	uid     string
	id      uint8
	state   State
	closeCh chan struct{}
}

// newClient creates a session for the given transport. The wire
// identifier is assigned later, during hub registration.
func newClient(n *Node, t Transport) *Client {
	return &Client{
		node:      n,
		transport: t,
		uid:       uuid.NewString(),
		state:     StateActive,
		closeCh:   make(chan struct{}),
	}
}

// ID returns the session's wire identifier.
func (c *Client) ID() uint8 {
	return c.id
}

// UID returns the session's log identifier.
func (c *Client) UID() string {
	return c.uid
}

// State returns the session's lifecycle state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Transport returns the name of the session's transport.
func (c *Client) Transport() string {
	return c.transport.Name()
}

// run reads frames until the transport fails or the session is closed.
// Every terminal condition maps to a close reason, closing an already
// closing session is a no-op.
func (c *Client) run() {
	for {
		data, err := c.transport.Read()
		if err != nil {
			_ = c.Close(readCloseReason(err))
			return
		}
		metrics.AddBytesIn(c.transport.Name(), len(data))
		msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug().Err(err).Str("client", c.uid).Uint8("id", c.id).Msg("malformed frame")
			_ = c.Close(reasonProtocolViolation)
			return
		}
		// The sender byte is never trusted from the wire.
		msg = msg.WithSender(c.id)
		metrics.IncMessagesReceived(c.transport.Name(), msg.Kind.String())
		c.node.Broadcast(msg, c.id)
	}
}

// readCloseReason maps a transport read error to a close reason.
func readCloseReason(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return reasonPeerClosed
	case errors.Is(err, protocol.ErrFrameTooLarge):
		return reasonFrameTooLarge
	case errors.Is(err, protocol.ErrMalformedFrame):
		return reasonProtocolViolation
	default:
		return reasonReadError
	}
}

// Send delivers one encoded envelope to this session. On write failure
// the session starts closing asynchronously so a single stuck or dead
// peer never stalls the broadcast loop.
func (c *Client) Send(envelope []byte) error {
	select {
	case <-c.closeCh:
		return ErrClientClosed
	default:
	}
	if err := c.transport.Write(envelope); err != nil {
		go func() { _ = c.Close(reasonWriteError) }()
		return err
	}
	metrics.AddBytesOut(c.transport.Name(), len(envelope))
	return nil
}

// Close tears the session down: the registry entry is removed and the
// connection is closed exactly once. Subsequent calls are no-ops.
func (c *Client) Close(reason string) error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	close(c.closeCh)
	c.mu.Unlock()

	c.node.removeClient(c)
	err := c.transport.Close()

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()

	metrics.IncDisconnects(c.transport.Name(), reason)
	log.Debug().Str("client", c.uid).Uint8("id", c.id).Str("reason", reason).Msg("client disconnected")
	return err
}
