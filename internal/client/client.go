// Package client implements a Go client for the relay protocol.
package client

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/framecast/framecast/internal/protocol"
)

// Config holds client connection options.
type Config struct {
	// DialTimeout bounds the TCP connect. Zero means no timeout.
	DialTimeout time.Duration
	// WriteTimeout bounds one frame write. Zero means no timeout.
	WriteTimeout time.Duration
	// MaxFrameSize limits the declared size of one inbound frame.
	// Zero disables the check.
	MaxFrameSize uint32
}

// Client is a relay client over raw TCP. Received messages accumulate
// in its Inbox, sending is safe from multiple goroutines.
type Client struct {
	mu       sync.Mutex
	conn     net.Conn
	config   Config
	inbox    *Inbox
	stopOnce sync.Once
	doneCh   chan struct{}
	err      error
}

// Connect dials the relay endpoint and starts receiving messages.
func Connect(addr string, config Config) (*Client, error) {
	var conn net.Conn
	var err error
	if config.DialTimeout > 0 {
		conn, err = net.DialTimeout("tcp", addr, config.DialTimeout)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c := &Client{
		conn:   conn,
		config: config,
		inbox:  NewInbox(),
		doneCh: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Inbox returns the client's message inbox.
func (c *Client) Inbox() *Inbox {
	return c.inbox
}

// Send delivers one payload of the given kind to all other connected
// clients. The sender identifier is assigned by the server, whatever is
// sent in that field is ignored.
func (c *Client) Send(kind protocol.Kind, payload []byte) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid message kind %d", kind)
	}
	envelope := protocol.Encode(protocol.Message{Kind: kind, Payload: payload})
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	err := protocol.WriteFrame(c.conn, envelope)
	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	return err
}

// SendText sends a text message.
func (c *Client) SendText(payload []byte) error {
	return c.Send(protocol.KindText, payload)
}

// SendEvent sends an event message.
func (c *Client) SendEvent(payload []byte) error {
	return c.Send(protocol.KindEvent, payload)
}

// SendSnapshot sends a snapshot message.
func (c *Client) SendSnapshot(payload []byte) error {
	return c.Send(protocol.KindSnapshot, payload)
}

// Done is closed once the connection is gone, whether closed locally or
// by the server.
func (c *Client) Done() <-chan struct{} {
	return c.doneCh
}

// Err returns the terminal connection error. It is nil after a local
// Close and io.EOF after an orderly close by the server. Only valid
// once Done is closed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close closes the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.stop(nil)
	return nil
}

func (c *Client) readLoop() {
	for {
		data, err := protocol.ReadFrame(c.conn, c.config.MaxFrameSize)
		if err != nil {
			c.stop(err)
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			c.stop(err)
			return
		}
		c.inbox.put(msg)
	}
}

func (c *Client) stop(err error) {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		_ = c.conn.Close()
		close(c.doneCh)
	})
}
