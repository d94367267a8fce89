package relay

import (
	"net"
	"sync"
	"time"

	"github.com/framecast/framecast/internal/protocol"
)

// Transport abstracts one client connection regardless of the underlying
// stream flavor. Read blocks until one complete envelope has been
// assembled, so callers never see partial frames. Write must be
// frame-atomic: two concurrent writers may not interleave bytes of
// different envelopes on the wire.
type Transport interface {
	// Name returns the transport name used in logs and metrics.
	Name() string
	// Read returns the next complete envelope received from the peer.
	Read() ([]byte, error)
	// Write sends one encoded envelope to the peer.
	Write(envelope []byte) error
	// Close closes the underlying connection. Safe to call more than once.
	Close() error
	// RemoteAddr returns the peer address for logging.
	RemoteAddr() string
}

// TCPTransportConfig holds per-connection options of the raw TCP transport.
type TCPTransportConfig struct {
	// MaxFrameSize limits the declared size of one inbound frame.
	// Zero disables the check.
	MaxFrameSize uint32
	// WriteTimeout is a deadline for a single frame write. Zero means
	// no deadline.
	WriteTimeout time.Duration
}

// tcpTransport speaks the outer length-prefixed framing over a net.Conn.
type tcpTransport struct {
	writeMu   sync.Mutex // serializes frame writes from session and broadcast paths.
	conn      net.Conn
	config    TCPTransportConfig
	closeOnce sync.Once
}

// NewTCPTransport wraps an accepted or dialed connection.
func NewTCPTransport(conn net.Conn, config TCPTransportConfig) Transport {
	return &tcpTransport{
		conn:   conn,
		config: config,
	}
}

func (t *tcpTransport) Name() string {
	return "tcp"
}

func (t *tcpTransport) Read() ([]byte, error) {
	return protocol.ReadFrame(t.conn, t.config.MaxFrameSize)
}

func (t *tcpTransport) Write(envelope []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.config.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	}
	err := protocol.WriteFrame(t.conn, envelope)
	if t.config.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}
	return err
}

func (t *tcpTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
