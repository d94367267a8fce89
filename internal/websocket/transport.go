package websocket

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/framecast/framecast/internal/protocol"
)

var errTransportClosed = errors.New("websocket transport closed")

// websocketTransport is a wrapper struct over a websocket connection to
// fit the relay transport interface. WebSocket messages arrive already
// delimited, so envelopes travel as single binary messages without the
// outer length prefix used on raw TCP.
type websocketTransport struct {
	mu      sync.RWMutex
	writeMu sync.Mutex // sync writes coming from different broadcasting sessions.
	conn    *websocket.Conn
	closed  bool
	closeCh chan struct{}
	opts    websocketTransportOptions
}

type websocketTransportOptions struct {
	writeTimeout time.Duration
}

func newWebsocketTransport(conn *websocket.Conn, opts websocketTransportOptions) *websocketTransport {
	return &websocketTransport{
		conn:    conn,
		closeCh: make(chan struct{}),
		opts:    opts,
	}
}

// Name returns name of transport.
func (t *websocketTransport) Name() string {
	return "websocket"
}

// Read returns the next binary message as one envelope. Orderly close
// frames surface as io.EOF so the session accounts them as a peer
// leaving, not as a failure.
func (t *websocketTransport) Read() ([]byte, error) {
	messageType, data, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		if errors.Is(err, websocket.ErrReadLimit) {
			return nil, protocol.ErrFrameTooLarge
		}
		return nil, err
	}
	if messageType != websocket.BinaryMessage {
		return nil, protocol.ErrMalformedFrame
	}
	return data, nil
}

// Write sends one envelope as a single binary message.
func (t *websocketTransport) Write(envelope []byte) error {
	select {
	case <-t.closeCh:
		return errTransportClosed
	default:
		return t.writeData(envelope)
	}
}

func (t *websocketTransport) writeData(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.opts.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.opts.writeTimeout))
	}
	err := t.conn.WriteMessage(websocket.BinaryMessage, data)
	if err != nil {
		return err
	}
	if t.opts.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}
	return nil
}

// Close closes transport.
func (t *websocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.closeCh)
	t.mu.Unlock()
	return t.conn.Close()
}

// RemoteAddr returns the peer address.
func (t *websocketTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
