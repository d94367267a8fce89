package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/framecast/framecast/internal/relay"
)

// Handler upgrades WebSocket client connections and hands them to the
// relay node. A WebSocket session is a full peer of raw TCP sessions:
// both ends up in the same hub and receive the same envelopes.
type Handler struct {
	node    *relay.Node
	upgrade *websocket.Upgrader
	config  Config
}

var writeBufferPool = &sync.Pool{}

// NewHandler creates new Handler.
func NewHandler(n *relay.Node, c Config) *Handler {
	upgrade := &websocket.Upgrader{
		ReadBufferSize: c.ReadBufferSize,
	}
	if c.UseWriteBufferPool {
		upgrade.WriteBufferPool = writeBufferPool
	} else {
		upgrade.WriteBufferSize = c.WriteBufferSize
	}
	upgrade.CheckOrigin = sameHostOriginCheck()
	return &Handler{
		node:    n,
		config:  c,
		upgrade: upgrade,
	}
}

func (s *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade.Upgrade(rw, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade error")
		return
	}

	writeTimeout := s.config.WriteTimeout.ToDuration()
	if writeTimeout == 0 {
		writeTimeout = DefaultWriteTimeout
	}
	messageSizeLimit := s.config.MessageSizeLimit
	if messageSizeLimit == 0 {
		messageSizeLimit = DefaultMessageSizeLimit
	}
	if messageSizeLimit > 0 {
		conn.SetReadLimit(int64(messageSizeLimit))
	}

	transport := newWebsocketTransport(conn, websocketTransportOptions{
		writeTimeout: writeTimeout,
	})

	select {
	case <-s.node.NotifyShutdown():
		_ = transport.Close()
		return
	default:
	}

	if _, err := s.node.HandleTransport(transport); err != nil {
		log.Warn().Err(err).Str("address", transport.RemoteAddr()).Msg("refusing connection")
		_ = transport.Close()
	}
}
