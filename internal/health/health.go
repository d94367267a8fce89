package health

import (
	"net/http"

	"github.com/framecast/framecast/internal/relay"
)

// Config of health check handler.
type Config struct{}

// Handler handles health endpoint.
type Handler struct {
	node   *relay.Node
	config Config
}

// NewHandler creates new Handler.
func NewHandler(n *relay.Node, c Config) *Handler {
	h := &Handler{
		node:   n,
		config: c,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	select {
	case <-h.node.NotifyShutdown():
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
	}
	_, _ = w.Write([]byte(`{}`))
}
