package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/framecast/framecast/internal/metrics"
)

// HTTPServerInstrumentation is a middleware to instrument HTTP handlers.
// Durations are not collected here because the WebSocket handler keeps
// connections open for their whole lifetime. So for now we just count
// requests.
func HTTPServerInstrumentation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &statusResponseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)
		status := strconv.Itoa(rw.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, r.Method, status).Inc()
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *statusResponseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// Hijack as we need it for Websocket.
func (rw *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw.status = http.StatusSwitchingProtocols
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("ResponseWriter doesn't support Hijacker interface")
	}
	return hijacker.Hijack()
}

// Flush for handlers streaming their response.
func (rw *statusResponseWriter) Flush() {
	rw.ResponseWriter.(http.Flusher).Flush()
}
