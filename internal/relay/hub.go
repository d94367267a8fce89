package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/framecast/framecast/internal/metrics"
	"github.com/framecast/framecast/internal/protocol"
)

// ErrHubFull is returned when no wire identifier can be allocated for a
// new session, either because the configured connection limit was reached
// or because the whole identifier space is in use.
var ErrHubFull = errors.New("connection limit reached")

// maxSessions is the size of the wire identifier space. Identifier 0 is
// reserved to mean "exclude nobody" on the fan-out path.
const maxSessions = 255

// shutdownSemaphoreSize limits the number of session close goroutines
// running concurrently during hub shutdown.
const shutdownSemaphoreSize = 128

// Hub tracks active client sessions keyed by wire identifier.
type Hub struct {
	sync.RWMutex
	sessions map[uint8]*Client
	// nextID is the allocation cursor. Identifiers of departed sessions
	// become allocatable again once the cursor wraps around to them.
	nextID uint8
	// limit caps the number of simultaneous sessions. Zero means the
	// identifier space is the only limit.
	limit int
}

// newHub creates an empty session hub.
func newHub(limit int) *Hub {
	if limit > maxSessions {
		limit = maxSessions
	}
	return &Hub{
		sessions: make(map[uint8]*Client),
		limit:    limit,
	}
}

// add allocates a wire identifier for c and registers it. The identifier
// is assigned to the client before it becomes visible to broadcasts.
func (h *Hub) add(c *Client) (uint8, error) {
	h.Lock()
	defer h.Unlock()
	if h.limit > 0 && len(h.sessions) >= h.limit {
		return 0, ErrHubFull
	}
	if len(h.sessions) >= maxSessions {
		return 0, ErrHubFull
	}
	id := h.nextID
	for {
		id++
		if id == 0 {
			// 0 is reserved, skip it on wraparound.
			id = 1
		}
		if _, used := h.sessions[id]; !used {
			break
		}
	}
	h.nextID = id
	c.id = id
	h.sessions[id] = c
	return id, nil
}

// remove deletes the session with the given identifier. It reports
// whether the session was still registered, so callers can make teardown
// side effects run exactly once.
func (h *Hub) remove(id uint8) bool {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.sessions[id]; !ok {
		return false
	}
	delete(h.sessions, id)
	return true
}

// get returns the registered session with the given identifier.
func (h *Hub) get(id uint8) (*Client, bool) {
	h.RLock()
	defer h.RUnlock()
	c, ok := h.sessions[id]
	return c, ok
}

// sessionsExcept returns a snapshot of registered sessions excluding the
// given identifier. Passing 0 excludes nobody. The lock only guards the
// snapshot, never the delivery writes.
func (h *Hub) sessionsExcept(excludeID uint8) []*Client {
	h.RLock()
	defer h.RUnlock()
	peers := make([]*Client, 0, len(h.sessions))
	for id, c := range h.sessions {
		if id == excludeID {
			continue
		}
		peers = append(peers, c)
	}
	return peers
}

// NumSessions returns the number of registered sessions.
func (h *Hub) NumSessions() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.sessions)
}

// broadcast encodes msg exactly once and delivers the identical envelope
// to every registered session except the excluded one. A failed write
// only affects the failing peer: its session starts closing and delivery
// to the remaining peers continues.
func (h *Hub) broadcast(msg protocol.Message, excludeID uint8) {
	started := time.Now()
	envelope := protocol.Encode(msg)
	kind := msg.Kind.String()
	delivered := 0
	for _, peer := range h.sessionsExcept(excludeID) {
		if err := peer.Send(envelope); err != nil {
			metrics.IncBroadcastErrors(kind)
			log.Debug().Err(err).Str("client", peer.uid).Uint8("id", peer.id).Msg("dropping peer from broadcast")
			continue
		}
		delivered++
	}
	metrics.AddMessagesDelivered(kind, delivered)
	metrics.ObserveBroadcastDuration(started, kind)
}

// shutdown closes every registered session and waits until all of them
// finished closing. Concurrency is limited to prevent a goroutine burst
// when many sessions are connected.
func (h *Hub) shutdown() {
	sessions := h.sessionsExcept(0)
	var wg sync.WaitGroup
	sem := make(chan struct{}, shutdownSemaphoreSize)
	for _, c := range sessions {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *Client) {
			defer wg.Done()
			defer func() { <-sem }()
			_ = c.Close(reasonShutdown)
		}(c)
	}
	wg.Wait()
}
