package edge

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"dev.c0redev.0http/internal/hub"
)

var errConnClosed = errors.New("connection closed")

// sseConn: hub.Conn over a flushable HTTP response.
type sseConn struct {
	id     string
	mu     sync.Mutex
	w      http.ResponseWriter
	fl     http.Flusher
	closed atomic.Bool
}

func (c *sseConn) ID() string   { return c.id }
func (c *sseConn) IsOpen() bool { return !c.closed.Load() }

func (c *sseConn) Send(e hub.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Checked under the lock: once the endpoint handler marks the conn
	// closed and takes the lock, no later Send may touch the writer.
	if c.closed.Load() {
		return errConnClosed
	}
	if _, err := c.w.Write(e.Marshal()); err != nil {
		c.closed.Store(true)
		return err
	}
	c.fl.Flush()
	return nil
}

// Events returns the SSE endpoint: each client is registered with h for
// the lifetime of its request.
func Events(h *hub.Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fl.Flush()

		c := &sseConn{id: "sse-" + uuid.NewString()[:8] + "@" + r.RemoteAddr, w: w, fl: fl}
		h.OnOpen(c)
		<-r.Context().Done()
		// net/http tears the writer down once this handler returns.
		// Marking closed under the lock waits out any Send already in
		// flight, so no write can touch the dead writer afterwards.
		c.mu.Lock()
		c.closed.Store(true)
		c.mu.Unlock()
		h.OnClose(c)
	})
}
