// Package hub fans asynchronously produced events out to a changing set
// of live subscriber connections, isolating per-subscriber failures.
package hub

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Conn: one live subscriber, provided by the transport layer (SSE over
// HTTP, frame streams over QUIC). Send must be safe to call from the
// hub's delivery goroutine.
type Conn interface {
	// ID: opaque identity for logging and registry keys.
	ID() string
	IsOpen() bool
	Send(Event) error
}

// Producer builds the event for one tick; seq starts at 1 and increases
// by one per tick.
type Producer func(seq uint64) Event

// Hub owns the live-subscriber registry and an autonomous producer loop.
// Events from one hub reach each subscriber in generation order; there
// is no ordering across subscribers or hubs. A slow subscriber can delay
// a delivery pass: sends carry no timeout (known limitation).
type Hub struct {
	period  time.Duration
	produce Producer

	mu    sync.Mutex
	conns map[string]Conn

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New builds a hub ticking at period. The producer may be nil, in which
// case Start is a no-op and the hub is registry-and-Deliver only.
func New(period time.Duration, produce Producer) *Hub {
	return &Hub{
		period:  period,
		produce: produce,
		conns:   make(map[string]Conn),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnOpen registers conn. Safe to call while a delivery pass is running;
// the conn joins the next pass at the latest.
func (h *Hub) OnOpen(conn Conn) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	h.mu.Unlock()
	log.Printf("hub: subscriber %s open, %d live", conn.ID(), h.Len())
}

// OnClose removes conn. No-op if it was already removed.
func (h *Hub) OnClose(conn Conn) {
	h.mu.Lock()
	_, present := h.conns[conn.ID()]
	delete(h.conns, conn.ID())
	h.mu.Unlock()
	if present {
		log.Printf("hub: subscriber %s closed, %d live", conn.ID(), h.Len())
	}
}

// Len: current live-subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Deliver sends event to a point-in-time snapshot of the live set. A
// member whose Send fails is skipped, not removed; members observed
// closed during the pass are pruned afterwards. Zero subscribers is a
// no-op.
func (h *Hub) Deliver(event Event) {
	h.mu.Lock()
	snapshot := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	var closed []string
	for _, c := range snapshot {
		if !c.IsOpen() {
			closed = append(closed, c.ID())
			continue
		}
		if err := c.Send(event); err != nil {
			log.Printf("hub: send to %s failed: %v", c.ID(), err)
		}
	}
	if len(closed) > 0 {
		h.mu.Lock()
		for _, id := range closed {
			delete(h.conns, id)
		}
		h.mu.Unlock()
	}
}

// Start launches the producer loop. Second and later calls are no-ops.
func (h *Hub) Start() {
	if h.produce == nil || !h.started.CompareAndSwap(false, true) {
		return
	}
	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			seq++
			h.Deliver(h.produce(seq))
		}
	}
}

// Stop halts the producer loop and waits for it to exit: once Stop
// returns no further Deliver happens from this hub's loop. Idempotent;
// interrupts a pending tick wait within one period.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	if h.started.Load() {
		<-h.done
	}
}
