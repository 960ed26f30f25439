package transfer

import "sync/atomic"

// Counters: process-wide transfer metrics. Increments are lock-free so
// arbitrarily many concurrent transfers never lose an update. One
// instance is shared by every engine constructed with it.
type Counters struct {
	transfers atomic.Int64
	bytes     atomic.Int64
	errors    atomic.Int64
}

// Transfers: completed transfers (either path).
func (c *Counters) Transfers() int64 { return c.transfers.Load() }

// Bytes: total bytes moved by completed transfers.
func (c *Counters) Bytes() int64 { return c.bytes.Load() }

// Errors: zero-copy failures (stalled or unsupported sink).
func (c *Counters) Errors() int64 { return c.errors.Load() }

// Reset zeroes all counters. Administrative use; the only mutation path
// besides the engine's increments.
func (c *Counters) Reset() {
	c.transfers.Store(0)
	c.bytes.Store(0)
	c.errors.Store(0)
}

// Snapshot: point-in-time counter values, for journaling and heartbeats.
type Snapshot struct {
	Transfers int64 `json:"transfers"`
	Bytes     int64 `json:"bytes"`
	Errors    int64 `json:"errors"`
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Transfers: c.transfers.Load(),
		Bytes:     c.bytes.Load(),
		Errors:    c.errors.Load(),
	}
}
