// Package transfer moves file bytes to a sink, preferring a
// kernel-assisted zero-copy path with bounded chunking and falling back
// to buffered copies when the sink cannot pull from the file directly.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Mode: which path moved the bytes.
type Mode int

const (
	ZeroCopy Mode = iota
	Buffered
)

func (m Mode) String() string {
	if m == ZeroCopy {
		return "zero-copy"
	}
	return "buffered"
}

// Outcome of one completed transfer.
type Outcome struct {
	Mode       Mode
	BytesMoved int64
}

var ErrSourceUnreadable = errors.New("source unreadable")

// ErrStalled: a chunk call moved zero bytes with bytes remaining. Fatal
// for that transfer, never retried.
var ErrStalled = errors.New("transfer stalled")

// DefaultChunkSize caps one zero-copy call so a single large file cannot
// monopolize the connection and per-call blocking stays bounded.
const DefaultChunkSize = 64 << 20

// fallbackBlockSize: read/write block for the buffered path.
const fallbackBlockSize = 64 * 1024

// Engine performs file-to-sink transfers. Safe for concurrent use;
// transfers are fully parallel, the only shared state is the counters.
type Engine struct {
	chunkSize int64
	counters  *Counters
}

// NewEngine builds an engine with the given chunk cap and injected
// counters. chunkSize <= 0 selects DefaultChunkSize.
func NewEngine(chunkSize int64, counters *Counters) *Engine {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if counters == nil {
		counters = &Counters{}
	}
	return &Engine{chunkSize: chunkSize, counters: counters}
}

// Counters returns the engine's metrics counters.
func (e *Engine) Counters() *Counters { return e.counters }

// Transfer moves the file at path to sink. Sinks implementing
// io.ReaderFrom (net.TCPConn, net/http responses) take the zero-copy
// path; others silently fall back to buffered copying, counted as a
// zero-copy miss. ErrSourceUnreadable fails fast; ErrStalled terminates
// a zero-progress transfer without retry.
func (e *Engine) Transfer(path string, sink io.Writer) (Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	if info.IsDir() {
		return Outcome{}, fmt.Errorf("%w: %s: is a directory", ErrSourceUnreadable, path)
	}

	rf, ok := sink.(io.ReaderFrom)
	if !ok {
		// Sink cannot pull from the file; platform/sink combination
		// does not support zero-copy.
		e.counters.errors.Add(1)
		return e.buffered(f, sink)
	}
	moved, err := e.zeroCopy(f, rf, info.Size())
	if err != nil {
		e.counters.errors.Add(1)
		return Outcome{Mode: ZeroCopy, BytesMoved: moved}, err
	}
	e.counters.transfers.Add(1)
	e.counters.bytes.Add(moved)
	return Outcome{Mode: ZeroCopy, BytesMoved: moved}, nil
}

// zeroCopy hands the sink bounded slices of the file to pull. The
// *io.LimitedReader around *os.File is what lets net.TCPConn and the
// net/http response writer reach sendfile(2).
func (e *Engine) zeroCopy(f *os.File, rf io.ReaderFrom, size int64) (int64, error) {
	var pos int64
	for pos < size {
		chunk := size - pos
		if chunk > e.chunkSize {
			chunk = e.chunkSize
		}
		n, err := rf.ReadFrom(&io.LimitedReader{R: f, N: chunk})
		pos += n
		if err != nil {
			return pos, err
		}
		if n == 0 {
			// No forward progress with bytes remaining; do not retry.
			return pos, fmt.Errorf("%w at %d/%d bytes", ErrStalled, pos, size)
		}
	}
	return pos, nil
}

func (e *Engine) buffered(f *os.File, sink io.Writer) (Outcome, error) {
	buf := make([]byte, fallbackBlockSize)
	var moved int64
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return Outcome{Mode: Buffered, BytesMoved: moved}, werr
			}
			moved += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Outcome{Mode: Buffered, BytesMoved: moved}, err
		}
	}
	e.counters.transfers.Add(1)
	e.counters.bytes.Add(moved)
	return Outcome{Mode: Buffered, BytesMoved: moved}, nil
}
