// Package negotiate picks and applies a response content encoding from
// an Accept-Encoding header and a once-probed brotli capability.
package negotiate

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Encoding: negotiated response encoding.
type Encoding int

const (
	Identity Encoding = iota
	Gzip
	Brotli
)

// Token returns the Content-Encoding header value for e.
func (e Encoding) Token() string {
	switch e {
	case Gzip:
		return "gzip"
	case Brotli:
		return "br"
	default:
		return "identity"
	}
}

func (e Encoding) String() string { return e.Token() }

// brotliQuality: fixed speed/ratio midpoint; not tunable per call.
const brotliQuality = 4

var ErrCompressionFailed = errors.New("compression failed")

var (
	probeOnce sync.Once
	probeOK   bool
)

// probeBrotli runs one tiny compression through the backend, once per
// process. The cached result never changes afterwards.
func probeBrotli() bool {
	probeOnce.Do(func() {
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotliQuality)
		_, werr := w.Write([]byte("probe"))
		cerr := w.Close()
		probeOK = werr == nil && cerr == nil && buf.Len() > 0
	})
	return probeOK
}

// Negotiator decides per-request encodings against the cached brotli
// capability probe.
type Negotiator struct {
	brotliAvailable bool
}

// New probes the brotli backend and returns a Negotiator bound to the
// cached result.
func New() *Negotiator {
	return &Negotiator{brotliAvailable: probeBrotli()}
}

// NewWithBackend pins backend availability explicitly (tests,
// forced-identity deployments).
func NewWithBackend(brotliAvailable bool) *Negotiator {
	return &Negotiator{brotliAvailable: brotliAvailable}
}

// BackendAvailable reports the cached capability probe.
func (n *Negotiator) BackendAvailable() bool { return n.brotliAvailable }

// Decide picks an encoding by case-insensitive substring search for
// "br" and "gzip" in the raw header value. No q-value parsing: when both
// tokens appear, the one mentioned first wins. Brotli is never chosen
// while the backend is unavailable.
func (n *Negotiator) Decide(acceptEncoding string) Encoding {
	lower := strings.ToLower(acceptEncoding)
	brPos := strings.Index(lower, "br")
	if !n.brotliAvailable {
		brPos = -1
	}
	gzipPos := strings.Index(lower, "gzip")
	switch {
	case brPos >= 0 && (gzipPos < 0 || brPos < gzipPos):
		return Brotli
	case gzipPos >= 0:
		return Gzip
	default:
		return Identity
	}
}

// Compress applies enc to data at the fixed quality level. Identity
// returns data unchanged. Failures are recoverable: callers fall back to
// identity for that response and log, never surface them to the client.
func (n *Negotiator) Compress(enc Encoding, data []byte) ([]byte, error) {
	switch enc {
	case Identity:
		return data, nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrCompressionFailed, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrCompressionFailed, err)
		}
		return buf.Bytes(), nil
	case Brotli:
		if !n.brotliAvailable {
			return nil, fmt.Errorf("%w: brotli backend unavailable", ErrCompressionFailed)
		}
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotliQuality)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("%w: brotli: %v", ErrCompressionFailed, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("%w: brotli: %v", ErrCompressionFailed, err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrCompressionFailed, enc)
	}
}
