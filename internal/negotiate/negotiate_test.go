package negotiate

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

func TestDecideTieBreak(t *testing.T) {
	n := NewWithBackend(true)
	cases := []struct {
		header string
		want   Encoding
	}{
		{"br;q=1.0, gzip;q=0.8", Brotli},
		{"gzip, br", Gzip},
		{"br, gzip", Brotli},
		{"gzip", Gzip},
		{"br", Brotli},
		{"GZIP, BR", Gzip},
		{"identity", Identity},
		{"", Identity},
		{"deflate", Identity},
	}
	for _, c := range cases {
		if got := n.Decide(c.header); got != c.want {
			t.Errorf("Decide(%q) = %s, want %s", c.header, got, c.want)
		}
	}
}

func TestDecideBackendUnavailable(t *testing.T) {
	n := NewWithBackend(false)
	cases := []struct {
		header string
		want   Encoding
	}{
		{"br", Identity},
		{"br, gzip", Gzip},
		{"gzip, br", Gzip},
		{"br;q=1.0, gzip;q=0.8", Gzip},
	}
	for _, c := range cases {
		if got := n.Decide(c.header); got == Brotli {
			t.Errorf("Decide(%q) chose brotli without backend", c.header)
		} else if got != c.want {
			t.Errorf("Decide(%q) = %s, want %s", c.header, got, c.want)
		}
	}
}

func TestCompressGzipRoundTrip(t *testing.T) {
	n := New()
	data := []byte(strings.Repeat("compress me please ", 100))
	out, err := n.Compress(Gzip, data)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	back, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, data) {
		t.Fatal("gzip roundtrip mismatch")
	}
}

func TestCompressBrotliRoundTrip(t *testing.T) {
	n := New()
	if !n.BackendAvailable() {
		t.Skip("brotli backend unavailable")
	}
	data := []byte(strings.Repeat("compress me please ", 100))
	out, err := n.Compress(Brotli, data)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) >= len(data) {
		t.Fatalf("brotli did not shrink repetitive input: %d >= %d", len(out), len(data))
	}
	back, err := io.ReadAll(brotli.NewReader(bytes.NewReader(out)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, data) {
		t.Fatal("brotli roundtrip mismatch")
	}
}

func TestCompressBrotliWithoutBackend(t *testing.T) {
	n := NewWithBackend(false)
	_, err := n.Compress(Brotli, []byte("data"))
	if !errors.Is(err, ErrCompressionFailed) {
		t.Fatalf("err = %v, want ErrCompressionFailed", err)
	}
}

func TestCompressIdentity(t *testing.T) {
	n := NewWithBackend(false)
	data := []byte("as is")
	out, err := n.Compress(Identity, data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("identity changed the bytes")
	}
}
