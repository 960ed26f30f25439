// Package edge is the response pipeline over the data plane: static file
// serving with negotiated compression and zero-copy transfer, plus the
// subscriber endpoints feeding the broadcast hub.
package edge

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dev.c0redev.0http/internal/negotiate"
	"dev.c0redev.0http/internal/store"
	"dev.c0redev.0http/internal/transfer"
)

// minCompressSize: no benefit compressing very small bodies.
const minCompressSize = 256

var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/javascript",
	"text/plain",
	"text/xml",
	"application/json",
	"application/javascript",
	"application/xml",
	"application/xhtml+xml",
	"application/rss+xml",
	"application/atom+xml",
}

var precompressedExts = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".ico",
	".mp4", ".webm", ".avi", ".mov", ".flv",
	".mp3", ".wav", ".ogg", ".flac",
	".zip", ".gz", ".br", ".bz2", ".7z", ".rar", ".tar",
	".pdf", ".woff", ".woff2",
}

// Static serves files under Root. Compressible bodies go through the
// negotiator; identity bodies go through the transfer engine, which
// reaches sendfile when the response writer supports it. DB is an
// optional asset index caching ETags across requests.
type Static struct {
	Root   string
	Neg    *negotiate.Negotiator
	Engine *transfer.Engine
	DB     *store.DB
}

func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := r.URL.Path
	if path == "" || path == "/" {
		path = "/index.html"
	}
	fpath := filepath.Join(s.Root, filepath.Clean("/"+path))
	if !strings.HasPrefix(fpath, filepath.Clean(s.Root)) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	info, err := os.Stat(fpath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	ctype := inferContentType(fpath)

	if etag := s.assetETag(fpath, ctype, info); etag != "" {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	if compressible(ctype, fpath, info.Size()) {
		w.Header().Set("Vary", "Accept-Encoding")
		if enc := s.Neg.Decide(r.Header.Get("Accept-Encoding")); enc != negotiate.Identity {
			if s.serveCompressed(w, r, fpath, ctype, enc) {
				return
			}
		}
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := s.Engine.Transfer(fpath, w); err != nil {
		// Headers are gone already; nothing to send the client but the
		// failure is ours to log.
		log.Printf("edge: transfer %s: %v", fpath, err)
	}
}

// serveCompressed writes the negotiated encoding; false means the caller
// should fall back to the identity path (compression failures are never
// client-visible).
func (s *Static) serveCompressed(w http.ResponseWriter, r *http.Request, fpath, ctype string, enc negotiate.Encoding) bool {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return false
	}
	out, err := s.Neg.Compress(enc, data)
	if err != nil {
		log.Printf("edge: %s compression of %s failed, serving identity: %v", enc, fpath, err)
		return false
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Encoding", enc.Token())
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if r.Method == http.MethodHead {
		return true
	}
	if _, err := w.Write(out); err != nil {
		log.Printf("edge: write compressed %s: %v", fpath, err)
	}
	return true
}

// assetETag returns the cached ETag for fpath, recomputing and
// re-indexing when the file changed. Without a DB the hash is computed
// per request.
func (s *Static) assetETag(fpath, ctype string, info os.FileInfo) string {
	if s.DB != nil {
		a, err := s.DB.AssetByPath(fpath)
		if err == nil && a != nil && a.Size == info.Size() && a.ModifiedAt.Equal(info.ModTime()) {
			return a.ETag
		}
	}
	etag, err := store.ETag(fpath)
	if err != nil {
		return ""
	}
	if s.DB != nil {
		err := s.DB.UpsertAsset(&store.Asset{
			Path:        fpath,
			ContentType: ctype,
			Size:        info.Size(),
			ETag:        etag,
			ModifiedAt:  info.ModTime(),
		})
		if err != nil {
			log.Printf("edge: index %s: %v", fpath, err)
		}
	}
	return etag
}

func compressible(ctype, fpath string, size int64) bool {
	if size < minCompressSize {
		return false
	}
	ext := strings.ToLower(filepath.Ext(fpath))
	for _, pe := range precompressedExts {
		if ext == pe {
			return false
		}
	}
	for _, ct := range compressibleTypes {
		if strings.HasPrefix(ctype, ct) {
			return true
		}
	}
	return false
}

func inferContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".xml":
		return "application/xml"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".ico":
		return "image/x-icon"
	case ".woff2":
		return "font/woff2"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
