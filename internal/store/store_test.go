package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatal(err)
	}
}

func TestAssetUpsertAndLookup(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mod := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := &Asset{Path: "/site/index.html", ContentType: "text/html; charset=utf-8", Size: 1234, ETag: `"abc"`, ModifiedAt: mod}
	if err := db.UpsertAsset(a); err != nil {
		t.Fatal(err)
	}

	got, err := db.AssetByPath("/site/index.html")
	if err != nil || got == nil {
		t.Fatal("AssetByPath", err)
	}
	if got.ContentType != a.ContentType || got.Size != 1234 || got.ETag != `"abc"` || !got.ModifiedAt.Equal(mod) {
		t.Fatalf("asset mismatch: %+v", got)
	}

	// Refresh the same path; no duplicate row, new values win.
	a.Size = 5678
	a.ETag = `"def"`
	if err := db.UpsertAsset(a); err != nil {
		t.Fatal(err)
	}
	got, err = db.AssetByPath("/site/index.html")
	if err != nil || got == nil {
		t.Fatal("AssetByPath after upsert", err)
	}
	if got.Size != 5678 || got.ETag != `"def"` {
		t.Fatalf("upsert did not refresh: %+v", got)
	}

	missing, err := db.AssetByPath("/nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing path, got %+v", missing)
	}
}

func TestMetricsJournal(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if m, err := db.LatestMetrics(); err != nil || m != nil {
		t.Fatalf("empty journal: %+v %v", m, err)
	}
	if err := db.RecordMetrics(1, 100, 0); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordMetrics(2, 350, 1); err != nil {
		t.Fatal(err)
	}
	m, err := db.LatestMetrics()
	if err != nil || m == nil {
		t.Fatal("LatestMetrics", err)
	}
	if m.Transfers != 2 || m.Bytes != 350 || m.Errors != 1 {
		t.Fatalf("latest mismatch: %+v", m)
	}
}

func TestETag(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a")
	p2 := filepath.Join(dir, "b")
	if err := os.WriteFile(p1, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p2, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	e1, err := ETag(p1)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := ETag(p2)
	if err != nil {
		t.Fatal(err)
	}
	if e1 != e2 {
		t.Fatalf("same content, different etags: %s %s", e1, e2)
	}
	if len(e1) < 4 || e1[0] != '"' || e1[len(e1)-1] != '"' {
		t.Fatalf("etag not quoted: %s", e1)
	}
	if err := os.WriteFile(p2, []byte("world"), 0600); err != nil {
		t.Fatal(err)
	}
	e3, err := ETag(p2)
	if err != nil {
		t.Fatal(err)
	}
	if e3 == e1 {
		t.Fatal("different content, same etag")
	}
	if _, err := ETag(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
