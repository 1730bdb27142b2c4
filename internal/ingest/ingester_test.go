package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/search"
	"github.com/hyperjump/shirabe/internal/storage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestIngester() (*Ingester, *search.Engine) {
	engine := search.NewEngine(storage.NewMemoryStore())
	return NewIngester(engine, extract.NewExtractor()), engine
}

func TestIngestFile(t *testing.T) {
	ing, engine := newTestIngester()
	path := writeFile(t, t.TempDir(), "a.txt", "cat dog cat")

	added, err := ing.IngestFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("first ingestion should add the document")
	}

	// Same path again: idempotent no-op.
	added, err = ing.IngestFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("re-ingesting the same path should be a no-op")
	}

	if err := engine.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	status, err := engine.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.FlushedDocuments != 1 || status.FlushedTerms != 2 {
		t.Errorf("expected 1 doc / 2 terms, got %+v", status)
	}
}

func TestIngestFile_Missing(t *testing.T) {
	ing, _ := newTestIngester()
	if _, err := ing.IngestFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "cat dog")
	writeFile(t, dir, "b.md", "dog bird")
	writeFile(t, dir, "sub/c.txt", "bird")
	writeFile(t, dir, "skip.bin", "binary stuff")
	writeFile(t, dir, "empty.txt", "...")

	ing, engine := newTestIngester()
	result, err := ing.IngestDirectory(context.Background(), dir, []string{".txt", ".md"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Added != 3 {
		t.Errorf("expected 3 added, got %+v", result)
	}
	// empty.txt tokenizes to nothing and is skipped, not failed.
	if result.Skipped != 1 || result.Failed != 0 {
		t.Errorf("expected 1 skipped / 0 failed, got %+v", result)
	}
	if result.BatchID == "" {
		t.Error("batch id missing")
	}

	if err := engine.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	status, err := engine.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.FlushedDocuments != 3 {
		t.Errorf("expected 3 flushed documents, got %+v", status)
	}
}

func TestIngestDirectory_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "cat")
	writeFile(t, dir, "sub/b.txt", "dog")

	ing, _ := newTestIngester()
	result, err := ing.IngestDirectory(context.Background(), dir, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Added != 1 {
		t.Errorf("expected only the top-level file, got %+v", result)
	}
}

func TestIngestDirectory_NotADirectory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "cat")
	ing, _ := newTestIngester()
	if _, err := ing.IngestDirectory(context.Background(), path, nil, true); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestIngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("cat dog on the web"))
	}))
	defer srv.Close()

	ing, engine := newTestIngester()
	added, err := ing.IngestURL(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("expected document to be added")
	}

	if err := engine.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	docs, err := engine.BooleanQuery(context.Background(), "web")
	if err != nil {
		t.Fatal(err)
	}
	if !docs.Contains(srv.URL + "/page") {
		t.Errorf("document identity should be the URL, got %v", docs.Sorted())
	}
}

func TestIngestURL_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ing, _ := newTestIngester()
	if _, err := ing.IngestURL(context.Background(), srv.URL); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestIngestURL_BadScheme(t *testing.T) {
	ing, _ := newTestIngester()
	if _, err := ing.IngestURL(context.Background(), "ftp://example.com/x"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
