package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/search"
	"github.com/hyperjump/shirabe/internal/storage"
)

const corpusSize = 24

// writeCorpusFiles writes the corpus to docDir cycling through the supported
// extensions and returns the absolute path of each document by name.
func writeCorpusFiles(t *testing.T, docDir string, corpus *Corpus) map[string]string {
	t.Helper()
	pathByName := make(map[string]string, len(corpus.Documents))
	for i, d := range corpus.Documents {
		ext := FileExtensions[i%len(FileExtensions)]
		content, err := FileBytes(ext, d.Content)
		if err != nil {
			t.Fatalf("build %s file for %s: %v", ext, d.Name, err)
		}
		path := filepath.Join(docDir, d.Name+ext)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			t.Fatal(err)
		}
		pathByName[d.Name] = abs
	}
	return pathByName
}

func TestEndToEnd_FileCorpus(t *testing.T) {
	dir := t.TempDir()
	docDir := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docDir, 0755); err != nil {
		t.Fatal(err)
	}

	corpus := BuildCorpus(corpusSize)
	pathByName := writeCorpusFiles(t, docDir, corpus)

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "index.db"), storage.Tables{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	engine := search.NewEngine(store)
	ing := ingest.NewIngester(engine, extract.NewExtractor())
	ctx := context.Background()

	result, err := ing.IngestDirectory(ctx, docDir, FileExtensions, true)
	if err != nil {
		t.Fatalf("ingest directory: %v", err)
	}
	if result.Added != corpusSize || result.Failed != 0 {
		t.Fatalf("expected %d added, got %+v", corpusSize, result)
	}
	if err := engine.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	t.Run("marker terms resolve to their document", func(t *testing.T) {
		for _, i := range []int{0, 3, 7, 23} {
			results, err := engine.VectorQuery(ctx, Marker(i), 0, -1)
			if err != nil {
				t.Fatalf("vector query %s: %v", Marker(i), err)
			}
			want := pathByName[corpus.Documents[i].Name]
			if len(results) != 1 || results[0].Document != want {
				t.Errorf("query %s: expected exactly %s, got %+v", Marker(i), want, results)
			}
		}
	})

	t.Run("topic query surfaces a topic document", func(t *testing.T) {
		results, err := engine.VectorQuery(ctx, "python programming language", 0, -1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 {
			t.Fatal("no results for topic query")
		}
		want := pathByName[corpus.Documents[0].Name]
		found := false
		for _, r := range results {
			if r.Document == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s among %d results", want, len(results))
		}
	})

	t.Run("boolean union of two markers", func(t *testing.T) {
		docs, err := engine.BooleanQuery(ctx, Marker(0)+" OR "+Marker(1))
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 2 || !docs.Contains(pathByName[corpus.Documents[0].Name]) ||
			!docs.Contains(pathByName[corpus.Documents[1].Name]) {
			t.Errorf("expected exactly documents 0 and 1, got %v", docs.Sorted())
		}
	})

	t.Run("boolean intersection with topic", func(t *testing.T) {
		// Document 0 carries topic python and marker0000.
		docs, err := engine.BooleanQuery(ctx, "python AND "+Marker(0))
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 1 || !docs.Contains(pathByName[corpus.Documents[0].Name]) {
			t.Errorf("expected exactly document 0, got %v", docs.Sorted())
		}
	})

	t.Run("boolean complement excludes the marked document", func(t *testing.T) {
		docs, err := engine.BooleanQuery(ctx, "NOT "+Marker(0))
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != corpusSize-1 {
			t.Errorf("expected %d documents, got %d", corpusSize-1, len(docs))
		}
		if docs.Contains(pathByName[corpus.Documents[0].Name]) {
			t.Error("complement contains the excluded document")
		}
	})

	t.Run("re-ingesting the corpus is a no-op", func(t *testing.T) {
		result, err := ing.IngestDirectory(ctx, docDir, FileExtensions, true)
		if err != nil {
			t.Fatal(err)
		}
		if result.Added != 0 || result.Skipped != corpusSize {
			t.Errorf("expected all skipped, got %+v", result)
		}
	})
}
