// Package ingest acquires documents from the filesystem and the web, runs
// text extraction and tokenization, and feeds them into the search engine's
// accumulator.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/search"
	"github.com/hyperjump/shirabe/internal/tokenizer"
)

const maxFetchBytes = 16 << 20 // cap on fetched web documents

// Ingester reads documents into an engine. Extraction runs concurrently
// during directory ingestion; accumulation itself is serialized by the
// engine, so the single-writer ingestion phase is preserved.
type Ingester struct {
	engine      *search.Engine
	extractor   *extract.Extractor
	concurrency int
	client      *http.Client
	logger      *zap.Logger // optional; when set, logs debug events
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithLogger sets a logger for debug output (files ingested, skips, failures).
func WithLogger(l *zap.Logger) IngesterOption {
	return func(ing *Ingester) { ing.logger = l }
}

// WithConcurrency bounds parallel extraction during directory ingestion.
func WithConcurrency(n int) IngesterOption {
	return func(ing *Ingester) {
		if n > 0 {
			ing.concurrency = n
		}
	}
}

// WithHTTPClient sets the client used to fetch web documents.
func WithHTTPClient(c *http.Client) IngesterOption {
	return func(ing *Ingester) { ing.client = c }
}

// NewIngester creates an ingester feeding engine.
func NewIngester(engine *search.Engine, extractor *extract.Extractor, opts ...IngesterOption) *Ingester {
	ing := &Ingester{
		engine:      engine,
		extractor:   extractor,
		concurrency: 4,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Result summarizes one ingestion batch.
type Result struct {
	BatchID string `json:"batch_id"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// IngestFile reads one file and feeds it into the engine. The document's
// identity is its absolute path; re-ingesting a known path is a no-op
// (reported as skipped). Files with no indexable tokens are also skipped.
func (ing *Ingester) IngestFile(path string) (added bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", absPath)
	}
	text, err := ing.extractor.Extract(absPath)
	if err != nil {
		return false, fmt.Errorf("extract content: %w", err)
	}
	added = ing.engine.ReadDocument(absPath, tokenizer.Counts(text))
	if ing.logger != nil {
		ing.logger.Debug("file ingested", zap.String("path", absPath), zap.Bool("added", added))
	}
	return added, nil
}

// IngestDirectory walks dir and ingests each regular file whose extension is
// in allowedExts (if non-empty; otherwise all files). When recursive is false
// only the top level is read. Extraction and tokenization run on up to
// Concurrency goroutines. Per-file failures are counted, logged, and do not
// abort the batch.
func (ing *Ingester) IngestDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) (Result, error) {
	result := Result{BatchID: uuid.New().String()}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return result, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return result, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("not a directory: %s", absDir)
	}

	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !recursive && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk directory: %w", err)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.concurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			added, err := ing.IngestFile(path)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed++
				if ing.logger != nil {
					ing.logger.Warn("file ingestion failed", zap.String("path", path), zap.Error(err))
				}
			case added:
				result.Added++
			default:
				result.Skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if ing.logger != nil {
		ing.logger.Debug("directory ingested",
			zap.String("dir", absDir),
			zap.String("batch_id", result.BatchID),
			zap.Int("added", result.Added),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

// IngestURL fetches a web document and feeds it into the engine. The
// document's identity is the URL string itself.
func (ing *Ingester) IngestURL(ctx context.Context, rawURL string) (added bool, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	resp, err := ing.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetch document: server returned %d", resp.StatusCode)
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return false, fmt.Errorf("read document body: %w", err)
	}

	text, err := ing.extractor.ExtractBytes(content, strings.ToLower(filepath.Ext(u.Path)))
	if err != nil {
		return false, fmt.Errorf("extract content: %w", err)
	}
	added = ing.engine.ReadDocument(rawURL, tokenizer.Counts(text))
	if ing.logger != nil {
		ing.logger.Debug("url ingested", zap.String("url", rawURL), zap.Bool("added", added))
	}
	return added, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
