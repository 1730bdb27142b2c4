// Package search provides the retrieval engine: in-memory accumulation of
// postings and norms, flushing to persistent storage, and boolean and
// vector-model query evaluation.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/storage"
)

// Engine accumulates tokenized documents and answers queries against the
// store. Ingestion and querying are separate phases: postings accumulated in
// memory are not visible to queries until Flush.
type Engine struct {
	acc    *index.Accumulator
	store  storage.Store
	logger *zap.Logger // optional; when set, logs debug events
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output (documents read, flush sizes, etc.).
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over store with an empty accumulator.
func NewEngine(store storage.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		acc:   index.NewAccumulator(),
		store: store,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReadDocument feeds one tokenized document into the accumulator. Reading a
// document whose location is already known is a no-op, as is a document with
// no tokens; the return value reports whether the document was added.
func (e *Engine) ReadDocument(location string, counts map[string]int) bool {
	added := e.acc.ReadDocument(location, counts)
	if e.logger != nil {
		e.logger.Debug("document read",
			zap.String("location", location),
			zap.Int("terms", len(counts)),
			zap.Bool("added", added),
		)
	}
	return added
}

// Flush writes the accumulated postings and norms to the store and clears the
// in-memory tables. On storage failure the tables are restored so nothing is
// silently dropped. Flushing an empty accumulator is a no-op.
func (e *Engine) Flush(ctx context.Context) error {
	postings, norms := e.acc.Drain()
	if len(postings) == 0 && len(norms) == 0 {
		return nil
	}
	if err := e.store.Flush(ctx, postings, norms); err != nil {
		e.acc.Restore(postings, norms)
		return fmt.Errorf("failed to flush index: %w", err)
	}
	if e.logger != nil {
		e.logger.Debug("index flushed",
			zap.Int("terms", len(postings)),
			zap.Int("documents", len(norms)),
		)
	}
	return nil
}

// Status reports flushed and pending index sizes.
type Status struct {
	FlushedDocuments int64 `json:"flushed_documents"`
	FlushedTerms     int64 `json:"flushed_terms"`
	PendingDocuments int   `json:"pending_documents"`
	PendingTerms     int   `json:"pending_terms"`
}

// Status returns flushed counts from the store and pending counts from the
// accumulator.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	docs, err := e.store.CountDocuments(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to count documents: %w", err)
	}
	terms, err := e.store.CountTerms(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to count terms: %w", err)
	}
	return Status{
		FlushedDocuments: docs,
		FlushedTerms:     terms,
		PendingDocuments: e.acc.PendingDocuments(),
		PendingTerms:     e.acc.PendingTerms(),
	}, nil
}
