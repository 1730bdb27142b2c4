package search

import (
	"context"

	"github.com/hyperjump/shirabe/internal/boolexpr"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/tokenizer"
)

// storeIndex adapts the store's read operations to the two primitives the
// boolean evaluator needs. NOT never materializes an "all documents" constant
// in the query itself; it is always the store's set difference against the
// full indexed population.
type storeIndex struct {
	store storage.Store
}

func (s storeIndex) TermDocuments(ctx context.Context, term string) (models.DocSet, error) {
	return s.store.DocumentsForTerm(ctx, term)
}

func (s storeIndex) Complement(ctx context.Context, docs models.DocSet) (models.DocSet, error) {
	return s.store.DocumentsNotIn(ctx, docs)
}

// BooleanQuery evaluates a boolean query against the flushed index and
// returns the matching document set. Query words are normalized with the same
// tokenizer applied to documents; terms absent from the corpus match nothing
// but never fail the query.
func (e *Engine) BooleanQuery(ctx context.Context, query string) (models.DocSet, error) {
	evaluator := boolexpr.NewEvaluator(storeIndex{store: e.store}, tokenizer.Normalize)
	return evaluator.EvalQuery(ctx, query)
}
