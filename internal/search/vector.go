package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/tokenizer"
)

// VectorQuery scores the flushed corpus against query with the vector model
// and returns the matching documents ordered by score (descending, ties
// broken by document location ascending).
//
// Each query token contributes count*idf to every document containing it, so
// a term repeated in the query weighs proportionally more. Scores are then
// divided by the document's vector norm L_d. When above > 0 only documents
// with score >= above are kept; when top >= 0 only the top highest-scoring
// documents are returned.
//
// Note on idf: it is computed from the corpus-wide totals,
// ln(1 + documents/terms), and is therefore identical for every query term.
// This is not the per-term document-frequency idf of classic tf-idf; swapping
// it in would change ranking materially and is a deliberate product decision,
// not a refactor.
func (e *Engine) VectorQuery(ctx context.Context, query string, above float64, top int) ([]models.ScoredDocument, error) {
	tokens := tokenizer.Tokenize(query)

	docCount, err := e.store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	termCount, err := e.store.CountTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count terms: %w", err)
	}
	if termCount == 0 {
		// Empty corpus: nothing can match, and the idf ratio is undefined.
		return []models.ScoredDocument{}, nil
	}

	scores := make(map[string]float64)
	for _, term := range tokens {
		idf := math.Log(1 + float64(docCount)/float64(termCount))

		postings, err := e.store.PostingsForTerm(ctx, term)
		if errors.Is(err, storage.ErrUnknownTerm) {
			// A query term absent from the corpus contributes zero score.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load postings for %q: %w", term, err)
		}
		for _, p := range postings {
			scores[p.Document] += float64(p.Count) * idf
		}
	}

	results := make([]models.ScoredDocument, 0, len(scores))
	for doc, score := range scores {
		norm, err := e.store.NormOf(ctx, doc)
		if err != nil {
			// A posting referenced a document without a norm record: the
			// store is inconsistent, so fail the query rather than return
			// skewed scores.
			return nil, fmt.Errorf("store inconsistency for document %q: %w", doc, err)
		}
		if norm <= 0 {
			return nil, fmt.Errorf("store inconsistency for document %q: norm %v with existing postings", doc, norm)
		}
		results = append(results, models.ScoredDocument{Document: doc, Score: score / norm})
	}

	if above > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= above {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document < results[j].Document
	})
	if top >= 0 && len(results) > top {
		results = results[:top]
	}
	return results, nil
}
