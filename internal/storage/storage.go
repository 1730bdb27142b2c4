// Package storage defines the persistence interface for flushed postings and
// document norms, with SQLite and in-memory implementations.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/shirabe/internal/models"
)

// ErrUnknownTerm is returned by the strict postings lookup for a term that was
// never flushed. Callers that expect missing terms in normal operation use
// DocumentsForTerm instead, which returns an empty set.
var ErrUnknownTerm = errors.New("term does not exist in the inverted index")

// ErrUnknownDocument is returned by NormOf for a document that was never
// flushed. A posting referencing such a document indicates a store-consistency
// violation.
var ErrUnknownDocument = errors.New("document does not exist in the collection")

// Store persists postings and norms across sessions. Individual operations
// are atomic from the engine's perspective; implementations must provide
// read-after-write visibility so that a query immediately after Flush sees
// the flushed data.
type Store interface {
	// Flush merges the postings into any existing entries per term and inserts
	// the norm records. A flush with both tables empty is a no-op.
	Flush(ctx context.Context, postings models.PostingTable, norms models.NormTable) error

	// CountDocuments returns the total number of documents ever flushed.
	CountDocuments(ctx context.Context) (int64, error)

	// CountTerms returns the total number of distinct terms ever flushed.
	CountTerms(ctx context.Context) (int64, error)

	// PostingsForTerm returns the postings of term, or ErrUnknownTerm if the
	// term was never flushed.
	PostingsForTerm(ctx context.Context, term string) ([]models.Posting, error)

	// DocumentsForTerm returns just the document identities for term. Unknown
	// terms yield an empty set, never an error.
	DocumentsForTerm(ctx context.Context, term string) (models.DocSet, error)

	// DocumentsNotIn returns all flushed documents that are not in excluded.
	DocumentsNotIn(ctx context.Context, excluded models.DocSet) (models.DocSet, error)

	// NormOf returns the vector norm L_d of the document, or
	// ErrUnknownDocument if it was never flushed.
	NormOf(ctx context.Context, document string) (float64, error)

	Close() error
}
