// Package index holds the in-memory posting and norm tables populated during
// an ingestion session, before they are flushed to persistent storage.
package index

import (
	"math"
	"sync"

	"github.com/hyperjump/shirabe/internal/models"
)

// Accumulator consumes tokenized documents and builds the inverted index and
// the document-norm table. It is the single writer during an ingestion phase;
// a mutex guards the tables so ingestion callers may run from any goroutine.
type Accumulator struct {
	mu       sync.Mutex
	postings models.PostingTable
	norms    models.NormTable
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		postings: make(models.PostingTable),
		norms:    make(models.NormTable),
	}
}

// AddDocument records one posting per (term, count) pair for the document at
// location and returns the document's vector norm L_d. A previous posting for
// the same (term, document) pair is overwritten, so re-adding the same
// document leaves the posting table unchanged.
//
// The norm accumulates 1 for a term occurring once and (1+ln(count))^2
// otherwise; L_d is the square root of the sum.
func (a *Accumulator) AddDocument(location string, counts map[string]int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sum float64
	for term, count := range counts {
		if count < 1 {
			continue
		}
		docs, ok := a.postings[term]
		if !ok {
			docs = make(map[string]int)
			a.postings[term] = docs
		}
		docs[location] = count

		if count == 1 {
			sum++ // same as (1+ln(1))^2, without the math
		} else {
			w := 1 + math.Log(float64(count))
			sum += w * w
		}
	}
	return math.Sqrt(sum)
}

// ReadDocument adds the document at location unless it is already known.
// Returns true when the document was added, false when it was a no-op. This is
// the sole idempotence guarantee for repeated ingestion of the same document
// identity; a document with no tokens is never added.
func (a *Accumulator) ReadDocument(location string, counts map[string]int) bool {
	if len(counts) == 0 {
		return false
	}
	a.mu.Lock()
	_, known := a.norms[location]
	a.mu.Unlock()
	if known {
		return false
	}
	norm := a.AddDocument(location, counts)
	a.mu.Lock()
	a.norms[location] = norm
	a.mu.Unlock()
	return true
}

// Drain returns the accumulated tables and resets the accumulator to empty.
// Used by flush: on storage failure the caller must restore the tables with
// Restore so no data is silently dropped.
func (a *Accumulator) Drain() (models.PostingTable, models.NormTable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	postings, norms := a.postings, a.norms
	a.postings = make(models.PostingTable)
	a.norms = make(models.NormTable)
	return postings, norms
}

// Restore puts drained tables back, merging over anything accumulated since.
func (a *Accumulator) Restore(postings models.PostingTable, norms models.NormTable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for term, docs := range postings {
		existing, ok := a.postings[term]
		if !ok {
			a.postings[term] = docs
			continue
		}
		for doc, count := range docs {
			existing[doc] = count
		}
	}
	for doc, norm := range norms {
		a.norms[doc] = norm
	}
}

// PendingDocuments returns the number of documents accumulated since the last
// flush.
func (a *Accumulator) PendingDocuments() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.norms)
}

// PendingTerms returns the number of distinct terms accumulated since the last
// flush.
func (a *Accumulator) PendingTerms() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.postings)
}
