package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/shirabe/internal/models"
)

// MemoryStore implements Store entirely in memory. It is used in tests and as
// a backend for sessions that do not need persistence across processes.
type MemoryStore struct {
	mu       sync.RWMutex
	postings models.PostingTable
	norms    models.NormTable
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		postings: make(models.PostingTable),
		norms:    make(models.NormTable),
	}
}

// Flush merges postings and inserts norms.
func (s *MemoryStore) Flush(_ context.Context, postings models.PostingTable, norms models.NormTable) error {
	if len(postings) == 0 && len(norms) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for term, docs := range postings {
		existing, ok := s.postings[term]
		if !ok {
			existing = make(map[string]int, len(docs))
			s.postings[term] = existing
		}
		for doc, count := range docs {
			existing[doc] = count
		}
	}
	for doc, norm := range norms {
		if _, ok := s.norms[doc]; !ok {
			s.norms[doc] = norm
		}
	}
	return nil
}

// CountDocuments returns the total number of documents ever flushed.
func (s *MemoryStore) CountDocuments(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.norms)), nil
}

// CountTerms returns the total number of distinct terms ever flushed.
func (s *MemoryStore) CountTerms(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.postings)), nil
}

// PostingsForTerm returns the postings of term, or ErrUnknownTerm.
func (s *MemoryStore) PostingsForTerm(_ context.Context, term string) ([]models.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.postings[term]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}
	postings := make([]models.Posting, 0, len(docs))
	for doc, count := range docs {
		postings = append(postings, models.Posting{Document: doc, Count: count})
	}
	return postings, nil
}

// DocumentsForTerm returns just the document identities for term; empty set
// for unknown terms.
func (s *MemoryStore) DocumentsForTerm(_ context.Context, term string) (models.DocSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make(models.DocSet)
	for doc := range s.postings[term] {
		docs.Add(doc)
	}
	return docs, nil
}

// DocumentsNotIn returns all flushed documents not in excluded.
func (s *MemoryStore) DocumentsNotIn(_ context.Context, excluded models.DocSet) (models.DocSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make(models.DocSet)
	for doc := range s.norms {
		if !excluded.Contains(doc) {
			docs.Add(doc)
		}
	}
	return docs, nil
}

// NormOf returns the vector norm of the document, or ErrUnknownDocument.
func (s *MemoryStore) NormOf(_ context.Context, document string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	norm, ok := s.norms[document]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDocument, document)
	}
	return norm, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
