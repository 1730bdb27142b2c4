// Package models defines core data structures for documents, postings, queries, and results.
package models

import "sort"

// Document location strings are the sole document identity: two documents are the
// same entity iff their locations (file path or URL) are equal.

// Posting records that a term occurs in a document a given number of times.
// Count is always >= 1.
type Posting struct {
	Document string `json:"doc"`
	Count    int    `json:"count"`
}

// PostingTable maps a term to its postings, keyed by document location.
// Term entries are created lazily on first occurrence; a term with no
// documents never exists as a key.
type PostingTable map[string]map[string]int

// NormTable maps a document location to its vector norm L_d.
type NormTable map[string]float64

// DocSet is a set of document locations.
type DocSet map[string]struct{}

// NewDocSet returns a DocSet containing the given documents.
func NewDocSet(docs ...string) DocSet {
	s := make(DocSet, len(docs))
	for _, d := range docs {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts doc into the set.
func (s DocSet) Add(doc string) { s[doc] = struct{}{} }

// Contains reports whether doc is in the set.
func (s DocSet) Contains(doc string) bool {
	_, ok := s[doc]
	return ok
}

// Union returns a new set with the members of s and other.
func (s DocSet) Union(other DocSet) DocSet {
	out := make(DocSet, len(s)+len(other))
	for d := range s {
		out[d] = struct{}{}
	}
	for d := range other {
		out[d] = struct{}{}
	}
	return out
}

// Intersect returns a new set with the members common to s and other.
func (s DocSet) Intersect(other DocSet) DocSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(DocSet)
	for d := range small {
		if large.Contains(d) {
			out[d] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members as a sorted slice. Useful for stable output.
func (s DocSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
