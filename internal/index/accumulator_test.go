package index

import (
	"math"
	"testing"
)

const epsilon = 1e-12

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestAddDocument_NormSingleOccurrences(t *testing.T) {
	// All counts == 1: L_d = sqrt(distinct token count).
	acc := NewAccumulator()
	norm := acc.AddDocument("doc1", map[string]int{"a": 1, "b": 1, "c": 1, "d": 1})
	if !almostEqual(norm, 2) {
		t.Errorf("expected sqrt(4)=2, got %v", norm)
	}
}

func TestAddDocument_NormRepeatedTerm(t *testing.T) {
	// Single token occurring c>1 times: L_d = 1+ln(c).
	acc := NewAccumulator()
	norm := acc.AddDocument("doc1", map[string]int{"cat": 5})
	if want := 1 + math.Log(5); !almostEqual(norm, want) {
		t.Errorf("expected %v, got %v", want, norm)
	}
}

func TestAddDocument_NormMixed(t *testing.T) {
	// "cat dog cat": (1+ln 2)^2 + 1.
	acc := NewAccumulator()
	norm := acc.AddDocument("docA", map[string]int{"cat": 2, "dog": 1})
	w := 1 + math.Log(2)
	if want := math.Sqrt(w*w + 1); !almostEqual(norm, want) {
		t.Errorf("expected %v, got %v", want, norm)
	}
}

func TestReadDocument_Idempotent(t *testing.T) {
	acc := NewAccumulator()
	counts := map[string]int{"cat": 2, "dog": 1}

	if !acc.ReadDocument("docA", counts) {
		t.Fatal("first read should add the document")
	}
	if acc.ReadDocument("docA", counts) {
		t.Error("second read of the same document should be a no-op")
	}
	if got := acc.PendingDocuments(); got != 1 {
		t.Errorf("expected 1 pending document, got %d", got)
	}

	postings, norms := acc.Drain()
	if len(norms) != 1 {
		t.Errorf("expected 1 norm entry, got %d", len(norms))
	}
	if postings["cat"]["docA"] != 2 || postings["dog"]["docA"] != 1 {
		t.Errorf("postings wrong: %v", postings)
	}
}

func TestReadDocument_EmptySkipped(t *testing.T) {
	acc := NewAccumulator()
	if acc.ReadDocument("empty", map[string]int{}) {
		t.Error("document with no tokens must not be added")
	}
	if acc.PendingDocuments() != 0 {
		t.Error("norm table should stay empty")
	}
}

func TestDrainRestore(t *testing.T) {
	acc := NewAccumulator()
	acc.ReadDocument("docA", map[string]int{"cat": 1})

	postings, norms := acc.Drain()
	if acc.PendingDocuments() != 0 || acc.PendingTerms() != 0 {
		t.Fatal("drain should empty the accumulator")
	}

	acc.ReadDocument("docB", map[string]int{"cat": 3})
	acc.Restore(postings, norms)

	if acc.PendingDocuments() != 2 {
		t.Errorf("expected 2 documents after restore, got %d", acc.PendingDocuments())
	}
	p, _ := acc.Drain()
	if p["cat"]["docA"] != 1 || p["cat"]["docB"] != 3 {
		t.Errorf("restore lost postings: %v", p)
	}
}
