package search

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/tokenizer"
)

func TestVectorQuery_Ranking(t *testing.T) {
	e := newTestEngine(t)
	results, err := e.VectorQuery(context.Background(), "dog", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both documents, got %v", results)
	}
	// Both docs contain "dog" once; docB's norm is smaller (1 vs
	// sqrt((1+ln2)^2+1)), so docB ranks first.
	if results[0].Document != "docB" || results[1].Document != "docA" {
		t.Errorf("expected docB before docA, got %v", results)
	}

	// idf = ln(1 + 2 docs / 2 terms) = ln 2; docB score = 1*ln2 / 1.
	if want := math.Log(2); math.Abs(results[0].Score-want) > 1e-12 {
		t.Errorf("docB score = %v, want %v", results[0].Score, want)
	}
	w := 1 + math.Log(2)
	if want := math.Log(2) / math.Sqrt(w*w+1); math.Abs(results[1].Score-want) > 1e-12 {
		t.Errorf("docA score = %v, want %v", results[1].Score, want)
	}
}

func TestVectorQuery_RepeatedQueryTermWeighsMore(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	single, err := e.VectorQuery(ctx, "dog", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	double, err := e.VectorQuery(ctx, "dog dog", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(double[0].Score-2*single[0].Score) > 1e-12 {
		t.Errorf("repeated token should double the score: %v vs %v", double[0].Score, single[0].Score)
	}
}

func TestVectorQuery_UnknownTermSilent(t *testing.T) {
	e := newTestEngine(t)
	results, err := e.VectorQuery(context.Background(), "dog unicorn", 0, -1)
	if err != nil {
		t.Fatalf("unknown query term must not fail: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %v", results)
	}

	results, err = e.VectorQuery(context.Background(), "unicorn", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestVectorQuery_AboveThreshold(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// docB scores ln2 ~ 0.693, docA ~ 0.354: a threshold between the two
	// keeps only docB.
	results, err := e.VectorQuery(ctx, "dog", 0.5, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Document != "docB" {
		t.Errorf("expected only docB above 0.5, got %v", results)
	}

	// above <= 0 keeps everything.
	results, err = e.VectorQuery(ctx, "dog", -1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected all results with above<=0, got %v", results)
	}
}

func TestVectorQuery_TopK(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	all, err := e.VectorQuery(ctx, "dog", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	top1, err := e.VectorQuery(ctx, "dog", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top1) != 1 {
		t.Fatalf("top=1 must return at most 1 result, got %d", len(top1))
	}
	if top1[0] != all[0] {
		t.Errorf("top=1 should return the best of the unfiltered list: %v vs %v", top1[0], all[0])
	}

	zero, err := e.VectorQuery(ctx, "dog", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(zero) != 0 {
		t.Errorf("top=0 must return no results, got %v", zero)
	}
}

func TestVectorQuery_EmptyCorpus(t *testing.T) {
	e := NewEngine(storage.NewMemoryStore())
	results, err := e.VectorQuery(context.Background(), "anything", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results on empty corpus, got %v", results)
	}
}

func TestVectorQuery_MissingNormIsFatal(t *testing.T) {
	// A posting without a matching norm record is a store-consistency
	// violation and must fail the query.
	store := storage.NewMemoryStore()
	err := store.Flush(context.Background(),
		models.PostingTable{"cat": {"ghost": 1}},
		models.NormTable{"other": 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(store)
	if _, err := e.VectorQuery(context.Background(), "cat", 0, -1); err == nil {
		t.Error("expected store-consistency error")
	}
}

func TestVectorQuery_TokenizesQuery(t *testing.T) {
	e := NewEngine(storage.NewMemoryStore())
	e.ReadDocument("doc", tokenizer.Counts("Πληροφορικής τμήμα"))
	if err := e.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	results, err := e.VectorQuery(context.Background(), "Πληροφορικής", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("query must share the document tokenization, got %v", results)
	}
}
