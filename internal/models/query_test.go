package models

import "testing"

func TestSearchQuery_Validate(t *testing.T) {
	t.Run("empty query rejected", func(t *testing.T) {
		q := &SearchQuery{}
		if err := q.Validate(); err == nil {
			t.Error("expected error for empty query")
		}
	})

	t.Run("mode defaults to vector", func(t *testing.T) {
		q := &SearchQuery{Query: "cat dog"}
		if err := q.Validate(); err != nil {
			t.Fatal(err)
		}
		if q.Mode != ModeVector {
			t.Errorf("expected mode %q, got %q", ModeVector, q.Mode)
		}
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		q := &SearchQuery{Query: "cat", Mode: "fuzzy"}
		if err := q.Validate(); err == nil {
			t.Error("expected error for unknown mode")
		}
	})
}

func TestDocSet_Ops(t *testing.T) {
	a := NewDocSet("x", "y")
	b := NewDocSet("y", "z")

	u := a.Union(b)
	if len(u) != 3 || !u.Contains("x") || !u.Contains("y") || !u.Contains("z") {
		t.Errorf("union wrong: %v", u)
	}

	i := a.Intersect(b)
	if len(i) != 1 || !i.Contains("y") {
		t.Errorf("intersect wrong: %v", i)
	}

	sorted := u.Sorted()
	if len(sorted) != 3 || sorted[0] != "x" || sorted[2] != "z" {
		t.Errorf("sorted wrong: %v", sorted)
	}
}
