package models

import "fmt"

// Query modes.
const (
	ModeBoolean = "boolean"
	ModeVector  = "vector"
)

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	// Mode is "boolean" or "vector". Defaults to "vector".
	Mode string `json:"mode,omitempty"`
	// Above is the minimum similarity for vector results. <= 0 keeps everything.
	Above float64 `json:"above,omitempty"`
	// Top limits vector results to the K highest-scoring documents. Negative
	// means unlimited.
	Top int `json:"top"`
}

// Validate ensures the query has valid fields and sets defaults in place.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	switch q.Mode {
	case "":
		q.Mode = ModeVector
	case ModeBoolean, ModeVector:
	default:
		return fmt.Errorf("unknown mode %q: use %q or %q", q.Mode, ModeBoolean, ModeVector)
	}
	return nil
}
