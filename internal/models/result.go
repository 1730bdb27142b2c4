package models

// ScoredDocument is a single vector-model hit.
type ScoredDocument struct {
	Document string  `json:"document"`
	Score    float64 `json:"score"`
}

// SearchResponse is the response for a search request. Boolean queries fill
// Documents; vector queries fill Results. The two are never both set.
type SearchResponse struct {
	Query     string           `json:"query"`
	Mode      string           `json:"mode"`
	Documents []string         `json:"documents,omitempty"`
	Results   []ScoredDocument `json:"results,omitempty"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
}
