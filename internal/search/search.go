package search

import (
	"context"
	"sort"
)

// ScoredDocument is the backend-neutral result shape. Payload keys are the
// domain's own field names; no strategy leaks its engine's internal fields
// through this contract.
type ScoredDocument struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Backend is the common contract every search strategy satisfies. Results
// order descending by score with ties broken by ID, so repeated calls over
// unchanged data return identical sequences. Zero hits return an empty
// slice, never an error.
type Backend interface {
	Search(ctx context.Context, query string, filters map[string]string, limit int) ([]ScoredDocument, error)
}

// Well-known filter keys accepted by the strategies. Unknown keys are
// ignored rather than rejected: filters narrow, they do not validate.
const (
	FilterScope        = "scope"
	FilterUserID       = "user_id"
	FilterState        = "state"
	FilterLocationType = "location_type"
	FilterMaxRank      = "max_rank"
)

// Scope values for FilterScope.
const (
	ScopeKnowledgeBase = "kb"
	ScopeUser          = "user"
)

// SortDocuments orders results into the contract order: descending score,
// ties broken by ascending ID.
func SortDocuments(docs []ScoredDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score == docs[j].Score {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].Score > docs[j].Score
	})
}
