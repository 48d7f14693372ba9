package memory

import (
	"context"
	"strconv"
	"strings"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/search"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// Relevance weight table. Explicit so the ranking is reproducible and
// testable without any external engine: an exact name match dominates a
// partial name match, which dominates free-text occurrences.
const (
	weightExactName     = 10.0
	weightPrefixName    = 6.0
	weightSubstringName = 4.0
	weightFreeTextToken = 1.0
)

const defaultLimit = 10

// Backend is the in-memory scored-filter strategy: a filtered candidate
// set comes from the university repo, relevance is computed in-process.
type Backend struct {
	log          *logger.Logger
	universities repos.UniversityRepo
}

func NewBackend(log *logger.Logger, universities repos.UniversityRepo) *Backend {
	backendLog := log.With("service", "MemorySearchBackend")
	backendLog.Info("In-memory search backend selected", "provider", "memory")
	return &Backend{log: backendLog, universities: universities}
}

func (b *Backend) Search(ctx context.Context, query string, filters map[string]string, limit int) ([]search.ScoredDocument, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	repoFilters := repos.UniversityFilters{
		State:        filters[search.FilterState],
		LocationType: filters[search.FilterLocationType],
	}
	if raw := strings.TrimSpace(filters[search.FilterMaxRank]); raw != "" {
		if maxRank, err := strconv.Atoi(raw); err == nil {
			repoFilters.MaxRank = maxRank
		}
	}

	// Candidate fetch is unbounded by the caller's limit: scoring decides
	// the top results, not insertion order.
	candidates, err := b.universities.List(ctx, nil, repoFilters, 0)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	tokens := strings.Fields(q)

	docs := make([]search.ScoredDocument, 0, len(candidates))
	for _, u := range candidates {
		score := scoreUniversity(u, q, tokens)
		if q != "" && score == 0 {
			continue
		}
		docs = append(docs, search.ScoredDocument{
			ID:      u.Slug,
			Score:   score,
			Payload: payloadOf(u),
		})
	}

	search.SortDocuments(docs)
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func scoreUniversity(u *types.University, query string, tokens []string) float64 {
	if query == "" {
		return 1.0
	}

	name := strings.ToLower(strings.TrimSpace(u.Name))
	var score float64
	switch {
	case name == query:
		score += weightExactName
	case strings.HasPrefix(name, query):
		score += weightPrefixName
	case strings.Contains(name, query):
		score += weightSubstringName
	}

	freeText := strings.ToLower(u.Description + " " + majorNames(u))
	for _, token := range tokens {
		if strings.Contains(freeText, token) {
			score += weightFreeTextToken
		}
	}
	return score
}

func majorNames(u *types.University) string {
	var b strings.Builder
	structure := u.AcademicStructure.Data()
	for _, college := range structure.Colleges {
		for _, major := range college.Majors {
			b.WriteString(major.Name)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// payloadOf maps the record onto the neutral payload shape shared by all
// strategies; gorm column names stay behind this boundary.
func payloadOf(u *types.University) map[string]any {
	payload := map[string]any{
		"slug": u.Slug,
		"name": u.Name,
	}
	if u.State != "" {
		payload["state"] = u.State
	}
	if u.LocationType != "" {
		payload["location_type"] = u.LocationType
	}
	if u.USNewsRank != nil {
		payload["us_news_rank"] = *u.USNewsRank
	}
	if u.AcceptanceRate != nil {
		payload["acceptance_rate"] = *u.AcceptanceRate
	}
	return payload
}
