package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/search"
)

const (
	// knowledgeBaseNamespace holds the shared university corpus; every
	// user's uploaded documents live in their own namespace.
	knowledgeBaseNamespace = "kb"
	userNamespacePrefix    = "user:"

	defaultLimit         = 10
	chunkSize            = 2000
	maxChunksPerDocument = 64
)

// Backend retrieves by embedding similarity. It satisfies the common search
// contract and also indexes uploaded profile documents.
type Backend struct {
	log      *logger.Logger
	store    VectorStore
	embedder Embedder
}

func NewBackend(log *logger.Logger, store VectorStore, embedder Embedder) (*Backend, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	return &Backend{
		log:      log.With("service", "SemanticSearchBackend"),
		store:    store,
		embedder: embedder,
	}, nil
}

func (b *Backend) Search(ctx context.Context, query string, filters map[string]string, limit int) ([]search.ScoredDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []search.ScoredDocument{}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	namespace, err := resolveNamespace(filters)
	if err != nil {
		return nil, err
	}

	vectors, err := b.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrUpstreamUnavailable, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one input", apperr.ErrUpstreamUnavailable, len(vectors))
	}

	// Over-fetch so payload filtering still fills the page.
	fetchK := limit
	if hasPayloadFilters(filters) {
		fetchK = limit * 4
	}

	matches, err := b.store.QueryMatches(ctx, namespace, vectors[0], fetchK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrUpstreamUnavailable, err)
	}

	out := make([]search.ScoredDocument, 0, len(matches))
	for _, m := range matches {
		if !matchesPayloadFilters(m.Metadata, filters) {
			continue
		}
		out = append(out, search.ScoredDocument{
			ID:      m.ID,
			Score:   m.Score,
			Payload: m.Metadata,
		})
	}

	search.SortDocuments(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// IndexDocument chunks and embeds one uploaded document into the user's
// namespace. Chunk IDs derive from the filename, so re-uploading the same
// file overwrites its previous vectors.
func (b *Backend) IndexDocument(ctx context.Context, userID, filename, text string) error {
	userID = strings.TrimSpace(userID)
	filename = strings.TrimSpace(filename)
	if userID == "" || filename == "" {
		return fmt.Errorf("user id and filename required")
	}

	chunks := chunkText(text)
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) > maxChunksPerDocument {
		b.log.Warn("Document truncated for indexing",
			"filename", filename,
			"chunks", len(chunks),
			"max_chunks", maxChunksPerDocument,
		)
		chunks = chunks[:maxChunksPerDocument]
	}

	embedded, err := b.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUpstreamUnavailable, err)
	}
	if len(embedded) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", apperr.ErrUpstreamUnavailable, len(embedded), len(chunks))
	}

	vectors := make([]Vector, 0, len(chunks))
	for i, chunk := range chunks {
		vectors = append(vectors, Vector{
			ID:     chunkVectorID(filename, i),
			Values: embedded[i],
			Metadata: map[string]any{
				"filename": filename,
				"chunk":    i,
				"text":     chunk,
			},
		})
	}

	if err := b.store.Upsert(ctx, userNamespacePrefix+userID, vectors); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUpstreamUnavailable, err)
	}
	return nil
}

// RemoveDocument deletes every chunk a document could have produced.
// Deleting an ID that was never written is a no-op in the store.
func (b *Backend) RemoveDocument(ctx context.Context, userID, filename string) error {
	userID = strings.TrimSpace(userID)
	filename = strings.TrimSpace(filename)
	if userID == "" || filename == "" {
		return fmt.Errorf("user id and filename required")
	}

	ids := make([]string, 0, maxChunksPerDocument)
	for i := 0; i < maxChunksPerDocument; i++ {
		ids = append(ids, chunkVectorID(filename, i))
	}
	if err := b.store.DeleteIDs(ctx, userNamespacePrefix+userID, ids); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUpstreamUnavailable, err)
	}
	return nil
}

func resolveNamespace(filters map[string]string) (string, error) {
	scope := strings.TrimSpace(filters[search.FilterScope])
	switch scope {
	case "", search.ScopeKnowledgeBase:
		return knowledgeBaseNamespace, nil
	case search.ScopeUser:
		userID := strings.TrimSpace(filters[search.FilterUserID])
		if userID == "" {
			return "", fmt.Errorf("%w: user scope requires a user_id filter", apperr.ErrInvalidArgument)
		}
		return userNamespacePrefix + userID, nil
	default:
		return "", fmt.Errorf("%w: unknown search scope %q", apperr.ErrInvalidArgument, scope)
	}
}

func hasPayloadFilters(filters map[string]string) bool {
	for _, key := range []string{search.FilterState, search.FilterLocationType, search.FilterMaxRank} {
		if strings.TrimSpace(filters[key]) != "" {
			return true
		}
	}
	return false
}

func matchesPayloadFilters(payload map[string]any, filters map[string]string) bool {
	if state := strings.TrimSpace(filters[search.FilterState]); state != "" {
		if !payloadStringEquals(payload["state"], state) {
			return false
		}
	}
	if lt := strings.TrimSpace(filters[search.FilterLocationType]); lt != "" {
		if !payloadStringEquals(payload["location_type"], lt) {
			return false
		}
	}
	if rawMax := strings.TrimSpace(filters[search.FilterMaxRank]); rawMax != "" {
		maxRank, err := strconv.Atoi(rawMax)
		if err != nil {
			return false
		}
		rank, ok := payloadNumber(payload["us_news_rank"])
		if !ok || rank > float64(maxRank) {
			return false
		}
	}
	return true
}

func payloadStringEquals(v any, want string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s), want)
}

func payloadNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func chunkVectorID(filename string, index int) string {
	return filename + "#" + strconv.Itoa(index)
}

// chunkText splits on paragraph boundaries first, then packs paragraphs
// into chunks of at most chunkSize bytes. A chunk boundary never lands
// inside a multi-byte rune.
func chunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for len(p) > chunkSize {
			flush()
			cut := chunkSize
			for cut > 0 && !utf8.RuneStart(p[cut]) {
				cut--
			}
			if cut == 0 {
				cut = chunkSize
			}
			chunks = append(chunks, p[:cut])
			p = p[cut:]
		}
		if current.Len() > 0 && current.Len()+len(p)+2 > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return chunks
}
