package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/search"
)

const (
	requestTimeout    = 10 * time.Second
	maxErrorBodyBytes = 1024
	defaultLimit      = 10
)

// Backend is the keyword/relevance strategy: ranking belongs to the
// external full-text engine, this side only builds the query and
// normalizes the response shape.
type Backend struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

func NewBackend(log *logger.Logger, cfg Config) (*Backend, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	b := &Backend{
		log:     log.With("service", "ElasticSearchBackend"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: requestTimeout,
		},
	}
	log.Info("Elasticsearch search backend selected",
		"provider", "elasticsearch",
		"url", b.baseURL,
		"index", cfg.Index,
	)
	return b, nil
}

type esHit struct {
	ID     string         `json:"_id"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

func (b *Backend) Search(ctx context.Context, query string, filters map[string]string, limit int) ([]search.ScoredDocument, error) {
	const op = "search"
	if limit <= 0 {
		limit = defaultLimit
	}

	body := b.buildQuery(query, filters, limit)

	var resp esSearchResponse
	if err := b.doJSON(ctx, op, http.MethodPost, "/"+b.cfg.Index+"/_search", body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrUpstreamUnavailable, err)
	}

	out := make([]search.ScoredDocument, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if strings.TrimSpace(hit.ID) == "" {
			continue
		}
		score := 0.0
		if hit.Score != nil {
			score = *hit.Score
		}
		out = append(out, search.ScoredDocument{
			ID:      hit.ID,
			Score:   score,
			Payload: hit.Source,
		})
	}
	search.SortDocuments(out)
	return out, nil
}

// buildQuery translates the caller's query and filters into the engine's
// bool query. Free text becomes a multi_match over name and description;
// known filters become term/range clauses.
func (b *Backend) buildQuery(query string, filters map[string]string, limit int) map[string]any {
	var must []any
	if q := strings.TrimSpace(query); q != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^3", "description"},
			},
		})
	} else {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}

	var filter []any
	if state := strings.TrimSpace(filters[search.FilterState]); state != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"state": strings.ToUpper(state)},
		})
	}
	if lt := strings.TrimSpace(filters[search.FilterLocationType]); lt != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"location_type": strings.ToLower(lt)},
		})
	}
	if raw := strings.TrimSpace(filters[search.FilterMaxRank]); raw != "" {
		if maxRank, err := strconv.Atoi(raw); err == nil && maxRank > 0 {
			filter = append(filter, map[string]any{
				"range": map[string]any{"us_news_rank": map[string]any{"lte": maxRank}},
			})
		}
	}

	boolQuery := map[string]any{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]any{
		"size":  limit,
		"query": map[string]any{"bool": boolQuery},
		// Secondary sort on _id keeps equal-relevance hits in a stable,
		// reproducible order.
		"sort": []any{
			map[string]any{"_score": map[string]any{"order": "desc"}},
			map[string]any{"_id": map[string]any{"order": "asc"}},
		},
	}
}

func (b *Backend) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "elasticsearch request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("elasticsearch http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode response failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
