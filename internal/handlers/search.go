package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/requestdata"
	"github.com/admitbridge/admitbridge-backend/internal/search"
)

const maxSearchLimit = 50

type SearchHandler struct {
	log     *logger.Logger
	backend search.Backend
}

func NewSearchHandler(log *logger.Logger, backend search.Backend) *SearchHandler {
	return &SearchHandler{
		log:     log.With("handler", "SearchHandler"),
		backend: backend,
	}
}

// GET /api/search?q=...&scope=kb|user&state=CA&location_type=urban&max_rank=50&limit=10
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	limit := 10
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	filters := map[string]string{}
	if scope := strings.TrimSpace(c.Query("scope")); scope != "" {
		filters[search.FilterScope] = scope
		if scope == search.ScopeUser {
			// Callers search only their own documents.
			filters[search.FilterUserID] = requestdata.UserID(c.Request.Context())
		}
	}
	for _, key := range []string{search.FilterState, search.FilterLocationType, search.FilterMaxRank} {
		if v := strings.TrimSpace(c.Query(key)); v != "" {
			filters[key] = v
		}
	}

	docs, err := h.backend.Search(c.Request.Context(), query, filters, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": docs})
}
