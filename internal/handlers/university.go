package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
)

const maxUniversityPage = 100

type UniversityHandler struct {
	log          *logger.Logger
	universities repos.UniversityRepo
}

func NewUniversityHandler(log *logger.Logger, universities repos.UniversityRepo) *UniversityHandler {
	return &UniversityHandler{
		log:          log.With("handler", "UniversityHandler"),
		universities: universities,
	}
}

// GET /api/universities?state=CA&location_type=urban&max_rank=50&limit=25
func (h *UniversityHandler) List(c *gin.Context) {
	filters := repos.UniversityFilters{
		State:        strings.TrimSpace(c.Query("state")),
		LocationType: strings.TrimSpace(c.Query("location_type")),
	}
	if raw := strings.TrimSpace(c.Query("max_rank")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filters.MaxRank = parsed
		}
	}

	limit := 25
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxUniversityPage {
		limit = maxUniversityPage
	}

	universities, err := h.universities.List(c.Request.Context(), nil, filters, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"universities": universities})
}

// GET /api/universities/:slug
func (h *UniversityHandler) Get(c *gin.Context) {
	u, err := h.universities.GetBySlug(c.Request.Context(), nil, c.Param("slug"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, u)
}
