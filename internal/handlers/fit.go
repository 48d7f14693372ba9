package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/requestdata"
	"github.com/admitbridge/admitbridge-backend/internal/services"
)

type FitHandler struct {
	log        *logger.Logger
	fitService services.FitService
}

func NewFitHandler(log *logger.Logger, fitService services.FitService) *FitHandler {
	return &FitHandler{
		log:        log.With("handler", "FitHandler"),
		fitService: fitService,
	}
}

// POST /api/fit
// Cached results are free; a recompute debits one fit-analysis credit.
func (h *FitHandler) ComputeFit(c *gin.Context) {
	var req struct {
		UniversitySlug string `json:"university_slug"`
		IntendedMajor  string `json:"intended_major"`
		Force          bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	if req.UniversitySlug == "" {
		RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: university_slug is required", apperr.ErrInvalidArgument))
		return
	}

	userID := requestdata.UserID(c.Request.Context())
	result, err := h.fitService.ComputeFit(c.Request.Context(), userID, req.UniversitySlug, req.IntendedMajor, req.Force)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
