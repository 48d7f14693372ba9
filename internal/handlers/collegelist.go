package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/requestdata"
	"github.com/admitbridge/admitbridge-backend/internal/services"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type CollegeListHandler struct {
	log         *logger.Logger
	listService services.CollegeListService
}

func NewCollegeListHandler(log *logger.Logger, listService services.CollegeListService) *CollegeListHandler {
	return &CollegeListHandler{
		log:         log.With("handler", "CollegeListHandler"),
		listService: listService,
	}
}

// GET /api/college-list
func (h *CollegeListHandler) List(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	items, err := h.listService.List(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

// POST /api/college-list
func (h *CollegeListHandler) Add(c *gin.Context) {
	var req struct {
		UniversitySlug string  `json:"university_slug"`
		Status         string  `json:"status"`
		IntendedMajor  *string `json:"intended_major"`
		Order          int     `json:"order"`
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
	item := &types.CollegeListItem{
		UniversitySlug: req.UniversitySlug,
		Status:         req.Status,
		IntendedMajor:  req.IntendedMajor,
		Order:          req.Order,
	}
	if err := h.listService.Add(c.Request.Context(), userID, item); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, item)
}

// DELETE /api/college-list/:slug
func (h *CollegeListHandler) Remove(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: slug is required", apperr.ErrInvalidArgument))
		return
	}

	userID := requestdata.UserID(c.Request.Context())
	removed, err := h.listService.Remove(c.Request.Context(), userID, slug)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !removed {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("list entry %q not found", slug))
		return
	}
	RespondOK(c, gin.H{"removed": true})
}
