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

type ProfileHandler struct {
	log            *logger.Logger
	profileService services.ProfileService
}

func NewProfileHandler(log *logger.Logger, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		log:            log.With("handler", "ProfileHandler"),
		profileService: profileService,
	}
}

// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, profile)
}

// POST /api/profile/uploads
// Merge one extracted document into the profile.
func (h *ProfileHandler) UploadDocument(c *gin.Context) {
	var req struct {
		Filename   string                    `json:"filename"`
		Extraction services.UploadExtraction `json:"extraction"`
		RawText    string                    `json:"raw_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	if req.Filename == "" {
		RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: filename is required", apperr.ErrInvalidArgument))
		return
	}

	userID := requestdata.UserID(c.Request.Context())
	result, err := h.profileService.UpsertFromUpload(c.Request.Context(), userID, req.Filename, req.Extraction, req.RawText)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// PATCH /api/profile
// Merge onboarding-form scalars.
func (h *ProfileHandler) UpdateOnboarding(c *gin.Context) {
	var req services.OnboardingFields
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	userID := requestdata.UserID(c.Request.Context())
	result, err := h.profileService.UpsertOnboarding(c.Request.Context(), userID, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// DELETE /api/profile/uploads/:filename
func (h *ProfileHandler) RemoveDocument(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: filename is required", apperr.ErrInvalidArgument))
		return
	}

	userID := requestdata.UserID(c.Request.Context())
	result, err := h.profileService.RemoveSourceFields(c.Request.Context(), userID, filename)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !result.DocumentFound {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("document %q not found", filename))
		return
	}
	RespondOK(c, result)
}

// GET /api/profile/uploads
func (h *ProfileHandler) ListDocuments(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	docs, err := h.profileService.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}
