package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/requestdata"
	"github.com/admitbridge/admitbridge-backend/internal/services"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type CreditHandler struct {
	log           *logger.Logger
	creditService services.CreditService
}

func NewCreditHandler(log *logger.Logger, creditService services.CreditService) *CreditHandler {
	return &CreditHandler{
		log:           log.With("handler", "CreditHandler"),
		creditService: creditService,
	}
}

// GET /api/credits
func (h *CreditHandler) ListBalances(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	balances, err := h.creditService.ListBalances(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"balances": balances})
}

// POST /api/credits/grant
// Billing webhook surface: adds purchased credits or activates unlimited.
func (h *CreditHandler) Grant(c *gin.Context) {
	var req struct {
		UserID             string  `json:"user_id"`
		CreditType         string  `json:"credit_type"`
		Amount             int     `json:"amount"`
		Unlimited          bool    `json:"unlimited"`
		UnlimitedExpiresAt *string `json:"unlimited_expires_at"`
		Source             string  `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}

	creditType, err := parseCreditType(req.CreditType)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = requestdata.UserID(c.Request.Context())
	}

	if req.Unlimited {
		var expiresAt *time.Time
		if req.UnlimitedExpiresAt != nil {
			parsed, parseErr := time.Parse(time.RFC3339, *req.UnlimitedExpiresAt)
			if parseErr != nil {
				RespondError(c, http.StatusBadRequest, "invalid_argument",
					fmt.Errorf("%w: unlimited_expires_at must be RFC3339", apperr.ErrInvalidArgument))
				return
			}
			expiresAt = &parsed
		}
		if err := h.creditService.GrantUnlimited(c.Request.Context(), userID, creditType, expiresAt); err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"granted": "unlimited"})
		return
	}

	if req.Amount <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_argument",
			fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidArgument))
		return
	}
	source := req.Source
	if source == "" {
		source = "grant"
	}
	if err := h.creditService.Credit(c.Request.Context(), userID, creditType, req.Amount, source); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"granted": req.Amount})
}

func parseCreditType(raw string) (types.CreditType, error) {
	switch types.CreditType(raw) {
	case types.CreditTypeFitAnalysis, types.CreditTypeAIMessages, types.CreditTypeEssayReview:
		return types.CreditType(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown credit_type %q", apperr.ErrInvalidArgument, raw)
	}
}
