package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type Availability struct {
	HasCredits bool `json:"has_credits"`
	Remaining  int  `json:"remaining"`
	Unlimited  bool `json:"unlimited"`
}

type CreditService interface {
	CheckAvailable(ctx context.Context, userID string, creditType types.CreditType, amount int) (Availability, error)
	// Debit fails closed: no partial debit, balance never goes negative.
	// An active unlimited subscription records usage without decrementing.
	Debit(ctx context.Context, userID string, creditType types.CreditType, amount int, reason string) error
	// Credit always succeeds for a positive amount.
	Credit(ctx context.Context, userID string, creditType types.CreditType, amount int, source string) error
	GrantUnlimited(ctx context.Context, userID string, creditType types.CreditType, expiresAt *time.Time) error
	ListBalances(ctx context.Context, userID string) ([]*types.CreditBalance, error)
}

type creditService struct {
	db      *gorm.DB
	log     *logger.Logger
	credits repos.CreditRepo
	now     func() time.Time
}

func NewCreditService(db *gorm.DB, baseLog *logger.Logger, credits repos.CreditRepo) CreditService {
	return &creditService{
		db:      db,
		log:     baseLog.With("service", "CreditService"),
		credits: credits,
		now:     time.Now,
	}
}

func (s *creditService) CheckAvailable(ctx context.Context, userID string, creditType types.CreditType, amount int) (Availability, error) {
	balance, err := s.credits.GetBalance(ctx, nil, userID, creditType)
	if err != nil {
		if isNotFound(err) {
			return Availability{HasCredits: false, Remaining: 0}, nil
		}
		return Availability{}, err
	}

	if s.unlimitedActive(balance) {
		return Availability{HasCredits: true, Remaining: balance.Balance, Unlimited: true}, nil
	}
	return Availability{
		HasCredits: balance.Balance >= amount,
		Remaining:  balance.Balance,
	}, nil
}

func (s *creditService) Debit(ctx context.Context, userID string, creditType types.CreditType, amount int, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := s.credits.GetBalance(ctx, tx, userID, creditType)
		if err != nil && !isNotFound(err) {
			return err
		}

		if balance != nil && s.unlimitedActive(balance) {
			return s.credits.AppendUsage(ctx, tx, &types.CreditUsage{
				UserID:     userID,
				CreditType: creditType,
				Kind:       types.CreditUsageKindDebit,
				Amount:     0,
				Reason:     reason,
			})
		}

		ok, err := s.credits.DebitIfAvailable(ctx, tx, userID, creditType, amount)
		if err != nil {
			return err
		}
		if !ok {
			remaining := 0
			if balance != nil {
				remaining = balance.Balance
			}
			return &apperr.InsufficientCredits{
				CreditType: string(creditType),
				Requested:  amount,
				Remaining:  remaining,
			}
		}

		return s.credits.AppendUsage(ctx, tx, &types.CreditUsage{
			UserID:     userID,
			CreditType: creditType,
			Kind:       types.CreditUsageKindDebit,
			Amount:     amount,
			Reason:     reason,
		})
	})
}

func (s *creditService) Credit(ctx context.Context, userID string, creditType types.CreditType, amount int, source string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.credits.AddCredits(ctx, tx, userID, creditType, amount); err != nil {
			return err
		}
		return s.credits.AppendUsage(ctx, tx, &types.CreditUsage{
			UserID:     userID,
			CreditType: creditType,
			Kind:       types.CreditUsageKindGrant,
			Amount:     amount,
			Reason:     source,
		})
	})
}

func (s *creditService) GrantUnlimited(ctx context.Context, userID string, creditType types.CreditType, expiresAt *time.Time) error {
	return s.credits.SetUnlimited(ctx, nil, userID, creditType, &types.CreditBalance{
		Unlimited:          true,
		UnlimitedExpiresAt: expiresAt,
	})
}

func (s *creditService) ListBalances(ctx context.Context, userID string) ([]*types.CreditBalance, error) {
	return s.credits.ListBalances(ctx, nil, userID)
}

// unlimitedActive evaluates expiry against the clock at call time; the
// subscription state is never cached.
func (s *creditService) unlimitedActive(balance *types.CreditBalance) bool {
	if balance == nil || !balance.Unlimited {
		return false
	}
	if balance.UnlimitedExpiresAt == nil {
		return true
	}
	return balance.UnlimitedExpiresAt.After(s.now())
}
