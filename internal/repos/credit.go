package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type CreditRepo interface {
	GetBalance(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType) (*types.CreditBalance, error)
	ListBalances(ctx context.Context, tx *gorm.DB, userID string) ([]*types.CreditBalance, error)
	// DebitIfAvailable decrements atomically via a conditional update.
	// Returns ok=false without error when the balance is short; the
	// balance row is never driven negative, even under concurrent debits.
	DebitIfAvailable(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, amount int) (ok bool, err error)
	// AddCredits upserts the balance row and increments it.
	AddCredits(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, amount int) error
	SetUnlimited(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, balance *types.CreditBalance) error
	AppendUsage(ctx context.Context, tx *gorm.DB, usage *types.CreditUsage) error
}

type creditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreditRepo(db *gorm.DB, baseLog *logger.Logger) CreditRepo {
	return &creditRepo{db: db, log: baseLog.With("repo", "CreditRepo")}
}

func (cr *creditRepo) GetBalance(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType) (*types.CreditBalance, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.CreditBalance
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND credit_type = ?", userID, creditType).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("credit balance: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

func (cr *creditRepo) ListBalances(ctx context.Context, tx *gorm.DB, userID string) ([]*types.CreditBalance, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CreditBalance
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("credit_type ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *creditRepo) DebitIfAvailable(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, amount int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if amount <= 0 {
		return false, fmt.Errorf("debit amount must be positive: %w", apperr.ErrInvalidArgument)
	}

	// Single conditional UPDATE: under two concurrent debits against one
	// remaining unit, only one statement matches the balance guard.
	res := transaction.WithContext(ctx).
		Model(&types.CreditBalance{}).
		Where("user_id = ? AND credit_type = ? AND balance >= ?", userID, creditType, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (cr *creditRepo) AddCredits(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, amount int) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive: %w", apperr.ErrInvalidArgument)
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "credit_type"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance": gorm.Expr("credit_balance.balance + ?", amount),
			}),
		}).
		Create(&types.CreditBalance{
			UserID:     userID,
			CreditType: creditType,
			Balance:    amount,
		}).Error
}

func (cr *creditRepo) SetUnlimited(ctx context.Context, tx *gorm.DB, userID string, creditType types.CreditType, balance *types.CreditBalance) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	balance.UserID = userID
	balance.CreditType = creditType
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "credit_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"unlimited", "unlimited_expires_at", "updated_at"}),
		}).
		Create(balance).Error
}

func (cr *creditRepo) AppendUsage(ctx context.Context, tx *gorm.DB, usage *types.CreditUsage) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Create(usage).Error
}
