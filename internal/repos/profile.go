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

type ProfileRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*types.StudentProfile, error)
	// GetByUserIDForUpdate takes a FOR UPDATE row lock; only valid inside
	// a transaction. Merges use it so per-user mutation is serialized.
	GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*types.StudentProfile, error)
	Create(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error
	Save(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (pr *profileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*types.StudentProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.StudentProfile
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile for user: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

func (pr *profileRepo) GetByUserIDForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*types.StudentProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.StudentProfile
	err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile for user: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

func (pr *profileRepo) Create(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(profile).Error
}

func (pr *profileRepo) Save(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(profile).Error
}
