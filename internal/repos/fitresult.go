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

type FitResultRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, universitySlug string) (*types.FitResult, error)
	// Put overwrites unconditionally, keyed (user, university).
	Put(ctx context.Context, tx *gorm.DB, result *types.FitResult) error
	// DeleteByUser removes every cached fit for the user. Invalidation is
	// per-profile: a fit-relevant change affects all universities alike.
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
}

type fitResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFitResultRepo(db *gorm.DB, baseLog *logger.Logger) FitResultRepo {
	return &fitResultRepo{db: db, log: baseLog.With("repo", "FitResultRepo")}
}

func (fr *fitResultRepo) Get(ctx context.Context, tx *gorm.DB, userID, universitySlug string) (*types.FitResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var result types.FitResult
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND university_slug = ?", userID, types.NormalizeUniversitySlug(universitySlug)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fit result: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

func (fr *fitResultRepo) Put(ctx context.Context, tx *gorm.DB, result *types.FitResult) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	result.UniversitySlug = types.NormalizeUniversitySlug(result.UniversitySlug)
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "university_slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"fit_category",
				"match_score",
				"confidence",
				"gap_analysis",
				"recommendations",
				"profile_version_hash",
				"computed_at",
			}),
		}).
		Create(result).Error
}

func (fr *fitResultRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	res := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.FitResult{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
