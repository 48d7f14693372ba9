package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type CollegeListRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, item *types.CollegeListItem) error
	Remove(ctx context.Context, tx *gorm.DB, userID, universitySlug string) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.CollegeListItem, error)
}

type collegeListRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollegeListRepo(db *gorm.DB, baseLog *logger.Logger) CollegeListRepo {
	return &collegeListRepo{db: db, log: baseLog.With("repo", "CollegeListRepo")}
}

func (cr *collegeListRepo) Upsert(ctx context.Context, tx *gorm.DB, item *types.CollegeListItem) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	item.UniversitySlug = types.NormalizeUniversitySlug(item.UniversitySlug)
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "university_slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "intended_major", "display_order", "updated_at"}),
		}).
		Create(item).Error
}

func (cr *collegeListRepo) Remove(ctx context.Context, tx *gorm.DB, userID, universitySlug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	res := transaction.WithContext(ctx).
		Where("user_id = ? AND university_slug = ?", userID, types.NormalizeUniversitySlug(universitySlug)).
		Delete(&types.CollegeListItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (cr *collegeListRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.CollegeListItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CollegeListItem
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("display_order ASC, added_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
