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

type ProfileDocumentRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, doc *types.ProfileDocument) error
	GetByUserAndFilename(ctx context.Context, tx *gorm.DB, userID, filename string) (*types.ProfileDocument, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.ProfileDocument, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, filename string) error
}

type profileDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ProfileDocumentRepo {
	return &profileDocumentRepo{db: db, log: baseLog.With("repo", "ProfileDocumentRepo")}
}

func (dr *profileDocumentRepo) Upsert(ctx context.Context, tx *gorm.DB, doc *types.ProfileDocument) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "filename"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_sha256", "size_bytes", "uploaded_at", "updated_at"}),
		}).
		Create(doc).Error
}

func (dr *profileDocumentRepo) GetByUserAndFilename(ctx context.Context, tx *gorm.DB, userID, filename string) (*types.ProfileDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var result types.ProfileDocument
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND filename = ?", userID, filename).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile document: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

func (dr *profileDocumentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.ProfileDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.ProfileDocument
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *profileDocumentRepo) Delete(ctx context.Context, tx *gorm.DB, userID, filename string) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ? AND filename = ?", userID, filename).
		Delete(&types.ProfileDocument{}).Error
}
