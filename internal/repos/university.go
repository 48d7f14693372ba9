package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/admitbridge/admitbridge-backend/internal/apperr"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

// UniversityFilters narrows candidate fetches. Zero values mean no filter.
type UniversityFilters struct {
	State        string
	LocationType string
	MaxRank      int
}

type UniversityRepo interface {
	// GetBySlug normalizes the slug before matching, so lookup variants
	// ("Stanford_slug", "STANFORD") resolve to the same record.
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.University, error)
	List(ctx context.Context, tx *gorm.DB, filters UniversityFilters, limit int) ([]*types.University, error)
	Upsert(ctx context.Context, tx *gorm.DB, u *types.University) error
}

type universityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUniversityRepo(db *gorm.DB, baseLog *logger.Logger) UniversityRepo {
	return &universityRepo{db: db, log: baseLog.With("repo", "UniversityRepo")}
}

func (ur *universityRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.University, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	normalized := types.NormalizeUniversitySlug(slug)
	if normalized == "" {
		return nil, fmt.Errorf("empty university slug: %w", apperr.ErrInvalidArgument)
	}

	var result types.University
	err := transaction.WithContext(ctx).
		Where("slug = ?", normalized).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("university %q: %w", normalized, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

func (ur *universityRepo) List(ctx context.Context, tx *gorm.DB, filters UniversityFilters, limit int) ([]*types.University, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	query := transaction.WithContext(ctx).Model(&types.University{})
	if s := strings.TrimSpace(filters.State); s != "" {
		query = query.Where("state = ?", strings.ToUpper(s))
	}
	if lt := strings.TrimSpace(filters.LocationType); lt != "" {
		query = query.Where("location_type = ?", strings.ToLower(lt))
	}
	if filters.MaxRank > 0 {
		query = query.Where("us_news_rank IS NOT NULL AND us_news_rank <= ?", filters.MaxRank)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.University
	if err := query.Order("slug ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *universityRepo) Upsert(ctx context.Context, tx *gorm.DB, u *types.University) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	u.Slug = types.NormalizeUniversitySlug(u.Slug)
	if u.Slug == "" {
		return fmt.Errorf("empty university slug: %w", apperr.ErrInvalidArgument)
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			UpdateAll: true,
		}).
		Create(u).Error
}
