package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/types"
)

type CollegeListService interface {
	Add(ctx context.Context, userID string, item *types.CollegeListItem) error
	Remove(ctx context.Context, userID, universitySlug string) (bool, error)
	List(ctx context.Context, userID string) ([]*types.CollegeListItem, error)
}

type collegeListService struct {
	db           *gorm.DB
	log          *logger.Logger
	list         repos.CollegeListRepo
	universities repos.UniversityRepo
}

func NewCollegeListService(db *gorm.DB, baseLog *logger.Logger, list repos.CollegeListRepo, universities repos.UniversityRepo) CollegeListService {
	return &collegeListService{
		db:           db,
		log:          baseLog.With("service", "CollegeListService"),
		list:         list,
		universities: universities,
	}
}

func (s *collegeListService) Add(ctx context.Context, userID string, item *types.CollegeListItem) error {
	// Adding an unknown university is rejected up front rather than
	// leaving a dangling reference in the list.
	if _, err := s.universities.GetBySlug(ctx, nil, item.UniversitySlug); err != nil {
		return err
	}

	item.UserID = userID
	if strings.TrimSpace(item.Status) == "" {
		item.Status = types.CollegeListStatusFavorites
	}
	return s.list.Upsert(ctx, nil, item)
}

func (s *collegeListService) Remove(ctx context.Context, userID, universitySlug string) (bool, error) {
	return s.list.Remove(ctx, nil, userID, universitySlug)
}

func (s *collegeListService) List(ctx context.Context, userID string) ([]*types.CollegeListItem, error) {
	items, err := s.list.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*types.CollegeListItem{}
	}
	return items, nil
}
