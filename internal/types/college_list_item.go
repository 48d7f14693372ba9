package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	CollegeListStatusFavorites = "favorites"
	CollegeListStatusApplied   = "applied"
	CollegeListStatusArchived  = "archived"
)

type CollegeListItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;not null;uniqueIndex:idx_college_list_user_university" json:"user_id"`
	UniversitySlug string    `gorm:"column:university_slug;not null;uniqueIndex:idx_college_list_user_university" json:"university_slug"`

	Status        string  `gorm:"column:status;not null;default:'favorites'" json:"status"`
	IntendedMajor *string `gorm:"column:intended_major" json:"intended_major,omitempty"`
	Order         int     `gorm:"column:display_order;not null;default:0" json:"order"`

	// Removal is a hard delete of the keyed record, so no DeletedAt here.
	AddedAt   time.Time `gorm:"column:added_at;not null;default:now()" json:"added_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CollegeListItem) TableName() string { return "college_list_item" }
