package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FitCategory string

const (
	FitSafety FitCategory = "safety"
	FitTarget FitCategory = "target"
	FitReach  FitCategory = "reach"
	// FitUnknown marks a low-confidence result computed without the
	// university statistics the classifier requires. It is a distinct
	// state, never coerced to a default band.
	FitUnknown FitCategory = "unknown"
)

type FitConfidence string

const (
	FitConfidenceHigh    FitConfidence = "high"
	FitConfidencePartial FitConfidence = "partial"
	FitConfidenceLow     FitConfidence = "low"
)

type FitResult struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;not null;uniqueIndex:idx_fit_result_user_university" json:"user_id"`
	UniversitySlug string    `gorm:"column:university_slug;not null;uniqueIndex:idx_fit_result_user_university" json:"university_slug"`

	FitCategory FitCategory   `gorm:"column:fit_category;not null" json:"fit_category"`
	MatchScore  int           `gorm:"column:match_score;not null" json:"match_score"`
	Confidence  FitConfidence `gorm:"column:confidence;not null;default:'high'" json:"confidence"`

	GapAnalysis     datatypes.JSONSlice[string] `gorm:"column:gap_analysis;type:jsonb" json:"gap_analysis,omitempty"`
	Recommendations datatypes.JSONSlice[string] `gorm:"column:recommendations;type:jsonb" json:"recommendations,omitempty"`

	// ProfileVersionHash fingerprints the fit-relevant profile content at
	// computation time, used to decide staleness on later reads.
	ProfileVersionHash string    `gorm:"column:profile_version_hash;not null" json:"profile_version_hash"`
	ComputedAt         time.Time `gorm:"column:computed_at;not null;default:now()" json:"computed_at"`
}

func (FitResult) TableName() string { return "fit_result" }
