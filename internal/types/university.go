package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdmittedRange is a published middle-50% range for admitted students.
type AdmittedRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// AdmissionsData holds the admitted-student statistics used by fit scoring.
// Any of the ranges may be absent.
type AdmissionsData struct {
	GPARange *AdmittedRange `json:"gpa_range,omitempty"`
	SATRange *AdmittedRange `json:"sat_range,omitempty"`
	ACTRange *AdmittedRange `json:"act_range,omitempty"`
}

type Major struct {
	Name           string         `json:"name"`
	AcceptanceRate *float64       `json:"acceptance_rate,omitempty"`
	Impacted       bool           `json:"impacted,omitempty"`
	GPARange       *AdmittedRange `json:"gpa_range,omitempty"`
	SATRange       *AdmittedRange `json:"sat_range,omitempty"`
	ACTRange       *AdmittedRange `json:"act_range,omitempty"`
}

type College struct {
	Name   string  `json:"name"`
	Majors []Major `json:"majors,omitempty"`
}

type AcademicStructure struct {
	Colleges []College `json:"colleges,omitempty"`
}

type University struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Name string    `gorm:"column:name;not null;index" json:"name"`

	State        string `gorm:"column:state" json:"state,omitempty"`
	LocationType string `gorm:"column:location_type" json:"location_type,omitempty"`

	USNewsRank     *int     `gorm:"column:us_news_rank" json:"us_news_rank,omitempty"`
	AcceptanceRate *float64 `gorm:"column:acceptance_rate" json:"acceptance_rate,omitempty"`

	AdmissionsData    datatypes.JSONType[AdmissionsData]    `gorm:"column:admissions_data;type:jsonb" json:"admissions_data"`
	AcademicStructure datatypes.JSONType[AcademicStructure] `gorm:"column:academic_structure;type:jsonb" json:"academic_structure"`

	Description string `gorm:"column:description;type:text" json:"description,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (University) TableName() string { return "university" }

// NormalizeUniversitySlug canonicalizes the lookup variants seen in the
// wild: mixed case, surrounding whitespace, a trailing "_slug" suffix, and
// spaces instead of hyphens. Callers must normalize before matching.
func NormalizeUniversitySlug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "_slug")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// FindMajor resolves an intended major inside the academic structure by
// case-insensitive name match. Returns nil when the major is unknown, in
// which case fit scoring falls back to university-level statistics.
func (u *University) FindMajor(name string) *Major {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}
	structure := u.AcademicStructure.Data()
	for ci := range structure.Colleges {
		for mi := range structure.Colleges[ci].Majors {
			m := &structure.Colleges[ci].Majors[mi]
			if strings.ToLower(strings.TrimSpace(m.Name)) == want {
				return m
			}
		}
	}
	return nil
}
