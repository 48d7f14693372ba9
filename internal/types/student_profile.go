package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile field names as they appear in extraction payloads, field_sources
// keys and merge-result change lists.
const (
	FieldGPAWeighted     = "gpa_weighted"
	FieldGPAUnweighted   = "gpa_unweighted"
	FieldSATTotal        = "sat_total"
	FieldACTComposite    = "act_composite"
	FieldClassRank       = "class_rank"
	FieldIntendedMajor   = "intended_major"
	FieldGraduationYear  = "graduation_year"
	FieldSchool          = "school"
	FieldLocation        = "location"
	FieldCourses         = "courses"
	FieldAPExams         = "ap_exams"
	FieldExtracurricular = "extracurriculars"
	FieldLeadershipRoles = "leadership_roles"
	FieldAwards          = "awards"
	FieldWorkExperience  = "work_experience"
)

// AllProfileFields lists every mergeable profile field. The fit-cache
// invalidation policy is tested exhaustively against this list so a new
// field cannot be silently excluded.
func AllProfileFields() []string {
	return []string{
		FieldGPAWeighted,
		FieldGPAUnweighted,
		FieldSATTotal,
		FieldACTComposite,
		FieldClassRank,
		FieldIntendedMajor,
		FieldGraduationYear,
		FieldSchool,
		FieldLocation,
		FieldCourses,
		FieldAPExams,
		FieldExtracurricular,
		FieldLeadershipRoles,
		FieldAwards,
		FieldWorkExperience,
	}
}

// ProfileItem is one entry of a profile collection field (an activity, an AP
// exam, an award). Name is the natural key: merges match it
// case-insensitively and never insert a second item with the same key.
type ProfileItem struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
	Role   string `json:"role,omitempty"`
	Score  string `json:"score,omitempty"`
	Year   string `json:"year,omitempty"`
}

// FieldSources maps a field name to the set of uploaded filenames that
// contributed a non-null value to it. Fields set by onboarding carry no
// source entry.
type FieldSources map[string][]string

type StudentProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`

	GPAWeighted    *float64 `gorm:"column:gpa_weighted" json:"gpa_weighted,omitempty"`
	GPAUnweighted  *float64 `gorm:"column:gpa_unweighted" json:"gpa_unweighted,omitempty"`
	SATTotal       *int     `gorm:"column:sat_total" json:"sat_total,omitempty"`
	ACTComposite   *int     `gorm:"column:act_composite" json:"act_composite,omitempty"`
	ClassRank      *string  `gorm:"column:class_rank" json:"class_rank,omitempty"`
	IntendedMajor  *string  `gorm:"column:intended_major" json:"intended_major,omitempty"`
	GraduationYear *int     `gorm:"column:graduation_year" json:"graduation_year,omitempty"`
	School         *string  `gorm:"column:school" json:"school,omitempty"`
	Location       *string  `gorm:"column:location" json:"location,omitempty"`

	Courses          datatypes.JSONSlice[ProfileItem] `gorm:"column:courses;type:jsonb" json:"courses,omitempty"`
	APExams          datatypes.JSONSlice[ProfileItem] `gorm:"column:ap_exams;type:jsonb" json:"ap_exams,omitempty"`
	Extracurriculars datatypes.JSONSlice[ProfileItem] `gorm:"column:extracurriculars;type:jsonb" json:"extracurriculars,omitempty"`
	LeadershipRoles  datatypes.JSONSlice[ProfileItem] `gorm:"column:leadership_roles;type:jsonb" json:"leadership_roles,omitempty"`
	Awards           datatypes.JSONSlice[ProfileItem] `gorm:"column:awards;type:jsonb" json:"awards,omitempty"`
	WorkExperience   datatypes.JSONSlice[ProfileItem] `gorm:"column:work_experience;type:jsonb" json:"work_experience,omitempty"`

	FieldSourceMap datatypes.JSONType[FieldSources] `gorm:"column:field_sources;type:jsonb" json:"field_sources"`

	// RawContent is the append-only concatenation of every uploaded
	// document's extracted text. It is never truncated by merges; a source
	// delete rewrites it without the deleted document's segment.
	RawContent string `gorm:"column:raw_content;type:text" json:"raw_content,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentProfile) TableName() string { return "student_profile" }
