package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileDocument records one ingested upload per (user, filename) so source
// removal and provenance have a first-class record to anchor on. Re-uploading
// the same filename updates the row in place and re-merges its fields.
type ProfileDocument struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   string    `gorm:"column:user_id;not null;uniqueIndex:idx_profile_document_user_filename" json:"user_id"`
	Filename string    `gorm:"column:filename;not null;uniqueIndex:idx_profile_document_user_filename" json:"filename"`

	ContentSHA256 string `gorm:"column:content_sha256;not null" json:"content_sha256"`
	SizeBytes     int64  `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`

	UploadedAt time.Time      `gorm:"column:uploaded_at;not null;default:now()" json:"uploaded_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProfileDocument) TableName() string { return "profile_document" }
