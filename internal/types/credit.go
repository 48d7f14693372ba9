package types

import (
	"time"

	"github.com/google/uuid"
)

type CreditType string

const (
	CreditTypeFitAnalysis CreditType = "fit_analysis"
	CreditTypeAIMessages  CreditType = "ai_messages"
	CreditTypeEssayReview CreditType = "essay_review"
)

const (
	CreditUsageKindDebit = "debit"
	CreditUsageKindGrant = "grant"
)

// CreditBalance is one row per (user, credit type). Balance must never go
// negative: debits are conditional updates that fail closed.
type CreditBalance struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     string     `gorm:"column:user_id;not null;uniqueIndex:idx_credit_balance_user_type" json:"user_id"`
	CreditType CreditType `gorm:"column:credit_type;not null;uniqueIndex:idx_credit_balance_user_type" json:"credit_type"`

	Balance int `gorm:"column:balance;not null;default:0" json:"balance"`

	// Unlimited short-circuits availability checks for this credit type
	// while UnlimitedExpiresAt is in the future. Expiry is evaluated
	// against the clock at call time, never cached.
	Unlimited          bool       `gorm:"column:unlimited;not null;default:false" json:"unlimited"`
	UnlimitedExpiresAt *time.Time `gorm:"column:unlimited_expires_at" json:"unlimited_expires_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CreditBalance) TableName() string { return "credit_balance" }

// CreditUsage is an append-only record of debits and grants.
type CreditUsage struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     string     `gorm:"column:user_id;not null;index" json:"user_id"`
	CreditType CreditType `gorm:"column:credit_type;not null" json:"credit_type"`
	Kind       string     `gorm:"column:kind;not null" json:"kind"`
	Amount     int        `gorm:"column:amount;not null" json:"amount"`
	Reason     string     `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (CreditUsage) TableName() string { return "credit_usage" }
