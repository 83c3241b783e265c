package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RecipientAdjuster  = "adjuster"
	RecipientHomeowner = "homeowner"
	RecipientCustom    = "custom"
)

func ValidRecipientType(s string) bool {
	switch s {
	case RecipientAdjuster, RecipientHomeowner, RecipientCustom:
		return true
	}
	return false
}

// ShareLink is one emailed access link. Only the digest of the token is
// stored.
type ShareLink struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"org_id"`
	ArtifactID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"artifact_id"`
	ClaimID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"claim_id"`
	RecipientType    string     `gorm:"column:recipient_type;not null" json:"recipient_type"`
	RecipientAddress string     `gorm:"column:recipient_address;not null" json:"recipient_address"`
	TokenHash        string     `gorm:"column:token_hash;not null;uniqueIndex" json:"-"`
	ExpiresAt        *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedByID      *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
	AccessCount      int        `gorm:"column:access_count;not null;default:0" json:"access_count"`
	LastAccessedAt   *time.Time `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
}

func (ShareLink) TableName() string { return "artifact_share_link" }

func (l *ShareLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the link has an expiry at or before now.
func (l *ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}
