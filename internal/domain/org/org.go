package org

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Organization) TableName() string { return "organization" }

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Branding is the per-organization look and contact block injected into
// every rendered document. One row per org.
type Branding struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"org_id"`
	CompanyName    string    `gorm:"column:company_name" json:"company_name"`
	LogoURL        string    `gorm:"column:logo_url" json:"logo_url,omitempty"`
	PrimaryColor   string    `gorm:"column:primary_color" json:"primary_color,omitempty"`
	SecondaryColor string    `gorm:"column:secondary_color" json:"secondary_color,omitempty"`
	AccentColor    string    `gorm:"column:accent_color" json:"accent_color,omitempty"`
	Phone          string    `gorm:"column:phone" json:"phone,omitempty"`
	Email          string    `gorm:"column:email" json:"email,omitempty"`
	Website        string    `gorm:"column:website" json:"website,omitempty"`
	Address        string    `gorm:"column:address" json:"address,omitempty"`
	LicenseNumber  string    `gorm:"column:license_number" json:"license_number,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Branding) TableName() string { return "org_branding" }

func (b *Branding) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
