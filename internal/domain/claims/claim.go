package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Claim struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"org_id"`
	ClientID     *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ClaimNumber  string     `gorm:"column:claim_number;index" json:"claim_number"`
	PolicyNumber string     `gorm:"column:policy_number" json:"policy_number,omitempty"`
	CarrierName  string     `gorm:"column:carrier_name" json:"carrier_name,omitempty"`
	Status       string     `gorm:"column:status;not null;default:'open'" json:"status"`
	LossType     string     `gorm:"column:loss_type" json:"loss_type,omitempty"`
	DateOfLoss   *time.Time `gorm:"column:date_of_loss" json:"date_of_loss,omitempty"`
	Description  string     `gorm:"column:description;type:text" json:"description,omitempty"`

	// StagedPropertyAddress is a denormalized copy written by intake. It goes
	// stale when the property record changes; reports never read it.
	StagedPropertyAddress string `gorm:"column:staged_property_address" json:"staged_property_address,omitempty"`

	AdjusterName  string `gorm:"column:adjuster_name" json:"adjuster_name,omitempty"`
	AdjusterEmail string `gorm:"column:adjuster_email" json:"adjuster_email,omitempty"`
	AdjusterPhone string `gorm:"column:adjuster_phone" json:"adjuster_phone,omitempty"`

	AdjusterPacketSentAt  *time.Time `gorm:"column:adjuster_packet_sent_at" json:"adjuster_packet_sent_at,omitempty"`
	HomeownerPacketSentAt *time.Time `gorm:"column:homeowner_packet_sent_at" json:"homeowner_packet_sent_at,omitempty"`
	LastContactedAt       *time.Time `gorm:"column:last_contacted_at" json:"last_contacted_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Claim) TableName() string { return "claim" }

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Client struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	FirstName string         `gorm:"column:first_name" json:"first_name"`
	LastName  string         `gorm:"column:last_name" json:"last_name"`
	Email     string         `gorm:"column:email" json:"email,omitempty"`
	Phone     string         `gorm:"column:phone" json:"phone,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Client) TableName() string { return "client" }

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Property struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"claim_id"`
	Street       string         `gorm:"column:street" json:"street"`
	Unit         string         `gorm:"column:unit" json:"unit,omitempty"`
	City         string         `gorm:"column:city" json:"city"`
	State        string         `gorm:"column:state" json:"state"`
	PostalCode   string         `gorm:"column:postal_code" json:"postal_code"`
	Country      string         `gorm:"column:country" json:"country,omitempty"`
	YearBuilt    *int           `gorm:"column:year_built" json:"year_built,omitempty"`
	RoofType     string         `gorm:"column:roof_type" json:"roof_type,omitempty"`
	RoofAgeYears *int           `gorm:"column:roof_age_years" json:"roof_age_years,omitempty"`
	Stories      *int           `gorm:"column:stories" json:"stories,omitempty"`
	SquareFeet   *int           `gorm:"column:square_feet" json:"square_feet,omitempty"`
	Latitude     *float64       `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude    *float64       `gorm:"column:longitude" json:"longitude,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Property) TableName() string { return "claim_property" }

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
