package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WeatherEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	EventDate      time.Time      `gorm:"column:event_date;not null" json:"event_date"`
	EventType      string         `gorm:"column:event_type;not null" json:"event_type"`
	HailSizeInches *float64       `gorm:"column:hail_size_inches" json:"hail_size_inches,omitempty"`
	WindSpeedMph   *float64       `gorm:"column:wind_speed_mph" json:"wind_speed_mph,omitempty"`
	DistanceMiles  *float64       `gorm:"column:distance_miles" json:"distance_miles,omitempty"`
	Source         string         `gorm:"column:source" json:"source,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WeatherEvent) TableName() string { return "claim_weather_event" }

func (w *WeatherEvent) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

const (
	MediaKindPhoto    = "photo"
	MediaKindDocument = "document"
)

type Media struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	Kind      string         `gorm:"column:kind;not null;index" json:"kind"`
	URL       string         `gorm:"column:url;not null" json:"url"`
	Caption   string         `gorm:"column:caption" json:"caption,omitempty"`
	Area      string         `gorm:"column:area" json:"area,omitempty"`
	TakenAt   *time.Time     `gorm:"column:taken_at" json:"taken_at,omitempty"`
	SortOrder int            `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Media) TableName() string { return "claim_media" }

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Finding struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	Area      string         `gorm:"column:area" json:"area,omitempty"`
	Statement string         `gorm:"column:statement;type:text;not null" json:"statement"`
	Severity  string         `gorm:"column:severity" json:"severity,omitempty"`
	SortOrder int            `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Finding) TableName() string { return "claim_finding" }

func (f *Finding) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type Note struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	AuthorID  *uuid.UUID     `gorm:"type:uuid" json:"author_id,omitempty"`
	Body      string         `gorm:"column:body;type:text;not null" json:"body"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Note) TableName() string { return "claim_note" }

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type Estimate struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	Version       int            `gorm:"column:version;not null;default:1" json:"version"`
	Status        string         `gorm:"column:status" json:"status,omitempty"`
	TotalCents    int64          `gorm:"column:total_cents;not null;default:0" json:"total_cents"`
	LineItemCount int            `gorm:"column:line_item_count;not null;default:0" json:"line_item_count"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Estimate) TableName() string { return "claim_estimate" }

func (e *Estimate) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
