package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TemplateScopeBuiltin     = "builtin"
	TemplateScopeOrgCustom   = "org-custom"
	TemplateScopeMarketplace = "marketplace"
)

// ReportTemplate stores org-custom and marketplace definitions. Built-in
// definitions ship with the binary and have no row.
type ReportTemplate struct {
	ID             uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID          *uuid.UUID                          `gorm:"type:uuid;index" json:"org_id,omitempty"`
	Name           string                              `gorm:"column:name;not null" json:"name"`
	Scope          string                              `gorm:"column:scope;not null;index" json:"scope"`
	ArtifactType   string                              `gorm:"column:artifact_type" json:"artifact_type,omitempty"`
	SectionOrder   datatypes.JSONType[[]string]        `gorm:"column:section_order" json:"section_order"`
	SectionEnabled datatypes.JSONType[map[string]bool] `gorm:"column:section_enabled" json:"section_enabled"`
	Defaults       TemplateDefaults                    `gorm:"column:defaults" json:"defaults"`
	IsDefault      bool                                `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt      time.Time                           `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                           `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt                      `gorm:"index" json:"-"`
}

func (ReportTemplate) TableName() string { return "report_template" }

func (t *ReportTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
