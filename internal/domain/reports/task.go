package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusQueued    = "queued"
	TaskStatusRunning   = "running"
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
)

// GenerationTask tracks an asynchronous generateReport call. ArtifactID is
// set only once the task has succeeded.
type GenerationTask struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"claim_id"`
	RequestedByID *uuid.UUID `gorm:"type:uuid" json:"requested_by_id,omitempty"`
	ArtifactType  string     `gorm:"column:artifact_type;not null" json:"artifact_type"`
	TemplateID    string     `gorm:"column:template_id" json:"template_id,omitempty"`
	Status        string     `gorm:"column:status;not null;index" json:"status"`
	ArtifactID    *uuid.UUID `gorm:"type:uuid" json:"artifact_id,omitempty"`
	ErrorCode     string     `gorm:"column:error_code" json:"error_code,omitempty"`
	ErrorMessage  string     `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	StartedAt     *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt    *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (GenerationTask) TableName() string { return "report_generation_task" }

func (t *GenerationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *GenerationTask) Done() bool {
	return t.Status == TaskStatusSucceeded || t.Status == TaskStatusFailed
}
