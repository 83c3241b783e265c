package claims

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/yungbote/claimpacket-backend/internal/domain/jsonvariant"
)

const (
	TimelineEventEmailSent         = "email_sent"
	TimelineEventReportGenerated   = "report_generated"
	TimelineEventReportRegenerated = "report_regenerated"

	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

// TimelineEvent is append-only. Nothing updates or deletes these rows.
type TimelineEvent struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"org_id"`
	ClaimID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"claim_id"`
	ActorID     *uuid.UUID       `gorm:"type:uuid" json:"actor_id,omitempty"`
	ActorType   string           `gorm:"column:actor_type;not null" json:"actor_type"`
	Type        string           `gorm:"column:type;not null;index" json:"type"`
	Description string           `gorm:"column:description;type:text" json:"description"`
	Metadata    TimelineMetadata `gorm:"column:metadata" json:"metadata"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"created_at"`
}

func (TimelineEvent) TableName() string { return "claim_timeline_event" }

func (e *TimelineEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EmailSentMetadata is enough to reconstruct what was sent without loading
// the artifact again.
type EmailSentMetadata struct {
	RecipientType string    `json:"recipient_type"`
	To            string    `json:"to"`
	Subject       string    `json:"subject"`
	BodyPreview   string    `json:"body_preview"`
	ArtifactID    uuid.UUID `json:"artifact_id"`
	ArtifactTitle string    `json:"artifact_title,omitempty"`
	LinkURL       string    `json:"link_url,omitempty"`
	MessageID     string    `json:"message_id,omitempty"`
}

type ReportMetadata struct {
	ArtifactID   uuid.UUID `json:"artifact_id"`
	ArtifactType string    `json:"artifact_type"`
	TemplateID   string    `json:"template_id,omitempty"`
	Checksum     string    `json:"checksum,omitempty"`
}

// TimelineMetadata is a tagged variant keyed by event kind. Unknown keys are
// kept in Extra and written back unchanged.
type TimelineMetadata struct {
	Email  *EmailSentMetadata
	Report *ReportMetadata
	Extra  map[string]json.RawMessage
}

func (m TimelineMetadata) MarshalJSON() ([]byte, error) {
	return jsonvariant.Join(m.Extra, map[string]any{
		"email":  m.Email,
		"report": m.Report,
	})
}

func (m *TimelineMetadata) UnmarshalJSON(b []byte) error {
	known, extra, err := jsonvariant.Split(b, "email", "report")
	if err != nil {
		return err
	}
	*m = TimelineMetadata{Extra: extra}
	if raw, ok := known["email"]; ok {
		if err := json.Unmarshal(raw, &m.Email); err != nil {
			return err
		}
	}
	if raw, ok := known["report"]; ok {
		if err := json.Unmarshal(raw, &m.Report); err != nil {
			return err
		}
	}
	return nil
}

func (m TimelineMetadata) Value() (driver.Value, error) { return jsonvariant.Value(m) }

func (m *TimelineMetadata) Scan(src any) error { return jsonvariant.Scan(src, m) }

func (TimelineMetadata) GormDataType() string { return "json" }

func (TimelineMetadata) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonvariant.DBDataType(db)
}
