package reports

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArtifactStatus string

const (
	ArtifactStatusDraft     ArtifactStatus = "DRAFT"
	ArtifactStatusFinalized ArtifactStatus = "FINALIZED"
	ArtifactStatusSent      ArtifactStatus = "SENT"
)

var statusOrder = []ArtifactStatus{ArtifactStatusDraft, ArtifactStatusFinalized, ArtifactStatusSent}

// Rank is the position of s in DRAFT < FINALIZED < SENT, or -1.
func (s ArtifactStatus) Rank() int {
	for i, v := range statusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

func (s ArtifactStatus) Valid() bool { return s.Rank() >= 0 }

// StatusesBelowOrAt lists every status a row may hold when being moved to s.
func StatusesBelowOrAt(s ArtifactStatus) []ArtifactStatus {
	r := s.Rank()
	if r < 0 {
		return nil
	}
	out := make([]ArtifactStatus, r+1)
	copy(out, statusOrder[:r+1])
	return out
}

// MaxStatus returns whichever of a and b is further along.
func MaxStatus(a, b ArtifactStatus) ArtifactStatus {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type ArtifactType string

const (
	ArtifactTypeInsuranceClaim   ArtifactType = "INSURANCE_CLAIM"
	ArtifactTypeRetailProposal   ArtifactType = "RETAIL_PROPOSAL"
	ArtifactTypeSupplement       ArtifactType = "SUPPLEMENT"
	ArtifactTypeInspectionReport ArtifactType = "INSPECTION_REPORT"
	ArtifactTypeOther            ArtifactType = "OTHER"
)

func (t ArtifactType) Valid() bool {
	switch t {
	case ArtifactTypeInsuranceClaim, ArtifactTypeRetailProposal, ArtifactTypeSupplement,
		ArtifactTypeInspectionReport, ArtifactTypeOther:
		return true
	}
	return false
}

const (
	ArtifactKindReport   = "report"
	ArtifactKindDocument = "document"
)

// Artifact is a generated report or document for one claim.
type Artifact struct {
	ID      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_artifact_org_claim,priority:1" json:"org_id"`
	ClaimID uuid.UUID      `gorm:"type:uuid;not null;index:idx_artifact_org_claim,priority:2" json:"claim_id"`
	Kind    string         `gorm:"column:kind;not null;default:'report'" json:"kind"`
	Type    ArtifactType   `gorm:"column:type;not null;index" json:"type"`
	Status  ArtifactStatus `gorm:"column:status;not null;index" json:"status"`
	Title   string         `gorm:"column:title;not null" json:"title"`

	// Exactly one of ContentJSON and ContentText is set.
	ContentJSON datatypes.JSON `gorm:"column:content_json" json:"content_json,omitempty"`
	ContentText *string        `gorm:"column:content_text;type:text" json:"content_text,omitempty"`

	// PDFURL and Checksum are written together or not at all.
	PDFURL       *string `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	Checksum     *string `gorm:"column:checksum" json:"checksum,omitempty"`
	SizeBytes    int64   `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	StorageKey   *string `gorm:"column:storage_key" json:"-"`
	ThumbnailURL *string `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	ThumbnailKey *string `gorm:"column:thumbnail_key" json:"-"`

	TemplateID  string              `gorm:"column:template_id" json:"template_id,omitempty"`
	CreatedByID *uuid.UUID          `gorm:"type:uuid" json:"created_by_id,omitempty"`
	Attachments ArtifactAttachments `gorm:"column:attachments" json:"attachments"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Artifact) TableName() string { return "report_artifact" }

var (
	ErrContentExclusive  = errors.New("exactly one of content_json and content_text must be set")
	ErrPDFChecksumPaired = errors.New("pdf_url and checksum must be set together")
)

func (a *Artifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Kind == "" {
		a.Kind = ArtifactKindReport
	}
	return a.Validate()
}

// HasContentJSON is false for a nil, empty or JSON-null column.
func (a *Artifact) HasContentJSON() bool { return JSONContentSet(a.ContentJSON) }

// JSONContentSet reports whether b holds a JSON value other than null.
func JSONContentSet(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && !bytes.Equal(b, []byte("null"))
}

func (a *Artifact) Validate() error {
	if a.OrgID == uuid.Nil || a.ClaimID == uuid.Nil {
		return fmt.Errorf("artifact must reference an org and a claim")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("invalid artifact type %q", a.Type)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid artifact status %q", a.Status)
	}
	if a.HasContentJSON() == (a.ContentText != nil) {
		return ErrContentExclusive
	}
	if (a.PDFURL == nil) != (a.Checksum == nil) {
		return ErrPDFChecksumPaired
	}
	return nil
}
