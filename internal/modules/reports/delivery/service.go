package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/claims"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/apierr"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/gcp"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

// MaxAttachmentBytes caps a PDF attached to an email. Larger documents are
// sent as a link only.
const MaxAttachmentBytes = 20 << 20

// TemplateResolver yields the merged template whose branding an email uses.
type TemplateResolver interface {
	Resolve(ctx context.Context, orgID uuid.UUID, templateID string) (*templates.MergedTemplate, error)
}

type Service struct {
	log       *logger.Logger
	db        *gorm.DB
	repos     repos.Set
	links     *LinkBuilder
	objects   gcp.BucketService
	transport MailTransport
	templates TemplateResolver
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewService(log *logger.Logger, db *gorm.DB, set repos.Set, links *LinkBuilder, objects gcp.BucketService, transport MailTransport, tmpl TemplateResolver, metrics *observability.Metrics) *Service {
	return &Service{
		log:       log.With("service", "DeliveryService"),
		db:        db,
		repos:     set,
		links:     links,
		objects:   objects,
		transport: transport,
		templates: tmpl,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type DeliverInput struct {
	OrgID         uuid.UUID
	ArtifactID    uuid.UUID
	RecipientType string
	ToAddress     string
	CC            []string
	Subject       string
	Message       string
	// AttachPDF attaches the rendered document next to the share link.
	AttachPDF bool
	ActorID   *uuid.UUID
}

type Result struct {
	ArtifactID    uuid.UUID                 `json:"artifact_id"`
	RecipientType string                    `json:"recipient_type"`
	MessageID     string                    `json:"message_id,omitempty"`
	LinkURL       string                    `json:"link_url"`
	ExpiresAt     *time.Time                `json:"expires_at,omitempty"`
	SentAt        time.Time                 `json:"sent_at"`
	Status        domreports.ArtifactStatus `json:"status"`
}

func (in DeliverInput) validate() error {
	if !domreports.ValidRecipientType(in.RecipientType) {
		return reporterr.Invalid("recipient_type", "must be adjuster, homeowner or custom")
	}
	if strings.TrimSpace(in.ToAddress) == "" {
		return reporterr.Invalid("to_address", "required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.ToAddress)); err != nil {
		return reporterr.Invalid("to_address", "not a valid email address")
	}
	for _, cc := range in.CC {
		if _, err := mail.ParseAddress(strings.TrimSpace(cc)); err != nil {
			return reporterr.Invalid("cc", "not a valid email address")
		}
	}
	if strings.TrimSpace(in.Subject) == "" {
		return reporterr.Invalid("subject", "required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return reporterr.Invalid("message", "required")
	}
	return nil
}

// Deliver emails a share link for the artifact. A transport failure leaves
// the artifact, the claim and the timeline untouched. Repeated sends are
// not deduplicated.
func (s *Service) Deliver(ctx context.Context, in DeliverInput) (res *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.deliver",
		attribute.String("artifact_id", in.ArtifactID.String()),
		attribute.String("recipient_type", in.RecipientType),
	)
	defer func() {
		observability.EndSpan(span, err)
		s.metrics.IncDelivery(in.RecipientType, err)
	}()

	if err := in.validate(); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	art, err := s.repos.Artifact.GetByID(dbc, in.OrgID, in.ArtifactID)
	if err != nil {
		return nil, err
	}
	if art == nil {
		return nil, reporterr.NotFound("artifact", in.ArtifactID)
	}
	if art.PDFURL == nil {
		return nil, reporterr.Invalid("artifact", "has no rendered document to send")
	}
	claim, err := s.repos.Claim.GetByID(dbc, in.OrgID, art.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, reporterr.NotFound("claim", art.ClaimID)
	}
	var attachments []Attachment
	if in.AttachPDF {
		att, err := s.loadPDF(ctx, art)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *att)
	}

	merged, err := s.resolveTemplate(ctx, in.OrgID, art.TemplateID)
	if err != nil {
		return nil, err
	}

	token, err := s.links.NewToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	link := &types.ShareLink{
		OrgID:            in.OrgID,
		ArtifactID:       art.ID,
		ClaimID:          art.ClaimID,
		RecipientType:    in.RecipientType,
		RecipientAddress: strings.TrimSpace(in.ToAddress),
		TokenHash:        Digest(token),
		ExpiresAt:        s.links.ExpiresAt(in.RecipientType, now),
		CreatedByID:      in.ActorID,
		CreatedAt:        now,
	}
	if err := s.repos.ShareLink.Create(dbc, link); err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}
	linkURL := s.links.URL(token)

	html, text, err := composeEmail(merged.Branding, art.Title, in.Message, linkURL)
	if err != nil {
		s.dropLink(ctx, link.ID)
		return nil, fmt.Errorf("compose email: %w", err)
	}
	msgID, err := s.transport.Send(ctx, Message{
		To:          link.RecipientAddress,
		CC:          in.CC,
		Subject:     strings.TrimSpace(in.Subject),
		HTML:        html,
		Text:        text,
		Attachments: attachments,
		Tags:        map[string]string{"artifact_id": art.ID.String(), "recipient_type": in.RecipientType},
	})
	if err != nil {
		s.dropLink(ctx, link.ID)
		s.log.Warn("Packet delivery failed", "artifact_id", art.ID, "recipient_type", in.RecipientType, "error", err)
		return nil, &reporterr.TransportError{Recipient: in.RecipientType, Err: err}
	}

	sentAt := s.now()
	status := art.Status
	auditCtx := context.WithoutCancel(ctx)
	err = s.db.WithContext(auditCtx).Transaction(func(tx *gorm.DB) error {
		tdbc := dbctx.Context{Ctx: auditCtx, Tx: tx}
		if err := s.repos.Claim.MarkPacketSent(tdbc, in.OrgID, art.ClaimID, in.RecipientType, sentAt); err != nil {
			return err
		}
		if err := s.repos.Timeline.Append(tdbc, emailEvent(art, in, linkURL, msgID, sentAt)); err != nil {
			return err
		}
		moved, err := s.repos.Artifact.AdvanceStatus(tdbc, in.OrgID, art.ID, domreports.ArtifactStatusSent)
		if err != nil {
			return err
		}
		if moved {
			status = domreports.ArtifactStatusSent
		}
		return nil
	})
	if err != nil {
		s.log.Error("Packet sent but audit write failed",
			"artifact_id", art.ID,
			"claim_id", art.ClaimID,
			"message_id", msgID,
			"error", err,
		)
		return nil, apierr.New(http.StatusInternalServerError, "delivery_audit_failed", err).
			WithDetail("artifact_id", art.ID.String()).
			WithDetail("message_id", msgID)
	}

	s.log.Info("Packet delivered", "artifact_id", art.ID, "recipient_type", in.RecipientType, "message_id", msgID)
	return &Result{
		ArtifactID:    art.ID,
		RecipientType: in.RecipientType,
		MessageID:     msgID,
		LinkURL:       linkURL,
		ExpiresAt:     link.ExpiresAt,
		SentAt:        sentAt,
		Status:        status,
	}, nil
}

func (s *Service) resolveTemplate(ctx context.Context, orgID uuid.UUID, templateID string) (*templates.MergedTemplate, error) {
	merged, err := s.templates.Resolve(ctx, orgID, templateID)
	var tnf *reporterr.TemplateNotFoundError
	if errors.As(err, &tnf) && templateID != "" {
		// The template was removed after the artifact was generated.
		return s.templates.Resolve(ctx, orgID, "")
	}
	return merged, err
}

func (s *Service) loadPDF(ctx context.Context, art *types.Artifact) (*Attachment, error) {
	if s.objects == nil || art.StorageKey == nil {
		return nil, reporterr.Invalid("attach_pdf", "document is not stored as a file")
	}
	if art.SizeBytes > MaxAttachmentBytes {
		return nil, reporterr.Invalid("attach_pdf", "document too large to attach")
	}
	rc, err := s.objects.DownloadFile(ctx, gcp.BucketCategoryReport, *art.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download artifact pdf: %w", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, MaxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read artifact pdf: %w", err)
	}
	if len(b) > MaxAttachmentBytes {
		return nil, reporterr.Invalid("attach_pdf", "document too large to attach")
	}
	return &Attachment{Filename: attachmentName(art.Title), ContentType: "application/pdf", Content: b}, nil
}

// attachmentName turns a title into a safe file name.
func attachmentName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '-'
		}
		return -1
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "-")
	if name == "" {
		name = "packet"
	}
	return name + ".pdf"
}

func (s *Service) dropLink(ctx context.Context, id uuid.UUID) {
	if err := s.repos.ShareLink.Delete(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, id); err != nil {
		s.log.Warn("Failed to delete unused share link", "share_link_id", id, "error", err)
	}
}

func emailEvent(a *types.Artifact, in DeliverInput, linkURL, msgID string, at time.Time) *types.TimelineEvent {
	actorType := claims.ActorTypeSystem
	if in.ActorID != nil {
		actorType = claims.ActorTypeUser
	}
	return &types.TimelineEvent{
		OrgID:       a.OrgID,
		ClaimID:     a.ClaimID,
		ActorID:     in.ActorID,
		ActorType:   actorType,
		Type:        claims.TimelineEventEmailSent,
		Description: fmt.Sprintf("%s sent to %s", a.Title, in.RecipientType),
		Metadata: claims.TimelineMetadata{Email: &claims.EmailSentMetadata{
			RecipientType: in.RecipientType,
			To:            strings.TrimSpace(in.ToAddress),
			Subject:       strings.TrimSpace(in.Subject),
			BodyPreview:   truncate(in.Message, previewRunes),
			ArtifactID:    a.ID,
			ArtifactTitle: a.Title,
			LinkURL:       linkURL,
			MessageID:     msgID,
		}},
		CreatedAt: at,
	}
}

type ResolvedLink struct {
	ArtifactID uuid.UUID
	OrgID      uuid.UUID
	PDFURL     string
}

// ResolveLink maps a share token to the artifact's document. Unknown,
// expired and orphaned links are all NotFound.
func (s *Service) ResolveLink(ctx context.Context, token string) (*ResolvedLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, reporterr.NotFound("share_link", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	link, err := s.repos.ShareLink.GetByTokenHash(dbc, Digest(token))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if link == nil || link.Expired(now) {
		return nil, reporterr.NotFound("share_link", nil)
	}
	art, err := s.repos.Artifact.GetByID(dbc, link.OrgID, link.ArtifactID)
	if err != nil {
		return nil, err
	}
	if art == nil || art.PDFURL == nil {
		return nil, reporterr.NotFound("share_link", nil)
	}
	if err := s.repos.ShareLink.RecordAccess(dbc, link.ID, now); err != nil {
		s.log.Warn("Failed to record share link access", "share_link_id", link.ID, "error", err)
	}
	return &ResolvedLink{ArtifactID: art.ID, OrgID: art.OrgID, PDFURL: *art.PDFURL}, nil
}
