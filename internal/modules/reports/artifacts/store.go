package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/claims"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/render"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/gcp"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
	"github.com/yungbote/claimpacket-backend/internal/platform/pointers"
)

// Store owns artifact rows and their binaries. A row never points at an
// object that was not uploaded, and an upload whose row could not be
// written is deleted again.
type Store struct {
	log     *logger.Logger
	db      *gorm.DB
	repos   repos.Set
	bucket  gcp.BucketService
	metrics *observability.Metrics
	now     func() time.Time
}

func NewStore(log *logger.Logger, db *gorm.DB, set repos.Set, bucket gcp.BucketService, metrics *observability.Metrics) *Store {
	return &Store{
		log:     log.With("service", "ArtifactStore"),
		db:      db,
		repos:   set,
		bucket:  bucket,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	OrgID       uuid.UUID
	ClaimID     uuid.UUID
	Type        domreports.ArtifactType
	Title       string
	ContentJSON json.RawMessage
	ContentText *string
	TemplateID  string
	ActorID     *uuid.UUID
	// Finalize nil means finalize.
	Finalize    *bool
	Attachments domreports.ArtifactAttachments
	Rendered    *render.Output
}

type UpdateInput struct {
	Title       *string
	ContentJSON json.RawMessage
	ContentText *string
	// Attachments is a JSON merge patch over the stored map.
	Attachments json.RawMessage
	Status      *domreports.ArtifactStatus
	// Rendered replaces the binary, e.g. after a content switch.
	Rendered *render.Output
}

type RegenerateInput struct {
	ContentJSON json.RawMessage
	TemplateID  string
	Title       string
	ActorID     *uuid.UUID
	Rendered    *render.Output
}

// ErrSizeMismatch means the stored object is not the document that was
// uploaded.
var ErrSizeMismatch = errors.New("uploaded object size mismatch")

type uploaded struct {
	pdfKey   string
	pdfURL   string
	thumbKey string
	thumbURL string
}

func (s *Store) Get(ctx context.Context, orgID, id uuid.UUID) (*types.Artifact, error) {
	row, err := s.repos.Artifact.GetByID(dbctx.Context{Ctx: ctx}, orgID, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, reporterr.NotFound("artifact", id)
	}
	return row, nil
}

func (s *Store) List(ctx context.Context, orgID, claimID uuid.UUID) ([]*types.Artifact, error) {
	dbc := dbctx.Context{Ctx: ctx}
	claim, err := s.repos.Claim.GetByID(dbc, orgID, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, reporterr.NotFound("claim", claimID)
	}
	return s.repos.Artifact.ListByClaim(dbc, orgID, claimID)
}

// Create uploads the rendered binary and then writes the row together with
// a report_generated timeline event.
func (s *Store) Create(ctx context.Context, in CreateInput) (row *types.Artifact, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.artifact_persist",
		attribute.String("op", "create"),
		attribute.String("claim_id", in.ClaimID.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := validateContent(in.ContentJSON, in.ContentText); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, reporterr.Invalid("type", fmt.Sprintf("unknown artifact type %q", in.Type))
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, reporterr.Invalid("title", "required")
	}
	claim, err := s.repos.Claim.GetByID(dbctx.Context{Ctx: ctx}, in.OrgID, in.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, reporterr.NotFound("claim", in.ClaimID)
	}

	status := domreports.ArtifactStatusFinalized
	if in.Finalize != nil && !*in.Finalize {
		status = domreports.ArtifactStatusDraft
	}
	now := s.now()
	row = &types.Artifact{
		ID:          uuid.New(),
		OrgID:       in.OrgID,
		ClaimID:     in.ClaimID,
		Type:        in.Type,
		Status:      status,
		Title:       strings.TrimSpace(in.Title),
		ContentText: in.ContentText,
		TemplateID:  in.TemplateID,
		CreatedByID: in.ActorID,
		Attachments: in.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if domreports.JSONContentSet(in.ContentJSON) {
		row.ContentJSON = append([]byte(nil), in.ContentJSON...)
	}

	var up *uploaded
	if in.Rendered != nil {
		up, err = s.upload(ctx, row.OrgID, row.ClaimID, row.ID, in.Rendered)
		if err != nil {
			return nil, err
		}
		applyUpload(row, up, in.Rendered)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.repos.Artifact.Create(dbc, row); err != nil {
			return fmt.Errorf("insert artifact: %w", err)
		}
		return s.repos.Timeline.Append(dbc, reportEvent(row, claims.TimelineEventReportGenerated, in.ActorID, now))
	})
	if err != nil {
		s.discard(ctx, up)
		return nil, err
	}
	s.log.Info("Artifact created",
		"artifact_id", row.ID,
		"claim_id", row.ClaimID,
		"status", row.Status,
		"size_bytes", row.SizeBytes,
	)
	return row, nil
}

// Update applies field-level changes. Status only moves forward.
func (s *Store) Update(ctx context.Context, orgID, id uuid.UUID, in UpdateInput) (row *types.Artifact, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.artifact_persist",
		attribute.String("op", "update"),
		attribute.String("artifact_id", id.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	if len(in.ContentJSON) > 0 && in.ContentText != nil {
		return nil, reporterr.Invalid("content", "set either content_json or content_text, not both")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, reporterr.Invalid("title", "must not be empty")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, reporterr.Invalid("status", fmt.Sprintf("unknown status %q", *in.Status))
	}

	cur, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && in.Status.Rank() < cur.Status.Rank() {
		return nil, reporterr.Invalid("status", fmt.Sprintf("cannot move from %s to %s", cur.Status, *in.Status))
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	switch {
	case len(in.ContentJSON) > 0:
		if !domreports.JSONContentSet(in.ContentJSON) {
			return nil, reporterr.Invalid("content_json", "must not be null or blank")
		}
		if !json.Valid(in.ContentJSON) {
			return nil, reporterr.Invalid("content_json", "not valid JSON")
		}
		updates["content_json"] = datatypes.JSON(in.ContentJSON)
		updates["content_text"] = nil
	case in.ContentText != nil:
		updates["content_text"] = *in.ContentText
		updates["content_json"] = nil
	}
	if len(in.Attachments) > 0 {
		patched, perr := cur.Attachments.Patch(in.Attachments)
		if perr != nil {
			return nil, reporterr.Invalid("attachments", perr.Error())
		}
		updates["attachments"] = patched
	}

	var up *uploaded
	if in.Rendered != nil {
		up, err = s.upload(ctx, orgID, cur.ClaimID, cur.ID, in.Rendered)
		if err != nil {
			return nil, err
		}
		for k, v := range uploadUpdates(up, in.Rendered) {
			updates[k] = v
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if len(updates) > 0 {
			ok, err := s.repos.Artifact.UpdateFields(dbc, orgID, id, updates)
			if err != nil {
				return err
			}
			if !ok {
				return reporterr.NotFound("artifact", id)
			}
		}
		if in.Status != nil {
			ok, err := s.repos.Artifact.AdvanceStatus(dbc, orgID, id, *in.Status)
			if err != nil {
				return err
			}
			if !ok {
				return reporterr.Invalid("status", fmt.Sprintf("artifact already past %s", *in.Status))
			}
		}
		return s.checkRow(dbc, orgID, id)
	})
	if err != nil {
		s.discard(ctx, up)
		return nil, err
	}
	if up != nil {
		s.discard(ctx, previousObjects(cur))
	}
	return s.Get(ctx, orgID, id)
}

// Delete soft-deletes the row and then drops every stored version of its
// binaries.
func (s *Store) Delete(ctx context.Context, orgID, id uuid.UUID) (err error) {
	ctx, span := observability.StartSpan(ctx, "reports.artifact_persist",
		attribute.String("op", "delete"),
		attribute.String("artifact_id", id.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	cur, err := s.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	ok, err := s.repos.Artifact.SoftDelete(dbctx.Context{Ctx: ctx}, orgID, id)
	if err != nil {
		return err
	}
	if !ok {
		return reporterr.NotFound("artifact", id)
	}
	s.purge(ctx, cur)
	s.log.Info("Artifact deleted", "artifact_id", id)
	return nil
}

// Regenerate replaces content and binary in place. Status is left alone, so
// a SENT artifact stays SENT. The previous binary is removed only after the
// row points at the new one.
func (s *Store) Regenerate(ctx context.Context, orgID, id uuid.UUID, in RegenerateInput) (row *types.Artifact, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.artifact_persist",
		attribute.String("op", "regenerate"),
		attribute.String("artifact_id", id.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	if !domreports.JSONContentSet(in.ContentJSON) {
		return nil, reporterr.Invalid("content_json", "required")
	}
	if in.Rendered == nil {
		return nil, reporterr.Invalid("rendered", "required")
	}
	cur, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	up, err := s.upload(ctx, orgID, cur.ClaimID, cur.ID, in.Rendered)
	if err != nil {
		return nil, err
	}
	updates := uploadUpdates(up, in.Rendered)
	updates["content_json"] = datatypes.JSON(in.ContentJSON)
	updates["content_text"] = nil
	updates["template_id"] = in.TemplateID
	if t := strings.TrimSpace(in.Title); t != "" {
		updates["title"] = t
	}
	now := s.now()
	updates["updated_at"] = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := s.repos.Artifact.UpdateFields(dbc, orgID, id, updates)
		if err != nil {
			return err
		}
		if !ok {
			return reporterr.NotFound("artifact", id)
		}
		if err := s.checkRow(dbc, orgID, id); err != nil {
			return err
		}
		ev := reportEvent(cur, claims.TimelineEventReportRegenerated, in.ActorID, now)
		ev.Metadata.Report.TemplateID = in.TemplateID
		ev.Metadata.Report.Checksum = in.Rendered.Checksum
		return s.repos.Timeline.Append(dbc, ev)
	})
	if err != nil {
		s.discard(ctx, up)
		return nil, err
	}
	s.discard(ctx, previousObjects(cur))
	s.log.Info("Artifact regenerated", "artifact_id", id, "status", cur.Status)
	return s.Get(ctx, orgID, id)
}

func (s *Store) upload(ctx context.Context, orgID, claimID, artifactID uuid.UUID, out *render.Output) (*uploaded, error) {
	if len(out.PDF) == 0 {
		return nil, reporterr.Invalid("rendered", "empty document")
	}
	version := NewVersion(s.now())
	up := &uploaded{pdfKey: ObjectKey(orgID, claimID, artifactID, version, "pdf")}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryReport, up.pdfKey, bytes.NewReader(out.PDF)); err != nil {
		s.log.Error("Artifact upload failed", "key", up.pdfKey, "error", err)
		return nil, &reporterr.UploadError{Bucket: string(gcp.BucketCategoryReport), Key: up.pdfKey, Err: err}
	}
	if err := s.verifyUpload(ctx, up.pdfKey, int64(len(out.PDF))); err != nil {
		s.log.Error("Artifact upload incomplete", "key", up.pdfKey, "error", err)
		s.discard(ctx, up)
		return nil, &reporterr.UploadError{Bucket: string(gcp.BucketCategoryReport), Key: up.pdfKey, Err: err}
	}
	up.pdfURL = s.bucket.GetPublicURL(gcp.BucketCategoryReport, up.pdfKey)

	if len(out.Thumbnail) > 0 {
		key := ObjectKey(orgID, claimID, artifactID, version, "png")
		if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryThumbnail, key, bytes.NewReader(out.Thumbnail)); err != nil {
			s.log.Warn("Thumbnail upload failed; continuing without preview", "key", key, "error", err)
		} else {
			up.thumbKey = key
			up.thumbURL = s.bucket.GetPublicURL(gcp.BucketCategoryThumbnail, key)
		}
	}
	return up, nil
}

// verifyUpload checks that the stored object has the size that was written.
func (s *Store) verifyUpload(ctx context.Context, key string, want int64) error {
	attrs, err := s.bucket.GetObjectAttrs(ctx, gcp.BucketCategoryReport, key)
	if err != nil {
		return fmt.Errorf("stat uploaded object: %w", err)
	}
	if attrs.Size != want {
		return fmt.Errorf("%w: stored %d bytes, wrote %d", ErrSizeMismatch, attrs.Size, want)
	}
	return nil
}

// purge removes every object stored under the artifact's prefix, which also
// collects versions a failed cleanup left behind.
func (s *Store) purge(ctx context.Context, a *types.Artifact) {
	ctx = context.WithoutCancel(ctx)
	prefix := ObjectPrefix(a.OrgID, a.ClaimID, a.ID)
	for _, cat := range []gcp.BucketCategory{gcp.BucketCategoryReport, gcp.BucketCategoryThumbnail} {
		err := s.bucket.DeletePrefix(ctx, cat, prefix)
		s.metrics.IncStorageCleanup(err)
		if err != nil {
			s.log.Warn("Failed to delete artifact objects", "category", cat, "prefix", prefix, "error", err)
		}
	}
}

// checkRow re-reads the row inside the write's transaction and rejects a
// write that left it inconsistent.
func (s *Store) checkRow(dbc dbctx.Context, orgID, id uuid.UUID) error {
	row, err := s.repos.Artifact.GetByID(dbc, orgID, id)
	if err != nil {
		return err
	}
	if row == nil {
		return reporterr.NotFound("artifact", id)
	}
	if err := row.Validate(); err != nil {
		return reporterr.Invalid("content", err.Error())
	}
	return nil
}

// discard removes uploaded objects on a best-effort basis.
func (s *Store) discard(ctx context.Context, up *uploaded) {
	if up == nil {
		return
	}
	dbc := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	del := func(cat gcp.BucketCategory, key string) {
		if key == "" {
			return
		}
		err := s.bucket.DeleteFile(dbc, cat, key)
		if errors.Is(err, gcp.ErrObjectNotFound) {
			err = nil
		}
		s.metrics.IncStorageCleanup(err)
		if err != nil {
			s.log.Warn("Failed to delete artifact object", "category", cat, "key", key, "error", err)
		}
	}
	del(gcp.BucketCategoryReport, up.pdfKey)
	del(gcp.BucketCategoryThumbnail, up.thumbKey)
}

func previousObjects(a *types.Artifact) *uploaded {
	if a == nil || (a.StorageKey == nil && a.ThumbnailKey == nil) {
		return nil
	}
	up := &uploaded{}
	if a.StorageKey != nil {
		up.pdfKey = *a.StorageKey
	}
	if a.ThumbnailKey != nil {
		up.thumbKey = *a.ThumbnailKey
	}
	return up
}

func applyUpload(row *types.Artifact, up *uploaded, out *render.Output) {
	row.PDFURL = pointers.String(up.pdfURL)
	row.Checksum = pointers.String(out.Checksum)
	row.SizeBytes = out.SizeBytes
	row.StorageKey = pointers.String(up.pdfKey)
	if up.thumbKey != "" {
		row.ThumbnailKey = pointers.String(up.thumbKey)
		row.ThumbnailURL = pointers.String(up.thumbURL)
	}
}

func uploadUpdates(up *uploaded, out *render.Output) map[string]interface{} {
	m := map[string]interface{}{
		"pdf_url":       up.pdfURL,
		"checksum":      out.Checksum,
		"size_bytes":    out.SizeBytes,
		"storage_key":   up.pdfKey,
		"thumbnail_key": nil,
		"thumbnail_url": nil,
	}
	if up.thumbKey != "" {
		m["thumbnail_key"] = up.thumbKey
		m["thumbnail_url"] = up.thumbURL
	}
	return m
}

func reportEvent(a *types.Artifact, kind string, actorID *uuid.UUID, at time.Time) *types.TimelineEvent {
	actorType := claims.ActorTypeSystem
	if actorID != nil {
		actorType = claims.ActorTypeUser
	}
	desc := "Report generated: " + a.Title
	if kind == claims.TimelineEventReportRegenerated {
		desc = "Report regenerated: " + a.Title
	}
	meta := &claims.ReportMetadata{ArtifactID: a.ID, ArtifactType: string(a.Type), TemplateID: a.TemplateID}
	if a.Checksum != nil {
		meta.Checksum = *a.Checksum
	}
	return &types.TimelineEvent{
		OrgID:       a.OrgID,
		ClaimID:     a.ClaimID,
		ActorID:     actorID,
		ActorType:   actorType,
		Type:        kind,
		Description: desc,
		Metadata:    claims.TimelineMetadata{Report: meta},
		CreatedAt:   at,
	}
}

func validateContent(contentJSON json.RawMessage, contentText *string) error {
	hasJSON := len(bytes.TrimSpace(contentJSON)) > 0
	if hasJSON == (contentText != nil) {
		return reporterr.Invalid("content", "exactly one of content_json and content_text is required")
	}
	if hasJSON && !json.Valid(contentJSON) {
		return reporterr.Invalid("content_json", "not valid JSON")
	}
	return nil
}
