// Package reports is the produced interface of the report pipeline. Each
// usecase composes the stage packages; none of them holds state between
// calls.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/data/db"
	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/artifacts"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/render"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reportctx"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/apierr"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type UsecasesDeps struct {
	DB    *gorm.DB
	Log   *logger.Logger
	Repos repos.Set

	Builder   *reportctx.Builder
	Templates *templates.Merger
	Renderer  *render.Renderer
	Artifacts *artifacts.Store
	Delivery  *delivery.Service
	// Tasks is optional; without it StartGeneration is unavailable.
	Tasks   *TaskRunner
	Metrics *observability.Metrics
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("module", "reports")
	return Usecases{deps: deps}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

// Snapshot is the content_json stored with a generated artifact. It holds
// enough to re-render the document without re-reading the claim.
type Snapshot struct {
	TemplateID string                         `json:"template_id"`
	Sections   []string                       `json:"sections"`
	Context    *reportctx.ReportContext       `json:"context"`
	Warnings   []reporterr.PartialDataWarning `json:"warnings,omitempty"`
}

type GenerateInput struct {
	OrgID      uuid.UUID
	ClaimID    uuid.UUID
	Type       domreports.ArtifactType
	TemplateID string
	Title      string
	ActorID    *uuid.UUID
	// Finalize nil means finalize.
	Finalize *bool
}

type GenerateResult struct {
	Artifact *types.Artifact                `json:"artifact"`
	Warnings []reporterr.PartialDataWarning `json:"warnings"`
	Skipped  []string                       `json:"skipped_sections,omitempty"`
}

func (in *GenerateInput) normalize() error {
	if in.Type == "" {
		in.Type = domreports.ArtifactTypeInsuranceClaim
	}
	if !in.Type.Valid() {
		return reporterr.Invalid("type", fmt.Sprintf("unknown artifact type %q", in.Type))
	}
	in.TemplateID = strings.TrimSpace(in.TemplateID)
	in.Title = strings.TrimSpace(in.Title)
	return nil
}

// GenerateReport runs every stage for one claim and persists the result.
// Once the request is accepted the work is detached from the caller, so a
// disconnect does not abandon a half-finished render.
func (u Usecases) GenerateReport(ctx context.Context, in GenerateInput) (res *GenerateResult, err error) {
	defer func() { u.deps.Metrics.IncGeneration(string(in.Type), err) }()

	if err := in.normalize(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	built, err := u.deps.Builder.Build(ctx, in.OrgID, in.ClaimID)
	if err != nil {
		return nil, err
	}
	merged, err := u.deps.Templates.Resolve(ctx, in.OrgID, in.TemplateID)
	if err != nil {
		return nil, err
	}
	title := in.Title
	if title == "" {
		title = u.defaultTitle(in.Type, built.Context)
	}
	out, err := u.deps.Renderer.Render(ctx, merged, built.Context, title)
	if err != nil {
		return nil, err
	}
	content, err := json.Marshal(Snapshot{
		TemplateID: merged.ID,
		Sections:   out.Sections,
		Context:    built.Context,
		Warnings:   built.Warnings,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	row, err := u.deps.Artifacts.Create(ctx, artifacts.CreateInput{
		OrgID:       in.OrgID,
		ClaimID:     in.ClaimID,
		Type:        in.Type,
		Title:       title,
		ContentJSON: content,
		TemplateID:  merged.ID,
		ActorID:     in.ActorID,
		Finalize:    in.Finalize,
		Rendered:    out,
	})
	if err != nil {
		return nil, err
	}
	u.deps.Log.Info("Report generated",
		"artifact_id", row.ID,
		"claim_id", in.ClaimID,
		"template_id", merged.ID,
		"sections", len(out.Sections),
		"skipped", len(out.Skipped),
	)
	return &GenerateResult{Artifact: row, Warnings: nonNilWarnings(built.Warnings), Skipped: out.Skipped}, nil
}

func (u Usecases) defaultTitle(t domreports.ArtifactType, rc *reportctx.ReportContext) string {
	base := u.deps.Templates.Catalog().Title(string(t))
	if rc != nil && rc.Claim.Number != "" {
		return base + " - " + rc.Claim.Number
	}
	return base
}

type Preview struct {
	Context       *reportctx.ReportContext       `json:"context"`
	MissingFields []string                       `json:"missing_fields"`
	Warnings      []reporterr.PartialDataWarning `json:"warnings"`
	Ready         bool                           `json:"ready"`
	TemplateID    string                         `json:"template_id"`
	Sections      []string                       `json:"sections"`
}

// PreviewContext runs only the context and template stages. Incomplete data
// is reported through Ready and MissingFields, never as an error.
func (u Usecases) PreviewContext(ctx context.Context, orgID, claimID uuid.UUID, templateID string) (*Preview, error) {
	built, err := u.deps.Builder.Build(ctx, orgID, claimID)
	if err != nil {
		return nil, err
	}
	merged, err := u.deps.Templates.Resolve(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Context:       built.Context,
		MissingFields: built.MissingFields(),
		Warnings:      nonNilWarnings(built.Warnings),
		Ready:         built.Ready(),
		TemplateID:    merged.ID,
		Sections:      merged.SectionKeys(),
	}, nil
}

// StartGeneration records a task and hands the generation to the runner.
// The claim is checked up front so an obviously bad request fails
// synchronously.
func (u Usecases) StartGeneration(ctx context.Context, in GenerateInput) (*types.GenerationTask, error) {
	if u.deps.Tasks == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "tasks_unavailable", errors.New("generation tasks are not enabled"))
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	claim, err := u.deps.Repos.Claim.GetByID(dbc, in.OrgID, in.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, reporterr.NotFound("claim", in.ClaimID)
	}

	task := &types.GenerationTask{
		OrgID:         in.OrgID,
		ClaimID:       in.ClaimID,
		RequestedByID: in.ActorID,
		ArtifactType:  string(in.Type),
		TemplateID:    in.TemplateID,
		Status:        domreports.TaskStatusQueued,
	}
	if err := u.deps.Repos.GenerationTask.Create(dbc, task); err != nil {
		return nil, fmt.Errorf("create generation task: %w", err)
	}
	err = u.deps.Tasks.Submit(task, func(ctx context.Context) (uuid.UUID, error) {
		res, err := u.GenerateReport(ctx, in)
		if err != nil {
			return uuid.Nil, err
		}
		return res.Artifact.ID, nil
	})
	if err != nil {
		u.deps.Tasks.fail(context.WithoutCancel(ctx), task.ID, err)
		return nil, err
	}
	return task, nil
}

func (u Usecases) GetGenerationTask(ctx context.Context, orgID, taskID uuid.UUID) (*types.GenerationTask, error) {
	task, err := u.deps.Repos.GenerationTask.GetByID(dbctx.Context{Ctx: ctx}, orgID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, reporterr.NotFound("generation_task", taskID)
	}
	return task, nil
}

func (u Usecases) SendArtifact(ctx context.Context, in delivery.DeliverInput) (*delivery.Result, error) {
	return u.deps.Delivery.Deliver(ctx, in)
}

func (u Usecases) ResolveShareLink(ctx context.Context, token string) (*delivery.ResolvedLink, error) {
	return u.deps.Delivery.ResolveLink(ctx, token)
}

func (u Usecases) GetArtifact(ctx context.Context, orgID, id uuid.UUID) (*types.Artifact, error) {
	return u.deps.Artifacts.Get(ctx, orgID, id)
}

func (u Usecases) ListArtifacts(ctx context.Context, orgID, claimID uuid.UUID) ([]*types.Artifact, error) {
	return u.deps.Artifacts.List(ctx, orgID, claimID)
}

func (u Usecases) DeleteArtifact(ctx context.Context, orgID, id uuid.UUID) error {
	return u.deps.Artifacts.Delete(ctx, orgID, id)
}

type UpdateArtifactInput struct {
	Title       *string                    `json:"title,omitempty"`
	ContentJSON json.RawMessage            `json:"content_json,omitempty"`
	ContentText *string                    `json:"content_text,omitempty"`
	Attachments json.RawMessage            `json:"attachments,omitempty"`
	Status      *domreports.ArtifactStatus `json:"status,omitempty"`
}

// UpdateArtifact applies a partial update. Switching to content_text, or
// storing a content_json snapshot that carries a context, re-renders the
// binary so the document always matches the stored content.
func (u Usecases) UpdateArtifact(ctx context.Context, orgID, id uuid.UUID, in UpdateArtifactInput) (*types.Artifact, error) {
	if len(in.ContentJSON) > 0 && in.ContentText != nil {
		return nil, reporterr.Invalid("content", "set either content_json or content_text, not both")
	}
	if len(in.ContentJSON) > 0 && !domreports.JSONContentSet(in.ContentJSON) {
		return nil, reporterr.Invalid("content_json", "must not be null or blank")
	}
	upd := artifacts.UpdateInput{
		Title:       in.Title,
		ContentJSON: in.ContentJSON,
		ContentText: in.ContentText,
		Attachments: in.Attachments,
		Status:      in.Status,
	}
	if in.ContentText == nil && len(in.ContentJSON) == 0 {
		return u.deps.Artifacts.Update(ctx, orgID, id, upd)
	}

	ctx = context.WithoutCancel(ctx)
	cur, err := u.deps.Artifacts.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	title := cur.Title
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		title = strings.TrimSpace(*in.Title)
	}

	switch {
	case in.ContentText != nil:
		if strings.TrimSpace(*in.ContentText) == "" {
			return nil, reporterr.Invalid("content_text", "must not be empty")
		}
		merged, err := u.resolveOrDefault(ctx, orgID, cur.TemplateID)
		if err != nil {
			return nil, err
		}
		upd.Rendered, err = u.deps.Renderer.RenderText(ctx, merged, title, *in.ContentText)
		if err != nil {
			return nil, err
		}
	default:
		var snap Snapshot
		if err := json.Unmarshal(in.ContentJSON, &snap); err != nil {
			return nil, reporterr.Invalid("content_json", "not valid JSON")
		}
		if snap.Context != nil {
			tid := snap.TemplateID
			if tid == "" {
				tid = cur.TemplateID
			}
			merged, err := u.resolveOrDefault(ctx, orgID, tid)
			if err != nil {
				return nil, err
			}
			upd.Rendered, err = u.deps.Renderer.Render(ctx, merged, snap.Context, title)
			if err != nil {
				return nil, err
			}
		}
	}
	return u.deps.Artifacts.Update(ctx, orgID, id, upd)
}

// resolveOrDefault resolves a template recorded on an existing artifact.
// A template deleted since then falls back to the org default.
func (u Usecases) resolveOrDefault(ctx context.Context, orgID uuid.UUID, templateID string) (*templates.MergedTemplate, error) {
	merged, err := u.deps.Templates.Resolve(ctx, orgID, templateID)
	var tnf *reporterr.TemplateNotFoundError
	if errors.As(err, &tnf) && templateID != "" {
		u.deps.Log.Warn("Artifact template no longer resolvable, using default", "template_id", templateID)
		return u.deps.Templates.Resolve(ctx, orgID, "")
	}
	return merged, err
}

type RegenerateInput struct {
	OrgID      uuid.UUID
	ArtifactID uuid.UUID
	// TemplateID empty keeps the artifact's current template.
	TemplateID string
	ActorID    *uuid.UUID
}

// RegenerateReport rebuilds the artifact from the claim's current records
// and replaces it in place.
func (u Usecases) RegenerateReport(ctx context.Context, in RegenerateInput) (res *GenerateResult, err error) {
	ctx = context.WithoutCancel(ctx)
	cur, err := u.deps.Artifacts.Get(ctx, in.OrgID, in.ArtifactID)
	if err != nil {
		return nil, err
	}
	defer func() { u.deps.Metrics.IncGeneration(string(cur.Type), err) }()

	var merged *templates.MergedTemplate
	if tid := strings.TrimSpace(in.TemplateID); tid != "" {
		merged, err = u.deps.Templates.Resolve(ctx, in.OrgID, tid)
	} else {
		merged, err = u.resolveOrDefault(ctx, in.OrgID, cur.TemplateID)
	}
	if err != nil {
		return nil, err
	}
	built, err := u.deps.Builder.Build(ctx, in.OrgID, cur.ClaimID)
	if err != nil {
		return nil, err
	}
	out, err := u.deps.Renderer.Render(ctx, merged, built.Context, cur.Title)
	if err != nil {
		return nil, err
	}
	content, err := json.Marshal(Snapshot{
		TemplateID: merged.ID,
		Sections:   out.Sections,
		Context:    built.Context,
		Warnings:   built.Warnings,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	row, err := u.deps.Artifacts.Regenerate(ctx, in.OrgID, in.ArtifactID, artifacts.RegenerateInput{
		ContentJSON: content,
		TemplateID:  merged.ID,
		ActorID:     in.ActorID,
		Rendered:    out,
	})
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Artifact: row, Warnings: nonNilWarnings(built.Warnings), Skipped: out.Skipped}, nil
}

func (u Usecases) ListTimeline(ctx context.Context, orgID, claimID uuid.UUID) ([]*types.TimelineEvent, error) {
	dbc := dbctx.Context{Ctx: ctx}
	claim, err := u.deps.Repos.Claim.GetByID(dbc, orgID, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, reporterr.NotFound("claim", claimID)
	}
	return u.deps.Repos.Timeline.ListByClaim(dbc, orgID, claimID)
}

type SaveTemplateInput struct {
	Definition templates.Definition
	IsDefault  bool
}

// SaveTemplate validates and stores an org-custom definition, then drops
// the org's cached merged templates.
func (u Usecases) SaveTemplate(ctx context.Context, orgID uuid.UUID, in SaveTemplateInput) (*types.ReportTemplate, error) {
	def := in.Definition
	def.Name = strings.TrimSpace(def.Name)
	if err := def.Validate(u.deps.Templates.Catalog()); err != nil {
		return nil, err
	}
	row := &types.ReportTemplate{
		OrgID:     &orgID,
		Scope:     domreports.TemplateScopeOrgCustom,
		IsDefault: in.IsDefault,
	}
	def.ToRow(row)
	if err := u.deps.Repos.Template.SaveOrgTemplate(dbctx.Context{Ctx: ctx}, row); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, reporterr.Invalid("name", "a template with this name already exists")
		}
		return nil, fmt.Errorf("save template: %w", err)
	}
	u.deps.Templates.Invalidate(ctx, orgID)
	u.deps.Log.Info("Template saved", "template_id", row.ID, "org_id", orgID, "is_default", row.IsDefault)
	return row, nil
}

type BrandingPatch struct {
	CompanyName    *string `json:"company_name,omitempty"`
	LogoURL        *string `json:"logo_url,omitempty"`
	PrimaryColor   *string `json:"primary_color,omitempty"`
	SecondaryColor *string `json:"secondary_color,omitempty"`
	AccentColor    *string `json:"accent_color,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Website        *string `json:"website,omitempty"`
	Address        *string `json:"address,omitempty"`
	LicenseNumber  *string `json:"license_number,omitempty"`
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// UpdateBranding patches the org's branding row, creating it if needed.
// Cached merged templates for the org are dropped afterwards.
func (u Usecases) UpdateBranding(ctx context.Context, orgID uuid.UUID, p BrandingPatch) (*types.Branding, error) {
	for field, v := range map[string]*string{
		"primary_color":   p.PrimaryColor,
		"secondary_color": p.SecondaryColor,
		"accent_color":    p.AccentColor,
	} {
		if v != nil && *v != "" && !hexColor.MatchString(*v) {
			return nil, reporterr.Invalid(field, "must be a #RRGGBB color")
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	org, err := u.deps.Repos.Organization.GetByID(dbc, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, reporterr.NotFound("organization", orgID)
	}
	row, err := u.deps.Repos.Branding.GetByOrgID(dbc, orgID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &types.Branding{OrgID: orgID}
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	apply(&row.CompanyName, p.CompanyName)
	apply(&row.LogoURL, p.LogoURL)
	apply(&row.PrimaryColor, p.PrimaryColor)
	apply(&row.SecondaryColor, p.SecondaryColor)
	apply(&row.AccentColor, p.AccentColor)
	apply(&row.Phone, p.Phone)
	apply(&row.Email, p.Email)
	apply(&row.Website, p.Website)
	apply(&row.Address, p.Address)
	apply(&row.LicenseNumber, p.LicenseNumber)

	if err := u.deps.Repos.Branding.Upsert(dbc, row); err != nil {
		return nil, fmt.Errorf("save branding: %w", err)
	}
	u.deps.Templates.Invalidate(ctx, orgID)
	return row, nil
}

func nonNilWarnings(in []reporterr.PartialDataWarning) []reporterr.PartialDataWarning {
	if in == nil {
		return []reporterr.PartialDataWarning{}
	}
	return in
}
