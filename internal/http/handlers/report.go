package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/http/response"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
	"github.com/yungbote/claimpacket-backend/internal/platform/ctxutil"
)

// ReportService is the slice of reports.Usecases the HTTP surface calls.
type ReportService interface {
	GenerateReport(ctx context.Context, in reports.GenerateInput) (*reports.GenerateResult, error)
	StartGeneration(ctx context.Context, in reports.GenerateInput) (*types.GenerationTask, error)
	GetGenerationTask(ctx context.Context, orgID, taskID uuid.UUID) (*types.GenerationTask, error)
	PreviewContext(ctx context.Context, orgID, claimID uuid.UUID, templateID string) (*reports.Preview, error)
	ListArtifacts(ctx context.Context, orgID, claimID uuid.UUID) ([]*types.Artifact, error)
	ListTimeline(ctx context.Context, orgID, claimID uuid.UUID) ([]*types.TimelineEvent, error)
	GetArtifact(ctx context.Context, orgID, id uuid.UUID) (*types.Artifact, error)
	UpdateArtifact(ctx context.Context, orgID, id uuid.UUID, in reports.UpdateArtifactInput) (*types.Artifact, error)
	DeleteArtifact(ctx context.Context, orgID, id uuid.UUID) error
	RegenerateReport(ctx context.Context, in reports.RegenerateInput) (*reports.GenerateResult, error)
	SendArtifact(ctx context.Context, in delivery.DeliverInput) (*delivery.Result, error)
	SaveTemplate(ctx context.Context, orgID uuid.UUID, in reports.SaveTemplateInput) (*types.ReportTemplate, error)
	UpdateBranding(ctx context.Context, orgID uuid.UUID, p reports.BrandingPatch) (*types.Branding, error)
}

type ReportHandler struct {
	reports ReportService
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{reports: svc}
}

func requestData(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.OrgID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	return rd, true
}

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func actor(rd *ctxutil.RequestData) *uuid.UUID {
	if rd.UserID == uuid.Nil {
		return nil
	}
	id := rd.UserID
	return &id
}

type generateRequest struct {
	Type       string `json:"type"`
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	Finalize   *bool  `json:"finalize"`
}

// POST /api/claims/:claimId/reports
func (h *ReportHandler) Generate(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	claimID, ok := uuidParam(c, "claimId", "invalid_claim_id")
	if !ok {
		return
	}
	var req generateRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := reports.GenerateInput{
		OrgID:      rd.OrgID,
		ClaimID:    claimID,
		Type:       domreports.ArtifactType(strings.ToUpper(strings.TrimSpace(req.Type))),
		TemplateID: req.TemplateID,
		Title:      req.Title,
		ActorID:    actor(rd),
		Finalize:   req.Finalize,
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		task, err := h.reports.StartGeneration(c.Request.Context(), in)
		if err != nil {
			response.RespondPipelineError(c, err)
			return
		}
		response.RespondAccepted(c, gin.H{"task": task})
		return
	}

	res, err := h.reports.GenerateReport(c.Request.Context(), in)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/claims/:claimId/reports/preview
func (h *ReportHandler) Preview(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	claimID, ok := uuidParam(c, "claimId", "invalid_claim_id")
	if !ok {
		return
	}
	p, err := h.reports.PreviewContext(c.Request.Context(), rd.OrgID, claimID, c.Query("templateId"))
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/claims/:claimId/reports
func (h *ReportHandler) ListArtifacts(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	claimID, ok := uuidParam(c, "claimId", "invalid_claim_id")
	if !ok {
		return
	}
	rows, err := h.reports.ListArtifacts(c.Request.Context(), rd.OrgID, claimID)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"artifacts": rows})
}

// GET /api/claims/:claimId/timeline
func (h *ReportHandler) ListTimeline(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	claimID, ok := uuidParam(c, "claimId", "invalid_claim_id")
	if !ok {
		return
	}
	events, err := h.reports.ListTimeline(c.Request.Context(), rd.OrgID, claimID)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// GET /api/report-tasks/:taskId
func (h *ReportHandler) GetTask(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "taskId", "invalid_task_id")
	if !ok {
		return
	}
	task, err := h.reports.GetGenerationTask(c.Request.Context(), rd.OrgID, taskID)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"task": task})
}

// GET /api/artifacts/:artifactId
func (h *ReportHandler) GetArtifact(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "artifactId", "invalid_artifact_id")
	if !ok {
		return
	}
	a, err := h.reports.GetArtifact(c.Request.Context(), rd.OrgID, id)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"artifact": a})
}

// PATCH /api/artifacts/:artifactId
func (h *ReportHandler) UpdateArtifact(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "artifactId", "invalid_artifact_id")
	if !ok {
		return
	}
	var req reports.UpdateArtifactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Status != nil {
		s := domreports.ArtifactStatus(strings.ToUpper(string(*req.Status)))
		req.Status = &s
	}
	a, err := h.reports.UpdateArtifact(c.Request.Context(), rd.OrgID, id, req)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"artifact": a})
}

// DELETE /api/artifacts/:artifactId
func (h *ReportHandler) DeleteArtifact(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "artifactId", "invalid_artifact_id")
	if !ok {
		return
	}
	if err := h.reports.DeleteArtifact(c.Request.Context(), rd.OrgID, id); err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/artifacts/:artifactId/regenerate
func (h *ReportHandler) Regenerate(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "artifactId", "invalid_artifact_id")
	if !ok {
		return
	}
	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.reports.RegenerateReport(c.Request.Context(), reports.RegenerateInput{
		OrgID:      rd.OrgID,
		ArtifactID: id,
		TemplateID: req.TemplateID,
		ActorID:    actor(rd),
	})
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type sendRequest struct {
	RecipientType string   `json:"recipient_type"`
	ToAddress     string   `json:"to_address"`
	CC            []string `json:"cc"`
	Subject       string   `json:"subject"`
	Message       string   `json:"message"`
	AttachPDF     bool     `json:"attach_pdf"`
}

// POST /api/artifacts/:artifactId/send
func (h *ReportHandler) Send(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "artifactId", "invalid_artifact_id")
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.reports.SendArtifact(c.Request.Context(), delivery.DeliverInput{
		OrgID:         rd.OrgID,
		ArtifactID:    id,
		RecipientType: strings.ToLower(strings.TrimSpace(req.RecipientType)),
		ToAddress:     req.ToAddress,
		CC:            req.CC,
		Subject:       req.Subject,
		Message:       req.Message,
		AttachPDF:     req.AttachPDF,
		ActorID:       actor(rd),
	})
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"delivery": res})
}

type saveTemplateRequest struct {
	Name           string                      `json:"name"`
	ArtifactType   string                      `json:"artifact_type"`
	SectionOrder   []string                    `json:"section_order"`
	SectionEnabled map[string]bool             `json:"section_enabled"`
	Defaults       domreports.TemplateDefaults `json:"defaults"`
	IsDefault      bool                        `json:"is_default"`
}

// PUT /api/templates
func (h *ReportHandler) SaveTemplate(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	row, err := h.reports.SaveTemplate(c.Request.Context(), rd.OrgID, reports.SaveTemplateInput{
		Definition: templates.Definition{
			Name:           req.Name,
			Scope:          domreports.TemplateScopeOrgCustom,
			ArtifactType:   req.ArtifactType,
			SectionOrder:   req.SectionOrder,
			SectionEnabled: req.SectionEnabled,
			Defaults:       req.Defaults,
		},
		IsDefault: req.IsDefault,
	})
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": row})
}

// PATCH /api/branding
func (h *ReportHandler) UpdateBranding(c *gin.Context) {
	rd, ok := requestData(c)
	if !ok {
		return
	}
	var patch reports.BrandingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	b, err := h.reports.UpdateBranding(c.Request.Context(), rd.OrgID, patch)
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branding": b})
}
