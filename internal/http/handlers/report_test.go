package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/http/response"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/platform/ctxutil"
)

// fakeReports implements only what these tests hit; anything else panics on
// the nil embedded interface.
type fakeReports struct {
	ReportService

	lastGenerate reports.GenerateInput
	lastSend     delivery.DeliverInput
	task         *types.GenerationTask
	err          error
	link         *delivery.ResolvedLink
}

func (f *fakeReports) GenerateReport(_ context.Context, in reports.GenerateInput) (*reports.GenerateResult, error) {
	f.lastGenerate = in
	if f.err != nil {
		return nil, f.err
	}
	return &reports.GenerateResult{Artifact: &types.Artifact{ID: uuid.New(), ClaimID: in.ClaimID}}, nil
}

func (f *fakeReports) StartGeneration(_ context.Context, in reports.GenerateInput) (*types.GenerationTask, error) {
	f.lastGenerate = in
	if f.err != nil {
		return nil, f.err
	}
	return f.task, nil
}

func (f *fakeReports) GetArtifact(_ context.Context, _, id uuid.UUID) (*types.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Artifact{ID: id}, nil
}

func (f *fakeReports) SendArtifact(_ context.Context, in delivery.DeliverInput) (*delivery.Result, error) {
	f.lastSend = in
	if f.err != nil {
		return nil, f.err
	}
	return &delivery.Result{ArtifactID: in.ArtifactID, RecipientType: in.RecipientType, Status: domreports.ArtifactStatusSent}, nil
}

func (f *fakeReports) ResolveShareLink(_ context.Context, _ string) (*delivery.ResolvedLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.link, nil
}

func reportRouter(svc *fakeReports, rd *ctxutil.RequestData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if rd != nil {
			c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		}
		c.Next()
	})
	h := NewReportHandler(svc)
	r.POST("/api/claims/:claimId/reports", h.Generate)
	r.GET("/api/artifacts/:artifactId", h.GetArtifact)
	r.POST("/api/artifacts/:artifactId/send", h.Send)
	r.GET("/share/packets/:token", NewShareHandler(svc).OpenPacket)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestGenerateSyncUsesCallerOrg(t *testing.T) {
	rd := &ctxutil.RequestData{OrgID: uuid.New(), UserID: uuid.New()}
	svc := &fakeReports{}
	r := reportRouter(svc, rd)
	claimID := uuid.New()

	rec := do(r, http.MethodPost, "/api/claims/"+claimID.String()+"/reports", `{"type":"insurance_claim","title":"Packet"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	in := svc.lastGenerate
	if in.OrgID != rd.OrgID || in.ClaimID != claimID {
		t.Fatalf("scope: got org=%s claim=%s", in.OrgID, in.ClaimID)
	}
	if in.Type != domreports.ArtifactType("INSURANCE_CLAIM") {
		t.Fatalf("type: got %q", in.Type)
	}
	if in.ActorID == nil || *in.ActorID != rd.UserID {
		t.Fatalf("actor: got %v", in.ActorID)
	}
}

func TestGenerateAcceptsEmptyBody(t *testing.T) {
	rd := &ctxutil.RequestData{OrgID: uuid.New()}
	svc := &fakeReports{}
	r := reportRouter(svc, rd)

	rec := do(r, http.MethodPost, "/api/claims/"+uuid.NewString()+"/reports", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if svc.lastGenerate.ActorID != nil {
		t.Fatalf("actor: want nil for a caller without a user id")
	}
}

func TestGenerateAsyncReturnsTask(t *testing.T) {
	rd := &ctxutil.RequestData{OrgID: uuid.New()}
	task := &types.GenerationTask{ID: uuid.New(), OrgID: rd.OrgID, Status: domreports.TaskStatusQueued}
	r := reportRouter(&fakeReports{task: task}, rd)

	rec := do(r, http.MethodPost, "/api/claims/"+uuid.NewString()+"/reports?async=true", `{}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: want=%d got=%d", http.StatusAccepted, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), task.ID.String()) {
		t.Fatalf("body missing task id: %s", rec.Body.String())
	}
}

func TestBadUUIDIsBadRequest(t *testing.T) {
	r := reportRouter(&fakeReports{}, &ctxutil.RequestData{OrgID: uuid.New()})

	rec := do(r, http.MethodGet, "/api/artifacts/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "invalid_artifact_id" {
		t.Fatalf("code: got %q", got)
	}
}

func TestMissingRequestDataIsUnauthorized(t *testing.T) {
	r := reportRouter(&fakeReports{}, nil)

	rec := do(r, http.MethodGet, "/api/artifacts/"+uuid.NewString(), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
}

func TestPipelineErrorsCarryDetails(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		detail [2]string
	}{
		{"not found", reporterr.NotFound("artifact", id), http.StatusNotFound, "not_found", [2]string{"id", id.String()}},
		{"upload", &reporterr.UploadError{Bucket: "b", Key: "org/k.pdf"}, http.StatusBadGateway, "upload_failed", [2]string{"key", "org/k.pdf"}},
		{"validation", reporterr.Invalid("to_address", "is required"), http.StatusBadRequest, "validation_failed", [2]string{"field", "to_address"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := reportRouter(&fakeReports{err: tc.err}, &ctxutil.RequestData{OrgID: uuid.New()})
			rec := do(r, http.MethodGet, "/api/artifacts/"+id.String(), "")
			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			apiErr := decodeError(t, rec)
			if apiErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, apiErr.Code)
			}
			if apiErr.Details[tc.detail[0]] != tc.detail[1] {
				t.Fatalf("detail %s: want=%q got=%q", tc.detail[0], tc.detail[1], apiErr.Details[tc.detail[0]])
			}
		})
	}
}

func TestSendNormalizesRecipientType(t *testing.T) {
	svc := &fakeReports{}
	r := reportRouter(svc, &ctxutil.RequestData{OrgID: uuid.New()})
	id := uuid.New()

	rec := do(r, http.MethodPost, "/api/artifacts/"+id.String()+"/send", `{"recipient_type":" Custom ","to_address":"a@b.test","attach_pdf":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if svc.lastSend.RecipientType != "custom" || svc.lastSend.ArtifactID != id || !svc.lastSend.AttachPDF {
		t.Fatalf("send input: %+v", svc.lastSend)
	}
}

func TestShareLinkRedirects(t *testing.T) {
	svc := &fakeReports{link: &delivery.ResolvedLink{PDFURL: "https://cdn.test/org/packet.pdf"}}
	r := reportRouter(svc, nil)

	rec := do(r, http.MethodGet, "/share/packets/tok", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("status: want=%d got=%d", http.StatusFound, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != svc.link.PDFURL {
		t.Fatalf("location: got %q", loc)
	}
}

func TestShareLinkUnknownIsNotFound(t *testing.T) {
	r := reportRouter(&fakeReports{err: reporterr.NotFound("share_link", nil)}, nil)

	rec := do(r, http.MethodGet, "/share/packets/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
}
