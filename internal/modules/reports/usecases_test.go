package reports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	"github.com/yungbote/claimpacket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/claims"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/artifacts"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/render"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reportctx"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/templates"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/gcp"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []delivery.Message
}

func (r *recordingTransport) Send(_ context.Context, msg delivery.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return uuid.NewString(), nil
}

// brokenBackend fails every conversion.
type brokenBackend struct{}

func (brokenBackend) Name() string { return "broken" }

func (brokenBackend) HTMLToPDF(context.Context, string) ([]byte, error) {
	return nil, errors.New("converter crashed")
}

func (brokenBackend) HTMLToPNG(context.Context, string) ([]byte, error) {
	return nil, render.ErrRasterUnsupported
}

type fixture struct {
	db     *gorm.DB
	set    repos.Set
	bucket *gcp.MemoryBucketService
	merger *templates.Merger
	runner *TaskRunner
	uc     Usecases
	org    *types.Organization
	claim  *types.Claim
}

func newFixture(t *testing.T, backend render.Backend) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	ctx := context.Background()

	org := testutil.SeedOrg(t, ctx, db, "Summit")
	testutil.SeedBranding(t, ctx, db, org.ID, "https://cdn.test/logo.png")
	claim := testutil.SeedClaim(t, ctx, db, org.ID)
	testutil.SeedProperty(t, ctx, db, org.ID, claim.ID)
	testutil.SeedWeather(t, ctx, db, org.ID, claim.ID)
	testutil.SeedPhoto(t, ctx, db, org.ID, claim.ID, 0)
	testutil.SeedFinding(t, ctx, db, org.ID, claim.ID, 0, "Hail impacts on north slope")

	cat, err := templates.DefaultCatalog()
	require.NoError(t, err)
	merger := templates.NewMerger(log, cat, set.Template, set.Branding, templates.NewMemoryCache(), nil)
	thumbs, err := render.NewThumbnailer(0, "")
	require.NoError(t, err)
	if backend == nil {
		backend = render.NewNativeBackend()
	}
	renderer := render.NewRenderer(log, render.DefaultRegistry(), backend, thumbs, nil, 10*time.Second)
	bucket := gcp.NewMemoryBucketService("https://cdn.test")
	store := artifacts.NewStore(log, db, set, bucket, nil)
	deliverySvc := delivery.NewService(log, db, set, delivery.NewLinkBuilder("https://app.test", 0), bucket, &recordingTransport{}, merger, nil)

	runner := NewTaskRunner(log, set.GenerationTask, 1, 4)
	runCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runner.Start(runCtx))
	t.Cleanup(func() {
		cancel()
		runner.Stop()
	})

	uc := New(UsecasesDeps{
		DB:        db,
		Log:       log,
		Repos:     set,
		Builder:   reportctx.NewBuilder(log, set),
		Templates: merger,
		Renderer:  renderer,
		Artifacts: store,
		Delivery:  deliverySvc,
		Tasks:     runner,
	})
	return &fixture{db: db, set: set, bucket: bucket, merger: merger, runner: runner, uc: uc, org: org, claim: claim}
}

func (f *fixture) generate(t *testing.T) *types.Artifact {
	t.Helper()
	res, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	require.NoError(t, err)
	return res.Artifact
}

func (f *fixture) artifactCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&types.Artifact{}).Where("org_id = ?", f.org.ID).Count(&n).Error)
	return n
}

func (f *fixture) stored(t *testing.T, a *types.Artifact) []byte {
	t.Helper()
	require.NotNil(t, a.StorageKey)
	rc, err := f.bucket.DownloadFile(context.Background(), gcp.BucketCategoryReport, *a.StorageKey)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	return raw
}

func TestGenerateReportPersistsFinalizedArtifact(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	require.NoError(t, err)
	a := res.Artifact

	require.Equal(t, domreports.ArtifactStatusFinalized, a.Status)
	require.Equal(t, "Insurance Claim Packet - "+f.claim.ClaimNumber, a.Title)
	require.Equal(t, templates.BuiltinID, a.TemplateID)
	require.Nil(t, a.ContentText)

	raw := f.stored(t, a)
	require.Equal(t, "%PDF-", string(raw[:5]))
	sum := sha256.Sum256(raw)
	require.Equal(t, hex.EncodeToString(sum[:]), *a.Checksum)
	require.Equal(t, int64(len(raw)), a.SizeBytes)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(a.ContentJSON, &snap))
	require.Equal(t, templates.BuiltinID, snap.TemplateID)
	require.NotEmpty(t, snap.Sections)
	require.NotNil(t, snap.Context)
	require.Equal(t, f.claim.ClaimNumber, snap.Context.Claim.Number)

	fields := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		fields = append(fields, w.Field)
	}
	require.Contains(t, fields, reportctx.FieldClient)
	require.NotContains(t, fields, reportctx.FieldPropertyAddress)

	n, err := f.set.Timeline.CountByClaimType(dbctx.Background(context.Background()), f.org.ID, f.claim.ID, claims.TimelineEventReportGenerated)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestGenerateReportAsDraft(t *testing.T) {
	f := newFixture(t, nil)
	no := false
	res, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID, Finalize: &no})
	require.NoError(t, err)
	require.Equal(t, domreports.ArtifactStatusDraft, res.Artifact.Status)
}

func TestGenerateReportForeignClaimWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	other := testutil.SeedOrg(t, context.Background(), f.db, "Other")
	_, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: other.ID, ClaimID: f.claim.ID})
	var nf *reporterr.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, 0, f.bucket.Len())
	require.Equal(t, int64(0), f.artifactCount(t))
}

func TestGenerateReportUnknownTemplate(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.uc.GenerateReport(context.Background(), GenerateInput{
		OrgID:      f.org.ID,
		ClaimID:    f.claim.ID,
		TemplateID: uuid.NewString(),
	})
	var tnf *reporterr.TemplateNotFoundError
	require.ErrorAs(t, err, &tnf)
	require.Equal(t, int64(0), f.artifactCount(t))
}

func TestGenerateReportRenderFailureLeavesNoArtifact(t *testing.T) {
	f := newFixture(t, brokenBackend{})
	_, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	var re *reporterr.RenderError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "render_failed", reporterr.Code(err))
	require.Equal(t, 0, f.bucket.Len())
	require.Equal(t, int64(0), f.artifactCount(t))
}

func TestGenerateReportUploadFailureLeavesNoArtifact(t *testing.T) {
	f := newFixture(t, nil)
	f.bucket.FailUpload = errors.New("bucket offline")
	_, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	var ue *reporterr.UploadError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, int64(0), f.artifactCount(t))
}

func TestGenerateReportSurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.uc.GenerateReport(ctx, GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Artifact.PDFURL)
}

func TestPreviewContextReportsMissingFieldsWithoutWrites(t *testing.T) {
	f := newFixture(t, nil)
	bare := testutil.SeedClaim(t, context.Background(), f.db, f.org.ID)

	p, err := f.uc.PreviewContext(context.Background(), f.org.ID, bare.ID, "")
	require.NoError(t, err)
	require.False(t, p.Ready)
	require.Contains(t, p.MissingFields, reportctx.FieldPropertyAddress)
	require.Contains(t, p.MissingFields, reportctx.FieldFindings)
	require.Equal(t, templates.BuiltinID, p.TemplateID)
	require.NotEmpty(t, p.Sections)
	require.Equal(t, int64(0), f.artifactCount(t))
	require.Equal(t, 0, f.bucket.Len())
}

func TestPreviewContextForeignClaimIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	other := testutil.SeedOrg(t, context.Background(), f.db, "Other")
	_, err := f.uc.PreviewContext(context.Background(), other.ID, f.claim.ID, "")
	var nf *reporterr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func (f *fixture) waitTask(t *testing.T, id uuid.UUID) *types.GenerationTask {
	t.Helper()
	var task *types.GenerationTask
	require.Eventually(t, func() bool {
		got, err := f.uc.GetGenerationTask(context.Background(), f.org.ID, id)
		if err != nil {
			return false
		}
		task = got
		return got.Done()
	}, 10*time.Second, 20*time.Millisecond)
	return task
}

func TestStartGenerationSucceeds(t *testing.T) {
	f := newFixture(t, nil)
	task, err := f.uc.StartGeneration(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	require.NoError(t, err)
	require.Equal(t, domreports.TaskStatusQueued, task.Status)

	done := f.waitTask(t, task.ID)
	require.Equal(t, domreports.TaskStatusSucceeded, done.Status)
	require.NotNil(t, done.ArtifactID)
	require.NotNil(t, done.FinishedAt)

	a, err := f.uc.GetArtifact(context.Background(), f.org.ID, *done.ArtifactID)
	require.NoError(t, err)
	require.Equal(t, f.claim.ID, a.ClaimID)

	other := testutil.SeedOrg(t, context.Background(), f.db, "Other")
	_, err = f.uc.GetGenerationTask(context.Background(), other.ID, task.ID)
	var nf *reporterr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestStartGenerationFailureRecordsCode(t *testing.T) {
	f := newFixture(t, brokenBackend{})
	task, err := f.uc.StartGeneration(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	require.NoError(t, err)

	done := f.waitTask(t, task.ID)
	require.Equal(t, domreports.TaskStatusFailed, done.Status)
	require.Equal(t, "render_failed", done.ErrorCode)
	require.Nil(t, done.ArtifactID)
	require.Equal(t, int64(0), f.artifactCount(t))
}

func TestStartGenerationForeignClaimFailsSynchronously(t *testing.T) {
	f := newFixture(t, nil)
	other := testutil.SeedOrg(t, context.Background(), f.db, "Other")
	_, err := f.uc.StartGeneration(context.Background(), GenerateInput{OrgID: other.ID, ClaimID: f.claim.ID})
	var nf *reporterr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSendThenRegenerateKeepsSent(t *testing.T) {
	f := newFixture(t, nil)
	a := f.generate(t)

	res, err := f.uc.SendArtifact(context.Background(), delivery.DeliverInput{
		OrgID:         f.org.ID,
		ArtifactID:    a.ID,
		RecipientType: domreports.RecipientAdjuster,
		ToAddress:     "adjuster@carrier.test",
		Subject:       "Packet",
		Message:       "Attached.",
	})
	require.NoError(t, err)
	require.Equal(t, domreports.ArtifactStatusSent, res.Status)

	regen, err := f.uc.RegenerateReport(context.Background(), RegenerateInput{OrgID: f.org.ID, ArtifactID: a.ID})
	require.NoError(t, err)
	require.Equal(t, a.ID, regen.Artifact.ID)
	require.Equal(t, domreports.ArtifactStatusSent, regen.Artifact.Status)
	require.NotEqual(t, *a.StorageKey, *regen.Artifact.StorageKey)
	require.False(t, f.bucket.Has(gcp.BucketCategoryReport, *a.StorageKey))

	events, err := f.uc.ListTimeline(context.Background(), f.org.ID, f.claim.ID)
	require.NoError(t, err)
	kinds := make([]string, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Type)
	}
	require.Equal(t, []string{
		claims.TimelineEventReportGenerated,
		claims.TimelineEventEmailSent,
		claims.TimelineEventReportRegenerated,
	}, kinds)
}

func TestUpdateArtifactSwitchesToTextAndRerenders(t *testing.T) {
	f := newFixture(t, nil)
	a := f.generate(t)

	body := "# Supplement\n\nAdditional **damage** found on the garage."
	got, err := f.uc.UpdateArtifact(context.Background(), f.org.ID, a.ID, UpdateArtifactInput{ContentText: &body})
	require.NoError(t, err)
	require.NotNil(t, got.ContentText)
	require.Equal(t, body, *got.ContentText)
	require.False(t, got.HasContentJSON())
	require.NotEqual(t, *a.Checksum, *got.Checksum)
	require.Equal(t, "%PDF-", string(f.stored(t, got)[:5]))

	_, err = f.uc.UpdateArtifact(context.Background(), f.org.ID, a.ID, UpdateArtifactInput{
		ContentText: &body,
		ContentJSON: json.RawMessage(`{}`),
	})
	var ve *reporterr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUpdateArtifactRejectsNullContentJSON(t *testing.T) {
	f := newFixture(t, nil)
	a := f.generate(t)

	_, err := f.uc.UpdateArtifact(context.Background(), f.org.ID, a.ID, UpdateArtifactInput{ContentJSON: json.RawMessage(`null`)})
	var ve *reporterr.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "content_json", ve.Field)

	got, err := f.uc.GetArtifact(context.Background(), f.org.ID, a.ID)
	require.NoError(t, err)
	require.True(t, got.HasContentJSON())
	require.Equal(t, *a.Checksum, *got.Checksum)
}

func TestUpdateArtifactCrossTenantIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	a := f.generate(t)
	other := testutil.SeedOrg(t, context.Background(), f.db, "Other")
	title := "Hijacked"

	_, err := f.uc.UpdateArtifact(context.Background(), other.ID, a.ID, UpdateArtifactInput{Title: &title})
	var nf *reporterr.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.ErrorAs(t, f.uc.DeleteArtifact(context.Background(), other.ID, a.ID), &nf)

	still, err := f.uc.GetArtifact(context.Background(), f.org.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Title, still.Title)
}

func TestSaveTemplateBecomesOrgDefault(t *testing.T) {
	f := newFixture(t, nil)
	before, err := f.merger.Resolve(context.Background(), f.org.ID, "")
	require.NoError(t, err)
	require.Equal(t, templates.BuiltinID, before.ID)

	_, err = f.uc.SaveTemplate(context.Background(), f.org.ID, SaveTemplateInput{
		Definition: templates.Definition{Name: "Bad", SectionOrder: []string{"cover", "no_such_section"}},
	})
	var ve *reporterr.ValidationError
	require.ErrorAs(t, err, &ve)

	row, err := f.uc.SaveTemplate(context.Background(), f.org.ID, SaveTemplateInput{
		Definition: templates.Definition{Name: "Short", SectionOrder: []string{"cover", "findings"}},
		IsDefault:  true,
	})
	require.NoError(t, err)

	res, err := f.uc.GenerateReport(context.Background(), GenerateInput{OrgID: f.org.ID, ClaimID: f.claim.ID})
	require.NoError(t, err)
	require.Equal(t, row.ID.String(), res.Artifact.TemplateID)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(res.Artifact.ContentJSON, &snap))
	require.Equal(t, []string{"cover", "findings"}, snap.Sections[:2])
}

func TestUpdateBrandingInvalidatesCachedTemplates(t *testing.T) {
	f := newFixture(t, nil)
	before, err := f.merger.Resolve(context.Background(), f.org.ID, "")
	require.NoError(t, err)
	require.Equal(t, "Summit Roofing", before.Branding.CompanyName)

	name := "Summit Exteriors"
	_, err = f.uc.UpdateBranding(context.Background(), f.org.ID, BrandingPatch{CompanyName: &name})
	require.NoError(t, err)

	after, err := f.merger.Resolve(context.Background(), f.org.ID, "")
	require.NoError(t, err)
	require.Equal(t, name, after.Branding.CompanyName)

	bad := "blue"
	_, err = f.uc.UpdateBranding(context.Background(), f.org.ID, BrandingPatch{PrimaryColor: &bad})
	var ve *reporterr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestListArtifactsNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	first := f.generate(t)
	time.Sleep(5 * time.Millisecond)
	second := f.generate(t)

	rows, err := f.uc.ListArtifacts(context.Background(), f.org.ID, f.claim.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, second.ID, rows[0].ID)
	require.Equal(t, first.ID, rows[1].ID)
}
