package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/claims"
	"github.com/yungbote/claimpacket-backend/internal/domain/reports"
)

func SeedOrg(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Organization {
	tb.Helper()
	o := &types.Organization{Name: name}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed org: %v", err)
	}
	return o
}

func SeedBranding(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, logoURL string) *types.Branding {
	tb.Helper()
	b := &types.Branding{
		OrgID:        orgID,
		CompanyName:  "Summit Roofing",
		LogoURL:      logoURL,
		PrimaryColor: "#1F3A5F",
		Phone:        "555-0100",
		Email:        "office@summit.test",
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed branding: %v", err)
	}
	return b
}

func SeedClaim(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID) *types.Claim {
	tb.Helper()
	c := &types.Claim{
		OrgID:                 orgID,
		ClaimNumber:           "CLM-" + uuid.NewString()[:8],
		PolicyNumber:          "POL-1",
		CarrierName:           "Acme Mutual",
		LossType:              "hail",
		DateOfLoss:            PtrTime(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)),
		StagedPropertyAddress: "stale address",
		AdjusterName:          "Pat Adjuster",
		AdjusterEmail:         "adjuster@carrier.test",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed claim: %v", err)
	}
	return c
}

func SeedProperty(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, claimID uuid.UUID) *types.Property {
	tb.Helper()
	p := &types.Property{
		OrgID:      orgID,
		ClaimID:    claimID,
		Street:     "12 Elm St",
		City:       "Denver",
		State:      "CO",
		PostalCode: "80202",
		RoofType:   "asphalt shingle",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed property: %v", err)
	}
	return p
}

func SeedPhoto(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, claimID uuid.UUID, sortOrder int) *types.Media {
	tb.Helper()
	m := &types.Media{
		OrgID:     orgID,
		ClaimID:   claimID,
		Kind:      claims.MediaKindPhoto,
		URL:       "https://cdn.test/photos/" + uuid.NewString() + ".jpg",
		Caption:   "North slope",
		SortOrder: sortOrder,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed photo: %v", err)
	}
	return m
}

func SeedWeather(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, claimID uuid.UUID) *types.WeatherEvent {
	tb.Helper()
	size := 1.75
	w := &types.WeatherEvent{
		OrgID:          orgID,
		ClaimID:        claimID,
		EventDate:      time.Date(2026, 5, 3, 22, 0, 0, 0, time.UTC),
		EventType:      "hail",
		HailSizeInches: &size,
		Source:         "noaa",
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed weather: %v", err)
	}
	return w
}

func SeedFinding(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, claimID uuid.UUID, sortOrder int, statement string) *types.Finding {
	tb.Helper()
	f := &types.Finding{
		OrgID:     orgID,
		ClaimID:   claimID,
		Area:      "roof",
		Statement: statement,
		Severity:  "high",
		SortOrder: sortOrder,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed finding: %v", err)
	}
	return f
}

// SeedArtifact writes a rendered artifact directly, bypassing the store.
func SeedArtifact(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, claimID uuid.UUID, status reports.ArtifactStatus) *types.Artifact {
	tb.Helper()
	pdfURL := "memory://objects/report/" + uuid.NewString() + ".pdf"
	sum := "0000000000000000000000000000000000000000000000000000000000000000"
	a := &types.Artifact{
		OrgID:       orgID,
		ClaimID:     claimID,
		Type:        reports.ArtifactTypeInsuranceClaim,
		Status:      status,
		Title:       "Insurance claim packet",
		ContentJSON: datatypes.JSON(`{"claim":{}}`),
		PDFURL:      &pdfURL,
		Checksum:    &sum,
		SizeBytes:   1024,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed artifact: %v", err)
	}
	return a
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
