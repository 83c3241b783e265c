package org

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/claimpacket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
)

func TestBrandingRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewBrandingRepo(db, testutil.Logger(t))
	dbc := dbctx.Background(ctx)

	o1 := testutil.SeedOrg(t, ctx, db, "O1")

	if got, err := repo.GetByOrgID(dbc, o1.ID); err != nil || got != nil {
		t.Fatalf("GetByOrgID empty: got=%v err=%v", got, err)
	}
	if err := repo.Upsert(dbc, &types.Branding{OrgID: o1.ID, CompanyName: "Summit"}); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if err := repo.Upsert(dbc, &types.Branding{OrgID: o1.ID, CompanyName: "Summit Roofing", LogoURL: "https://cdn.test/logo.png"}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err := repo.GetByOrgID(dbc, o1.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByOrgID: got=%v err=%v", got, err)
	}
	if got.CompanyName != "Summit Roofing" || got.LogoURL != "https://cdn.test/logo.png" {
		t.Fatalf("branding after upsert: got=%+v", got)
	}
	var n int64
	if err := db.Model(&types.Branding{}).Where("org_id = ?", o1.ID).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("branding rows: want=1 got=%d err=%v", n, err)
	}
}

func TestOrganizationRepoGetByID(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewOrganizationRepo(db, testutil.Logger(t))
	dbc := dbctx.Background(ctx)

	o := &types.Organization{Name: "Summit"}
	if err := repo.Create(dbc, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(dbc, o.ID)
	if err != nil || got == nil || got.Name != "Summit" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: got=%v err=%v", missing, err)
	}
}
