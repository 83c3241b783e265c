package org

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type OrganizationRepo interface {
	Create(dbc dbctx.Context, o *types.Organization) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error)
}

type organizationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return &organizationRepo{db: db, log: baseLog.With("repo", "OrganizationRepo")}
}

func (r *organizationRepo) Create(dbc dbctx.Context, o *types.Organization) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if o == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(o).Error
}

func (r *organizationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Organization
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type BrandingRepo interface {
	GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Branding, error)
	Upsert(dbc dbctx.Context, row *types.Branding) error
}

type brandingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandingRepo(db *gorm.DB, baseLog *logger.Logger) BrandingRepo {
	return &brandingRepo{db: db, log: baseLog.With("repo", "BrandingRepo")}
}

func (r *brandingRepo) GetByOrgID(dbc dbctx.Context, orgID uuid.UUID) (*types.Branding, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil {
		return nil, nil
	}
	var row types.Branding
	if err := t.WithContext(dbc.Ctx).Where("org_id = ?", orgID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *brandingRepo) Upsert(dbc dbctx.Context, row *types.Branding) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.OrgID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "org_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company_name", "logo_url", "primary_color", "secondary_color", "accent_color",
				"phone", "email", "website", "address", "license_number", "updated_at",
			}),
		}).
		Create(row).Error
}
