package reports

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type ReportTemplateRepo interface {
	// GetVisible returns a marketplace template or one of orgID's own.
	GetVisible(dbc dbctx.Context, orgID, id uuid.UUID) (*types.ReportTemplate, error)
	GetOrgDefault(dbc dbctx.Context, orgID uuid.UUID) (*types.ReportTemplate, error)
	ListByOrg(dbc dbctx.Context, orgID uuid.UUID) ([]*types.ReportTemplate, error)
	// SaveOrgTemplate inserts or replaces the org's template with the same
	// name. When row.IsDefault is set every other org template loses the flag.
	SaveOrgTemplate(dbc dbctx.Context, row *types.ReportTemplate) error
	CreateMarketplace(dbc dbctx.Context, row *types.ReportTemplate) error
}

type reportTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportTemplateRepo(db *gorm.DB, baseLog *logger.Logger) ReportTemplateRepo {
	return &reportTemplateRepo{db: db, log: baseLog.With("repo", "ReportTemplateRepo")}
}

func (r *reportTemplateRepo) GetVisible(dbc dbctx.Context, orgID, id uuid.UUID) (*types.ReportTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ReportTemplate
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Where("scope = ? OR (scope = ? AND org_id = ?)",
			domreports.TemplateScopeMarketplace, domreports.TemplateScopeOrgCustom, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *reportTemplateRepo) GetOrgDefault(dbc dbctx.Context, orgID uuid.UUID) (*types.ReportTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil {
		return nil, nil
	}
	var row types.ReportTemplate
	if err := t.WithContext(dbc.Ctx).
		Where("org_id = ? AND scope = ? AND is_default = ?", orgID, domreports.TemplateScopeOrgCustom, true).
		Order("updated_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *reportTemplateRepo) ListByOrg(dbc dbctx.Context, orgID uuid.UUID) ([]*types.ReportTemplate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ReportTemplate
	if orgID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("org_id = ? AND scope = ?", orgID, domreports.TemplateScopeOrgCustom).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportTemplateRepo) SaveOrgTemplate(dbc dbctx.Context, row *types.ReportTemplate) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.OrgID == nil || *row.OrgID == uuid.Nil {
		return errors.New("org template requires an org id")
	}
	row.Scope = domreports.TemplateScopeOrgCustom
	return t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		now := time.Now().UTC()
		if row.IsDefault {
			if err := txx.Model(&types.ReportTemplate{}).
				Where("org_id = ? AND name <> ? AND is_default = ?", *row.OrgID, row.Name, true).
				Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		var existing types.ReportTemplate
		if err := txx.Where("org_id = ? AND name = ?", *row.OrgID, row.Name).
			Limit(1).
			Find(&existing).Error; err != nil {
			return err
		}
		if existing.ID == uuid.Nil {
			return txx.Create(row).Error
		}
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = now
		return txx.Model(&types.ReportTemplate{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"artifact_type":   row.ArtifactType,
				"section_order":   row.SectionOrder,
				"section_enabled": row.SectionEnabled,
				"defaults":        row.Defaults,
				"is_default":      row.IsDefault,
				"updated_at":      now,
			}).Error
	})
}

func (r *reportTemplateRepo) CreateMarketplace(dbc dbctx.Context, row *types.ReportTemplate) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	row.Scope = domreports.TemplateScopeMarketplace
	row.OrgID = nil
	row.IsDefault = false
	return t.WithContext(dbc.Ctx).Create(row).Error
}
