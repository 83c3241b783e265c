package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type ShareLinkRepo interface {
	Create(dbc dbctx.Context, link *types.ShareLink) error
	GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.ShareLink, error)
	ListByArtifact(dbc dbctx.Context, orgID, artifactID uuid.UUID) ([]*types.ShareLink, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	RecordAccess(dbc dbctx.Context, id uuid.UUID, at time.Time) error
}

type shareLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShareLinkRepo(db *gorm.DB, baseLog *logger.Logger) ShareLinkRepo {
	return &shareLinkRepo{db: db, log: baseLog.With("repo", "ShareLinkRepo")}
}

func (r *shareLinkRepo) Create(dbc dbctx.Context, link *types.ShareLink) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if link == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(link).Error
}

func (r *shareLinkRepo) GetByTokenHash(dbc dbctx.Context, tokenHash string) (*types.ShareLink, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if tokenHash == "" {
		return nil, nil
	}
	var row types.ShareLink
	if err := t.WithContext(dbc.Ctx).
		Where("token_hash = ?", tokenHash).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *shareLinkRepo) ListByArtifact(dbc dbctx.Context, orgID, artifactID uuid.UUID) ([]*types.ShareLink, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ShareLink
	if orgID == uuid.Nil || artifactID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("artifact_id = ? AND org_id = ?", artifactID, orgID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shareLinkRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.ShareLink{}).Error
}

func (r *shareLinkRepo) RecordAccess(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.ShareLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": at,
		}).Error
}
