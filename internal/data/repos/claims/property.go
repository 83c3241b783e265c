package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type ClientRepo interface {
	GetByID(dbc dbctx.Context, orgID, clientID uuid.UUID) (*types.Client, error)
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{db: db, log: baseLog.With("repo", "ClientRepo")}
}

func (r *clientRepo) GetByID(dbc dbctx.Context, orgID, clientID uuid.UUID) (*types.Client, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || clientID == uuid.Nil {
		return nil, nil
	}
	var row types.Client
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND org_id = ?", clientID, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type PropertyRepo interface {
	GetByClaimID(dbc dbctx.Context, orgID, claimID uuid.UUID) (*types.Property, error)
}

type propertyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPropertyRepo(db *gorm.DB, baseLog *logger.Logger) PropertyRepo {
	return &propertyRepo{db: db, log: baseLog.With("repo", "PropertyRepo")}
}

func (r *propertyRepo) GetByClaimID(dbc dbctx.Context, orgID, claimID uuid.UUID) (*types.Property, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return nil, nil
	}
	var row types.Property
	if err := t.WithContext(dbc.Ctx).
		Where("claim_id = ? AND org_id = ?", claimID, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
