package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

// ClaimRecordRepo reads the per-claim collections a report draws on. Every
// list is org-scoped and returned in presentation order.
type ClaimRecordRepo interface {
	ListWeather(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.WeatherEvent, error)
	ListMedia(dbc dbctx.Context, orgID, claimID uuid.UUID, kind string) ([]*types.Media, error)
	ListFindings(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.Finding, error)
	ListNotes(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.Note, error)
	LatestEstimate(dbc dbctx.Context, orgID, claimID uuid.UUID) (*types.Estimate, error)
}

type claimRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRecordRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRecordRepo {
	return &claimRecordRepo{db: db, log: baseLog.With("repo", "ClaimRecordRepo")}
}

func (r *claimRecordRepo) scoped(dbc dbctx.Context, orgID, claimID uuid.UUID) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Where("claim_id = ? AND org_id = ?", claimID, orgID)
}

func (r *claimRecordRepo) ListWeather(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.WeatherEvent, error) {
	var out []*types.WeatherEvent
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return out, nil
	}
	if err := r.scoped(dbc, orgID, claimID).
		Order("event_date ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *claimRecordRepo) ListMedia(dbc dbctx.Context, orgID, claimID uuid.UUID, kind string) ([]*types.Media, error) {
	var out []*types.Media
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return out, nil
	}
	q := r.scoped(dbc, orgID, claimID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("sort_order ASC, created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *claimRecordRepo) ListFindings(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.Finding, error) {
	var out []*types.Finding
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return out, nil
	}
	if err := r.scoped(dbc, orgID, claimID).
		Order("sort_order ASC, created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *claimRecordRepo) ListNotes(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.Note, error) {
	var out []*types.Note
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return out, nil
	}
	if err := r.scoped(dbc, orgID, claimID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *claimRecordRepo) LatestEstimate(dbc dbctx.Context, orgID, claimID uuid.UUID) (*types.Estimate, error) {
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return nil, nil
	}
	var row types.Estimate
	if err := r.scoped(dbc, orgID, claimID).
		Order("version DESC, created_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
