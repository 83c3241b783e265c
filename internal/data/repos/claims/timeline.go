package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

// TimelineEventRepo has no update or delete; events are append-only.
type TimelineEventRepo interface {
	Append(dbc dbctx.Context, ev *types.TimelineEvent) error
	ListByClaim(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.TimelineEvent, error)
	CountByClaimType(dbc dbctx.Context, orgID, claimID uuid.UUID, eventType string) (int64, error)
}

type timelineEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimelineEventRepo(db *gorm.DB, baseLog *logger.Logger) TimelineEventRepo {
	return &timelineEventRepo{db: db, log: baseLog.With("repo", "TimelineEventRepo")}
}

func (r *timelineEventRepo) Append(dbc dbctx.Context, ev *types.TimelineEvent) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if ev == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(ev).Error
}

func (r *timelineEventRepo) ListByClaim(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.TimelineEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.TimelineEvent
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("claim_id = ? AND org_id = ?", claimID, orgID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *timelineEventRepo) CountByClaimType(dbc dbctx.Context, orgID, claimID uuid.UUID, eventType string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	q := t.WithContext(dbc.Ctx).
		Model(&types.TimelineEvent{}).
		Where("claim_id = ? AND org_id = ?", claimID, orgID)
	if eventType != "" {
		q = q.Where("type = ?", eventType)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
