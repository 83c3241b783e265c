package claims

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type ClaimRepo interface {
	Create(dbc dbctx.Context, claim *types.Claim) error
	// GetByID returns nil, nil when the claim is absent or belongs to
	// another org.
	GetByID(dbc dbctx.Context, orgID, claimID uuid.UUID) (*types.Claim, error)
	MarkPacketSent(dbc dbctx.Context, orgID, claimID uuid.UUID, recipientType string, at time.Time) error
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	return &claimRepo{db: db, log: baseLog.With("repo", "ClaimRepo")}
}

func (r *claimRepo) Create(dbc dbctx.Context, claim *types.Claim) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if claim == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(claim).Error
}

func (r *claimRepo) GetByID(dbc dbctx.Context, orgID, claimID uuid.UUID) (*types.Claim, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return nil, nil
	}
	var row types.Claim
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND org_id = ?", claimID, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// MarkPacketSent stamps the recipient-specific sent-at column and
// last_contacted_at. Custom recipients only move last_contacted_at.
func (r *claimRepo) MarkPacketSent(dbc dbctx.Context, orgID, claimID uuid.UUID, recipientType string, at time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	updates := map[string]interface{}{
		"last_contacted_at": at,
		"updated_at":        at,
	}
	switch recipientType {
	case reports.RecipientAdjuster:
		updates["adjuster_packet_sent_at"] = at
	case reports.RecipientHomeowner:
		updates["homeowner_packet_sent_at"] = at
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Claim{}).
		Where("id = ? AND org_id = ?", claimID, orgID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("claim %s not found for org", claimID)
	}
	return nil
}
