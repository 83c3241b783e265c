package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimpacket-backend/internal/domain"
	domreports "github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

// ArtifactRepo scopes every lookup and write by org, and by a live parent
// claim in that same org. A row that fails either check is reported exactly
// like a missing row.
type ArtifactRepo interface {
	Create(dbc dbctx.Context, a *types.Artifact) error
	GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*types.Artifact, error)
	ListByClaim(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.Artifact, error)
	UpdateFields(dbc dbctx.Context, orgID, id uuid.UUID, updates map[string]interface{}) (bool, error)
	// AdvanceStatus moves the row to target only if its current status is at
	// or below target. It reports whether the row is now at target.
	AdvanceStatus(dbc dbctx.Context, orgID, id uuid.UUID, target domreports.ArtifactStatus) (bool, error)
	SoftDelete(dbc dbctx.Context, orgID, id uuid.UUID) (bool, error)
}

const liveClaimInOrg = "report_artifact.claim_id IN (SELECT claim.id FROM claim WHERE claim.org_id = ? AND claim.deleted_at IS NULL)"

type artifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return &artifactRepo{db: db, log: baseLog.With("repo", "ArtifactRepo")}
}

func (r *artifactRepo) Create(dbc dbctx.Context, a *types.Artifact) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if a == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Create(a).Error
}

func (r *artifactRepo) GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*types.Artifact, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var row types.Artifact
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Where(liveClaimInOrg, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *artifactRepo) ListByClaim(dbc dbctx.Context, orgID, claimID uuid.UUID) ([]*types.Artifact, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Artifact
	if orgID == uuid.Nil || claimID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("claim_id = ? AND org_id = ?", claimID, orgID).
		Where(liveClaimInOrg, orgID).
		Order("created_at DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artifactRepo) UpdateFields(dbc dbctx.Context, orgID, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Artifact{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Where(liveClaimInOrg, orgID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *artifactRepo) AdvanceStatus(dbc dbctx.Context, orgID, id uuid.UUID, target domreports.ArtifactStatus) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	allowed := domreports.StatusesBelowOrAt(target)
	if orgID == uuid.Nil || id == uuid.Nil || len(allowed) == 0 {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Artifact{}).
		Where("id = ? AND org_id = ? AND status IN ?", id, orgID, allowed).
		Where(liveClaimInOrg, orgID).
		Updates(map[string]interface{}{
			"status":     target,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *artifactRepo) SoftDelete(dbc dbctx.Context, orgID, id uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Where(liveClaimInOrg, orgID).
		Delete(&types.Artifact{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
