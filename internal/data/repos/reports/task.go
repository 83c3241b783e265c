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

type GenerationTaskRepo interface {
	Create(dbc dbctx.Context, task *types.GenerationTask) error
	GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*types.GenerationTask, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// FailUnfinished marks every queued or running task failed. Called once at
	// startup, when no runner can still own them.
	FailUnfinished(dbc dbctx.Context, code, message string) (int64, error)
}

type generationTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationTaskRepo(db *gorm.DB, baseLog *logger.Logger) GenerationTaskRepo {
	return &generationTaskRepo{db: db, log: baseLog.With("repo", "GenerationTaskRepo")}
}

func (r *generationTaskRepo) Create(dbc dbctx.Context, task *types.GenerationTask) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if task == nil {
		return nil
	}
	if task.Status == "" {
		task.Status = domreports.TaskStatusQueued
	}
	return t.WithContext(dbc.Ctx).Create(task).Error
}

func (r *generationTaskRepo) GetByID(dbc dbctx.Context, orgID, id uuid.UUID) (*types.GenerationTask, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if orgID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var row types.GenerationTask
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *generationTaskRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.GenerationTask{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *generationTaskRepo) FailUnfinished(dbc dbctx.Context, code, message string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	res := t.WithContext(dbc.Ctx).
		Model(&types.GenerationTask{}).
		Where("status IN ?", []string{domreports.TaskStatusQueued, domreports.TaskStatusRunning}).
		Updates(map[string]interface{}{
			"status":        domreports.TaskStatusFailed,
			"error_code":    code,
			"error_message": message,
			"finished_at":   now,
			"updated_at":    now,
		})
	return res.RowsAffected, res.Error
}
