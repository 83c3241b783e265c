package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return err
	}
	return EnsureReportIndexes(db)
}

// EnsureReportIndexes adds the partial indexes AutoMigrate cannot express.
// Both Postgres and SQLite accept partial index syntax.
func EnsureReportIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_report_template_org_default",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_report_template_org_default
				ON report_template(org_id)
				WHERE is_default = true AND deleted_at IS NULL`,
		},
		{
			name: "idx_report_template_org_name",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_report_template_org_name
				ON report_template(org_id, name)
				WHERE deleted_at IS NULL`,
		},
		{
			name: "idx_timeline_claim_created",
			sql: `CREATE INDEX IF NOT EXISTS idx_timeline_claim_created
				ON claim_timeline_event(claim_id, created_at)`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
