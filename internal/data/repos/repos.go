package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/claimpacket-backend/internal/data/repos/claims"
	"github.com/yungbote/claimpacket-backend/internal/data/repos/org"
	"github.com/yungbote/claimpacket-backend/internal/data/repos/reports"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type ClaimRepo = claims.ClaimRepo
type ClientRepo = claims.ClientRepo
type PropertyRepo = claims.PropertyRepo
type ClaimRecordRepo = claims.ClaimRecordRepo
type TimelineEventRepo = claims.TimelineEventRepo

type OrganizationRepo = org.OrganizationRepo
type BrandingRepo = org.BrandingRepo

type ArtifactRepo = reports.ArtifactRepo
type ReportTemplateRepo = reports.ReportTemplateRepo
type GenerationTaskRepo = reports.GenerationTaskRepo
type ShareLinkRepo = reports.ShareLinkRepo

// Set is every repository the report pipeline reads or writes, built over
// one *gorm.DB.
type Set struct {
	Claim          ClaimRepo
	Client         ClientRepo
	Property       PropertyRepo
	ClaimRecord    ClaimRecordRepo
	Timeline       TimelineEventRepo
	Organization   OrganizationRepo
	Branding       BrandingRepo
	Artifact       ArtifactRepo
	Template       ReportTemplateRepo
	GenerationTask GenerationTaskRepo
	ShareLink      ShareLinkRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Claim:          claims.NewClaimRepo(db, log),
		Client:         claims.NewClientRepo(db, log),
		Property:       claims.NewPropertyRepo(db, log),
		ClaimRecord:    claims.NewClaimRecordRepo(db, log),
		Timeline:       claims.NewTimelineEventRepo(db, log),
		Organization:   org.NewOrganizationRepo(db, log),
		Branding:       org.NewBrandingRepo(db, log),
		Artifact:       reports.NewArtifactRepo(db, log),
		Template:       reports.NewReportTemplateRepo(db, log),
		GenerationTask: reports.NewGenerationTaskRepo(db, log),
		ShareLink:      reports.NewShareLinkRepo(db, log),
	}
}
