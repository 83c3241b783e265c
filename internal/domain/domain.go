package domain

import (
	"github.com/yungbote/claimpacket-backend/internal/domain/claims"
	"github.com/yungbote/claimpacket-backend/internal/domain/org"
	"github.com/yungbote/claimpacket-backend/internal/domain/reports"
)

type (
	Claim         = claims.Claim
	Client        = claims.Client
	Property      = claims.Property
	WeatherEvent  = claims.WeatherEvent
	Media         = claims.Media
	Finding       = claims.Finding
	Note          = claims.Note
	Estimate      = claims.Estimate
	TimelineEvent = claims.TimelineEvent

	Organization = org.Organization
	Branding     = org.Branding

	Artifact       = reports.Artifact
	ReportTemplate = reports.ReportTemplate
	GenerationTask = reports.GenerationTask
	ShareLink      = reports.ShareLink
)

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Organization{},
		&Branding{},
		&Client{},
		&Claim{},
		&Property{},
		&WeatherEvent{},
		&Media{},
		&Finding{},
		&Note{},
		&Estimate{},
		&TimelineEvent{},
		&ReportTemplate{},
		&Artifact{},
		&GenerationTask{},
		&ShareLink{},
	}
}
