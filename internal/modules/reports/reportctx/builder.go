// Package reportctx gathers a claim's scattered records into one
// ReportContext. Building is a pure read.
package reportctx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/claims"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

// Missing field names reported in warnings.
const (
	FieldPropertyAddress = "property.address"
	FieldCompanyName     = "company.name"
	FieldCompanyLogo     = "company.logo"
	FieldClient          = "client"
	FieldWeatherEvents   = "weather.events"
	FieldMediaPhotos     = "media.photos"
	FieldFindings        = "findings"
	FieldEstimate        = "claim.estimate"
)

type Result struct {
	Context  *ReportContext
	Warnings []reporterr.PartialDataWarning
}

func (r *Result) MissingFields() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Field)
	}
	return out
}

// Ready is true when no optional sub-record was missing.
func (r *Result) Ready() bool { return len(r.Warnings) == 0 }

type Builder struct {
	log      *logger.Logger
	claims   repos.ClaimRepo
	clients  repos.ClientRepo
	property repos.PropertyRepo
	records  repos.ClaimRecordRepo
	branding repos.BrandingRepo
	orgs     repos.OrganizationRepo
}

func NewBuilder(log *logger.Logger, set repos.Set) *Builder {
	return &Builder{
		log:      log.With("service", "ReportContextBuilder"),
		claims:   set.Claim,
		clients:  set.Client,
		property: set.Property,
		records:  set.ClaimRecord,
		branding: set.Branding,
		orgs:     set.Organization,
	}
}

// Build returns NotFoundError when the claim is absent or owned by another
// org. Missing optional records never fail the build; they are reported as
// warnings.
func (b *Builder) Build(ctx context.Context, orgID, claimID uuid.UUID) (res *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.context_build",
		attribute.String("claim_id", claimID.String()))
	defer func() { observability.EndSpan(span, err) }()

	dbc := dbctx.Background(ctx)
	claim, err := b.claims.GetByID(dbc, orgID, claimID)
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	if claim == nil {
		return nil, reporterr.NotFound("claim", claimID)
	}

	var (
		property *types.Property
		client   *types.Client
		branding *types.Branding
		org      *types.Organization
		weather  []*types.WeatherEvent
		media    []*types.Media
		findings []*types.Finding
		notes    []*types.Note
		estimate *types.Estimate
	)
	g, gctx := errgroup.WithContext(ctx)
	gdbc := dbctx.Background(gctx)
	g.Go(func() (err error) {
		property, err = b.property.GetByClaimID(gdbc, orgID, claimID)
		return wrap("property", err)
	})
	if claim.ClientID != nil {
		clientID := *claim.ClientID
		g.Go(func() (err error) {
			client, err = b.clients.GetByID(gdbc, orgID, clientID)
			return wrap("client", err)
		})
	}
	g.Go(func() (err error) {
		branding, err = b.branding.GetByOrgID(gdbc, orgID)
		return wrap("branding", err)
	})
	g.Go(func() (err error) {
		org, err = b.orgs.GetByID(gdbc, orgID)
		return wrap("organization", err)
	})
	g.Go(func() (err error) {
		weather, err = b.records.ListWeather(gdbc, orgID, claimID)
		return wrap("weather", err)
	})
	g.Go(func() (err error) {
		media, err = b.records.ListMedia(gdbc, orgID, claimID, "")
		return wrap("media", err)
	})
	g.Go(func() (err error) {
		findings, err = b.records.ListFindings(gdbc, orgID, claimID)
		return wrap("findings", err)
	})
	g.Go(func() (err error) {
		notes, err = b.records.ListNotes(gdbc, orgID, claimID)
		return wrap("notes", err)
	})
	g.Go(func() (err error) {
		estimate, err = b.records.LatestEstimate(gdbc, orgID, claimID)
		return wrap("estimate", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rc := &ReportContext{
		Claim:    claimSection(claim, estimate),
		Property: propertySection(property),
		Company:  companySection(branding, org),
		Client:   clientSection(client),
		Weather:  weatherSection(weather),
		Media:    mediaSection(media),
		Findings: findingList(findings),
		Notes:    noteList(notes),
	}
	rc.normalize()

	res = &Result{Context: rc, Warnings: warningsFor(rc, estimate)}
	if len(res.Warnings) > 0 {
		b.log.Debug("report context incomplete",
			"claim_id", claimID,
			"missing", res.MissingFields(),
		)
	}
	return res, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func warningsFor(rc *ReportContext, estimate *types.Estimate) []reporterr.PartialDataWarning {
	var out []reporterr.PartialDataWarning
	add := func(field, msg string) {
		out = append(out, reporterr.PartialDataWarning{Field: field, Message: msg})
	}
	if rc.Property.Address == nil || rc.Property.Street == nil || rc.Property.City == nil {
		add(FieldPropertyAddress, "property street and city are required for the cover page")
	}
	if rc.Company.Name == nil {
		add(FieldCompanyName, "organization has no company name")
	}
	if rc.Company.LogoURL == nil {
		add(FieldCompanyLogo, "organization branding has no logo")
	}
	if rc.Client.Name == nil {
		add(FieldClient, "claim has no client")
	}
	if len(rc.Weather.Events) == 0 {
		add(FieldWeatherEvents, "no weather events recorded")
	}
	if len(rc.Media.Photos) == 0 {
		add(FieldMediaPhotos, "no photos attached")
	}
	if len(rc.Findings) == 0 {
		add(FieldFindings, "no inspection findings recorded")
	}
	if estimate == nil {
		add(FieldEstimate, "no estimate on file")
	}
	return out
}

func claimSection(c *types.Claim, est *types.Estimate) ClaimSection {
	out := ClaimSection{
		ID:            c.ID.String(),
		Number:        c.ClaimNumber,
		Status:        c.Status,
		PolicyNumber:  optString(c.PolicyNumber),
		Carrier:       optString(c.CarrierName),
		LossType:      optString(c.LossType),
		Description:   optString(c.Description),
		AdjusterName:  optString(c.AdjusterName),
		AdjusterEmail: optString(c.AdjusterEmail),
		AdjusterPhone: optString(c.AdjusterPhone),
	}
	if c.DateOfLoss != nil {
		d := c.DateOfLoss.UTC().Format("2006-01-02")
		out.DateOfLoss = &d
	}
	if est != nil {
		v, total, items := est.Version, est.TotalCents, est.LineItemCount
		out.EstimateVersion = &v
		out.EstimateTotalCents = &total
		out.EstimateLineItems = &items
	}
	return out
}

func propertySection(p *types.Property) PropertySection {
	if p == nil {
		return PropertySection{}
	}
	out := PropertySection{
		Street:       optString(p.Street),
		Unit:         optString(p.Unit),
		City:         optString(p.City),
		State:        optString(p.State),
		PostalCode:   optString(p.PostalCode),
		Country:      optString(p.Country),
		YearBuilt:    p.YearBuilt,
		RoofType:     optString(p.RoofType),
		RoofAgeYears: p.RoofAgeYears,
		Stories:      p.Stories,
		SquareFeet:   p.SquareFeet,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
	}
	out.AddressLines = FormatAddress(p.Street, p.Unit, p.City, p.State, p.PostalCode, p.Country)
	if len(out.AddressLines) > 0 {
		out.Address = optString(strings.Join(out.AddressLines, ", "))
	}
	return out
}

func companySection(b *types.Branding, o *types.Organization) CompanySection {
	var out CompanySection
	if b != nil {
		out = CompanySection{
			Name:           optString(b.CompanyName),
			LogoURL:        optString(b.LogoURL),
			PrimaryColor:   optString(b.PrimaryColor),
			SecondaryColor: optString(b.SecondaryColor),
			AccentColor:    optString(b.AccentColor),
			Phone:          optString(b.Phone),
			Email:          optString(b.Email),
			Website:        optString(b.Website),
			Address:        optString(b.Address),
			LicenseNumber:  optString(b.LicenseNumber),
		}
	}
	if out.Name == nil && o != nil {
		out.Name = optString(o.Name)
	}
	return out
}

func clientSection(c *types.Client) ClientSection {
	if c == nil {
		return ClientSection{}
	}
	return ClientSection{
		Name:      optString(strings.TrimSpace(c.FirstName + " " + c.LastName)),
		FirstName: optString(c.FirstName),
		LastName:  optString(c.LastName),
		Email:     optString(c.Email),
		Phone:     optString(c.Phone),
	}
}

func weatherSection(rows []*types.WeatherEvent) WeatherSection {
	out := WeatherSection{Events: make([]WeatherEvent, 0, len(rows))}
	for _, w := range rows {
		out.Events = append(out.Events, WeatherEvent{
			Date:           w.EventDate.UTC().Format("2006-01-02"),
			Type:           w.EventType,
			HailSizeInches: w.HailSizeInches,
			WindSpeedMph:   w.WindSpeedMph,
			DistanceMiles:  w.DistanceMiles,
			Source:         optString(w.Source),
		})
		out.MaxHailSizeInches = maxPtr(out.MaxHailSizeInches, w.HailSizeInches)
		out.MaxWindSpeedMph = maxPtr(out.MaxWindSpeedMph, w.WindSpeedMph)
	}
	return out
}

func maxPtr(cur, v *float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil || *v > *cur {
		x := *v
		return &x
	}
	return cur
}

func mediaSection(rows []*types.Media) MediaSection {
	var out MediaSection
	for _, m := range rows {
		item := MediaItem{
			URL:     m.URL,
			Caption: optString(m.Caption),
			Area:    optString(m.Area),
		}
		if m.TakenAt != nil {
			ts := m.TakenAt.UTC().Format(time.RFC3339)
			item.TakenAt = &ts
		}
		switch m.Kind {
		case claims.MediaKindPhoto:
			out.Photos = append(out.Photos, item)
		default:
			out.Documents = append(out.Documents, item)
		}
	}
	return out
}

func findingList(rows []*types.Finding) []Finding {
	out := make([]Finding, 0, len(rows))
	for _, f := range rows {
		out = append(out, Finding{
			Area:      optString(f.Area),
			Statement: f.Statement,
			Severity:  optString(f.Severity),
		})
	}
	return out
}

func noteList(rows []*types.Note) []Note {
	out := make([]Note, 0, len(rows))
	for _, n := range rows {
		out = append(out, Note{
			Body:      n.Body,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
