// Package templates resolves which sections a document renders and how it
// is branded.
package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
	"github.com/yungbote/claimpacket-backend/internal/platform/logger"
)

type Merger struct {
	log       *logger.Logger
	catalog   *Catalog
	templates repos.ReportTemplateRepo
	branding  repos.BrandingRepo
	cache     Cache
	metrics   *observability.Metrics
}

func NewMerger(log *logger.Logger, catalog *Catalog, templates repos.ReportTemplateRepo, branding repos.BrandingRepo, cache Cache, metrics *observability.Metrics) *Merger {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Merger{
		log:       log.With("service", "TemplateMerger"),
		catalog:   catalog,
		templates: templates,
		branding:  branding,
		cache:     cache,
		metrics:   metrics,
	}
}

func (m *Merger) Catalog() *Catalog { return m.catalog }

// ResolveDefinition picks the definition for templateID. An empty id means
// the org's default custom template, else the built-in catalogue. An
// explicit id that cannot be found for this org is TemplateNotFoundError.
func (m *Merger) ResolveDefinition(ctx context.Context, orgID uuid.UUID, templateID string) (Definition, error) {
	templateID = strings.TrimSpace(templateID)
	dbc := dbctx.Background(ctx)
	switch templateID {
	case "":
		row, err := m.templates.GetOrgDefault(dbc, orgID)
		if err != nil {
			return Definition{}, fmt.Errorf("load org default template: %w", err)
		}
		if row != nil {
			return DefinitionFromRow(row), nil
		}
		return Builtin(m.catalog), nil
	case BuiltinID:
		return Builtin(m.catalog), nil
	}

	id, err := uuid.Parse(templateID)
	if err != nil {
		return Definition{}, &reporterr.TemplateNotFoundError{TemplateID: templateID}
	}
	row, err := m.templates.GetVisible(dbc, orgID, id)
	if err != nil {
		return Definition{}, fmt.Errorf("load template: %w", err)
	}
	if row == nil {
		return Definition{}, &reporterr.TemplateNotFoundError{TemplateID: templateID}
	}
	return DefinitionFromRow(row), nil
}

// Resolve returns the merged template for (templateID, orgID). Results are
// cached until the org's branding or templates change. Resolve never writes
// to the relational store.
func (m *Merger) Resolve(ctx context.Context, orgID uuid.UUID, templateID string) (merged *MergedTemplate, err error) {
	ctx, span := observability.StartSpan(ctx, "reports.template_merge",
		attribute.String("template_id", templateID))
	defer func() { observability.EndSpan(span, err) }()

	branding, err := m.branding.GetByOrgID(dbctx.Background(ctx), orgID)
	if err != nil {
		return nil, fmt.Errorf("load branding: %w", err)
	}
	key := cacheKey(strings.TrimSpace(templateID), BrandingFingerprint(branding))

	if cached, ok, cerr := m.cache.Get(ctx, orgID, key); cerr != nil {
		m.log.Warn("template cache read failed", "error", cerr)
	} else if ok {
		m.metrics.IncTemplateCache("hit")
		return cached, nil
	}
	m.metrics.IncTemplateCache("miss")

	def, err := m.ResolveDefinition(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	out := Merge(m.catalog, def, branding)
	if err := m.cache.Set(ctx, orgID, key, &out); err != nil {
		m.log.Warn("template cache write failed", "error", err)
	}
	return &out, nil
}

func (m *Merger) Invalidate(ctx context.Context, orgID uuid.UUID) {
	if err := m.cache.InvalidateOrg(ctx, orgID); err != nil {
		m.log.Warn("template cache invalidation failed", "error", err)
	}
}
