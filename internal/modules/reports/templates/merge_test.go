package templates

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	"github.com/yungbote/claimpacket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/claimpacket-backend/internal/domain"
	"github.com/yungbote/claimpacket-backend/internal/domain/reports"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
	"github.com/yungbote/claimpacket-backend/internal/observability"
	"github.com/yungbote/claimpacket-backend/internal/platform/dbctx"
)

func catalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func TestMergeIsIdempotent(t *testing.T) {
	c := catalog(t)
	branding := &types.Branding{CompanyName: "Summit Roofing", PrimaryColor: "#112233", LogoURL: "https://cdn.test/logo.png"}
	defs := []Definition{
		Builtin(c),
		{
			ID:             uuid.NewString(),
			Name:           "Short",
			Scope:          reports.TemplateScopeOrgCustom,
			SectionOrder:   []string{"photos", "cover"},
			SectionEnabled: map[string]bool{"notes": false, "cover": true},
			Defaults: reports.TemplateDefaults{
				Branding: &reports.BrandingOverride{AccentColor: "#FF0000"},
			},
		},
		{
			ID:           uuid.NewString(),
			Name:         "Market",
			Scope:        reports.TemplateScopeMarketplace,
			SectionOrder: []string{"cover", "findings"},
		},
	}
	for _, def := range defs {
		once := Merge(c, def, branding)
		twice := Merge(c, once.Definition, branding)
		a, err := once.CanonicalJSON()
		require.NoError(t, err)
		b, err := twice.CanonicalJSON()
		require.NoError(t, err)
		require.Equal(t, string(a), string(b), "merge must be idempotent for %s", def.Name)
	}
}

func TestMergeDefaultsPrecedence(t *testing.T) {
	c := catalog(t)
	def := Builtin(c)
	def.Defaults.Branding = &reports.BrandingOverride{PrimaryColor: "#000001"}
	branding := &types.Branding{PrimaryColor: "#000002", SecondaryColor: "#000003"}

	m := Merge(c, def, branding)
	require.Equal(t, "#000001", m.Branding.PrimaryColor, "template wins")
	require.Equal(t, "#000003", m.Branding.SecondaryColor, "branding beats fallback")
	require.Equal(t, c.Fallback.AccentColor, m.Branding.AccentColor, "fallback fills the rest")
	require.Equal(t, c.Fallback.CompanyName, m.Branding.CompanyName)
	require.Empty(t, m.Branding.LogoURL)
}

func TestMergeLayouts(t *testing.T) {
	c := catalog(t)

	custom := Merge(c, Definition{
		Scope:          reports.TemplateScopeOrgCustom,
		SectionOrder:   []string{"photos", "cover"},
		SectionEnabled: map[string]bool{"notes": false},
	}, nil)
	keys := custom.SectionKeys()
	require.Equal(t, []string{"photos", "cover"}, keys[:2])
	require.NotContains(t, keys, "notes")
	require.Len(t, custom.Sections, len(c.Sections))

	market := Merge(c, Definition{
		Scope:        reports.TemplateScopeMarketplace,
		SectionOrder: []string{"findings", "retired_section"},
	}, nil)
	require.Equal(t, []string{"findings", "retired_section"}, market.SectionKeys())

	builtin := Merge(c, Builtin(c), nil)
	require.Equal(t, c.Keys(), builtin.SectionKeys())
}

func TestDefinitionValidate(t *testing.T) {
	c := catalog(t)
	ok := Definition{Name: "x", SectionOrder: []string{"cover", "photos"}}
	require.NoError(t, ok.Validate(c))

	cases := []Definition{
		{Name: "", SectionOrder: []string{"cover"}},
		{Name: "x"},
		{Name: "x", SectionOrder: []string{"cover", "cover"}},
		{Name: "x", SectionOrder: []string{"nope"}},
		{Name: "x", SectionOrder: []string{"cover"}, SectionEnabled: map[string]bool{"nope": false}},
		{Name: "x", SectionOrder: []string{"cover"}, ArtifactType: "INVOICE"},
	}
	for i, d := range cases {
		err := d.Validate(c)
		var ve *reporterr.ValidationError
		require.True(t, errors.As(err, &ve), "case %d: want ValidationError got %v", i, err)
	}
}

func newMerger(t *testing.T, cache Cache) (*Merger, repos.Set, *observability.Metrics) {
	t.Helper()
	db := testutil.DB(t)
	set := repos.NewSet(db, testutil.Logger(t))
	metrics := observability.NewMetrics()
	return NewMerger(testutil.Logger(t), catalog(t), set.Template, set.Branding, cache, metrics), set, metrics
}

func TestResolveChain(t *testing.T) {
	m, set, _ := newMerger(t, NewMemoryCache())
	ctx := context.Background()
	dbc := dbctx.Background(ctx)
	orgID := uuid.New()
	otherOrg := uuid.New()

	got, err := m.Resolve(ctx, orgID, "")
	require.NoError(t, err)
	require.Equal(t, BuiltinID, got.ID)

	row := &types.ReportTemplate{
		OrgID:        &orgID,
		Name:         "Short",
		SectionOrder: datatypes.NewJSONType([]string{"cover", "photos"}),
		IsDefault:    true,
	}
	require.NoError(t, set.Template.SaveOrgTemplate(dbc, row))
	m.Invalidate(ctx, orgID)

	got, err = m.Resolve(ctx, orgID, "")
	require.NoError(t, err)
	require.Equal(t, row.ID.String(), got.ID)
	require.Equal(t, []string{"cover", "photos"}, got.SectionKeys()[:2])

	_, err = m.Resolve(ctx, otherOrg, row.ID.String())
	var tnf *reporterr.TemplateNotFoundError
	require.ErrorAs(t, err, &tnf)

	_, err = m.Resolve(ctx, orgID, uuid.NewString())
	require.ErrorAs(t, err, &tnf)
	_, err = m.Resolve(ctx, orgID, "not-a-uuid")
	require.ErrorAs(t, err, &tnf)
}

func TestResolveCacheFollowsBranding(t *testing.T) {
	m, set, metrics := newMerger(t, NewMemoryCache())
	ctx := context.Background()
	dbc := dbctx.Background(ctx)
	orgID := uuid.New()

	require.NoError(t, set.Branding.Upsert(dbc, &types.Branding{OrgID: orgID, CompanyName: "Before"}))
	first, err := m.Resolve(ctx, orgID, "")
	require.NoError(t, err)
	require.Equal(t, "Before", first.Branding.CompanyName)
	again, err := m.Resolve(ctx, orgID, "")
	require.NoError(t, err)
	require.Equal(t, "Before", again.Branding.CompanyName)

	require.NoError(t, set.Branding.Upsert(dbc, &types.Branding{OrgID: orgID, CompanyName: "After"}))
	after, err := m.Resolve(ctx, orgID, "")
	require.NoError(t, err)
	require.Equal(t, "After", after.Branding.CompanyName)

	series, err := promtestutil.GatherAndCount(metrics.Registry(), "claimpacket_template_cache_total")
	require.NoError(t, err)
	require.Equal(t, 2, series, "hit and miss series")
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis cache tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	cache := NewRedisCache(rdb, "claimpacket-test-"+uuid.NewString(), time.Minute)
	orgID := uuid.New()

	m := Merge(catalog(t), Builtin(catalog(t)), nil)
	require.NoError(t, cache.Set(ctx, orgID, "default:none", &m))
	got, ok, err := cache.Get(ctx, orgID, "default:none")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, m.SectionKeys(), got.SectionKeys())

	require.NoError(t, cache.InvalidateOrg(ctx, orgID))
	_, ok, err = cache.Get(ctx, orgID, "default:none")
	require.NoError(t, err)
	require.False(t, ok)
}
