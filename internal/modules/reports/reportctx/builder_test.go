package reportctx

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/claimpacket-backend/internal/data/repos"
	"github.com/yungbote/claimpacket-backend/internal/data/repos/testutil"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
)

func TestBuildForeignClaimIsNotFound(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	b := NewBuilder(testutil.Logger(t), repos.NewSet(db, testutil.Logger(t)))

	o1 := testutil.SeedOrg(t, ctx, db, "O1")
	o2 := testutil.SeedOrg(t, ctx, db, "O2")
	c1 := testutil.SeedClaim(t, ctx, db, o1.ID)

	for _, tc := range []struct {
		name    string
		orgID   uuid.UUID
		claimID uuid.UUID
	}{
		{"foreign org", o2.ID, c1.ID},
		{"missing claim", o1.ID, uuid.New()},
	} {
		_, err := b.Build(ctx, tc.orgID, tc.claimID)
		var nf *reporterr.NotFoundError
		require.True(t, errors.As(err, &nf), "%s: want NotFoundError got %v", tc.name, err)
	}
}

func TestBuildSparseClaimReportsGaps(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	b := NewBuilder(testutil.Logger(t), repos.NewSet(db, testutil.Logger(t)))

	o1 := testutil.SeedOrg(t, ctx, db, "O1")
	c1 := testutil.SeedClaim(t, ctx, db, o1.ID)

	res, err := b.Build(ctx, o1.ID, c1.ID)
	require.NoError(t, err)
	require.False(t, res.Ready())
	missing := res.MissingFields()
	require.Contains(t, missing, FieldCompanyLogo)
	require.Contains(t, missing, FieldMediaPhotos)
	require.Contains(t, missing, FieldWeatherEvents)
	require.Contains(t, missing, FieldPropertyAddress)
	require.Contains(t, missing, FieldFindings)

	// Namespaces stay present with null leaves and empty lists.
	raw, err := res.Context.JSON()
	require.NoError(t, err)
	require.Contains(t, string(raw), `"property":{"street":null`)
	require.Contains(t, string(raw), `"photos":[]`)
	require.Contains(t, string(raw), `"findings":[]`)
	require.NotNil(t, res.Context.Company.Name)
	require.Equal(t, "O1", *res.Context.Company.Name)
}

func TestBuildRecomputesAddressFromParts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	b := NewBuilder(testutil.Logger(t), repos.NewSet(db, testutil.Logger(t)))

	o1 := testutil.SeedOrg(t, ctx, db, "O1")
	testutil.SeedBranding(t, ctx, db, o1.ID, "https://cdn.test/logo.png")
	c1 := testutil.SeedClaim(t, ctx, db, o1.ID)
	testutil.SeedProperty(t, ctx, db, o1.ID, c1.ID)
	testutil.SeedPhoto(t, ctx, db, o1.ID, c1.ID, 0)
	testutil.SeedWeather(t, ctx, db, o1.ID, c1.ID)
	testutil.SeedFinding(t, ctx, db, o1.ID, c1.ID, 1, "Hail bruising on north slope")

	res, err := b.Build(ctx, o1.ID, c1.ID)
	require.NoError(t, err)
	rc := res.Context
	require.NotNil(t, rc.Property.Address)
	require.Equal(t, "12 Elm St, Denver, CO 80202", *rc.Property.Address)
	require.NotContains(t, *rc.Property.Address, c1.StagedPropertyAddress)
	require.Equal(t, []string{"12 Elm St", "Denver, CO 80202"}, rc.Property.AddressLines)
	require.Len(t, rc.Media.Photos, 1)
	require.NotNil(t, rc.Weather.MaxHailSizeInches)
	require.InDelta(t, 1.75, *rc.Weather.MaxHailSizeInches, 0.0001)
	require.Equal(t, "Summit Roofing", *rc.Company.Name)
	require.NotContains(t, res.MissingFields(), FieldCompanyLogo)
	require.NotContains(t, res.MissingFields(), FieldMediaPhotos)
}

func TestBuildIsDeterministic(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	b := NewBuilder(testutil.Logger(t), repos.NewSet(db, testutil.Logger(t)))

	o1 := testutil.SeedOrg(t, ctx, db, "O1")
	c1 := testutil.SeedClaim(t, ctx, db, o1.ID)
	testutil.SeedFinding(t, ctx, db, o1.ID, c1.ID, 2, "b")
	testutil.SeedFinding(t, ctx, db, o1.ID, c1.ID, 1, "a")

	first, err := b.Build(ctx, o1.ID, c1.ID)
	require.NoError(t, err)
	second, err := b.Build(ctx, o1.ID, c1.ID)
	require.NoError(t, err)
	j1, _ := first.Context.JSON()
	j2, _ := second.Context.JSON()
	require.JSONEq(t, string(j1), string(j2))
	require.Equal(t, "a", first.Context.Findings[0].Statement)
}

func TestFormatAddress(t *testing.T) {
	require.Equal(t, []string{"1 Main St Apt 2", "Austin, TX 78701"}, FormatAddress("1 Main St", "Apt 2", "Austin", "TX", "78701", "US"))
	require.Equal(t, []string{"Toronto, ON", "Canada"}, FormatAddress("", "", "Toronto", "ON", "", "Canada"))
	require.Empty(t, FormatAddress("", "", "", "", "", ""))
}
