package numberinfo

import (
	"testing"

	"github.com/allyourbase/dialplan/internal/testutil"
	"github.com/allyourbase/dialplan/metadata"
	"github.com/allyourbase/dialplan/phonenumber"
)

func newEngine(t *testing.T) *phonenumber.Engine {
	t.Helper()
	store, err := metadata.NewBundledStore(testutil.DiscardLogger())
	testutil.NoError(t, err)
	e, err := phonenumber.New(store)
	testutil.NoError(t, err)
	return e
}

func TestDescribe(t *testing.T) {
	e := newEngine(t)
	n, err := e.ParseAndKeepRawInput("+1 650-253-0000", "GB")
	testutil.NoError(t, err)

	info := Describe(e, n, "GB")
	testutil.Equal(t, "+1 650-253-0000", info.Input)
	testutil.Equal(t, 1, info.CountryCode)
	testutil.Equal(t, uint64(6502530000), info.NationalNumber)
	testutil.Equal(t, "6502530000", info.NationalSignificantNumber)
	testutil.Equal(t, "US", info.Region)
	testutil.Equal(t, "FIXED_LINE_OR_MOBILE", info.Type)
	testutil.True(t, info.Valid)
	testutil.True(t, info.Possible)
	testutil.Equal(t, "IS_POSSIBLE", info.PossibleReason)
	testutil.Equal(t, "FROM_NUMBER_WITH_PLUS_SIGN", info.CountryCodeSource)
	testutil.Equal(t, "+16502530000", info.Formats.E164)
	testutil.Equal(t, "+1 650-253-0000", info.Formats.International)
	testutil.Equal(t, "(650) 253-0000", info.Formats.National)
	testutil.Equal(t, "tel:+1-650-253-0000", info.Formats.RFC3966)
	testutil.Equal(t, "00 1 650-253-0000", info.Formats.OutOfCountry)
	testutil.Equal(t, "+1 650-253-0000", info.Formats.Original)
}

func TestDescribeWithoutFromRegion(t *testing.T) {
	e := newEngine(t)
	n, err := e.Parse("021 2345 678", "IT")
	testutil.NoError(t, err)

	info := Describe(e, n, "")
	testutil.Equal(t, "", info.Input)
	testutil.Equal(t, "", info.CountryCodeSource)
	testutil.Equal(t, 1, info.LeadingZeros)
	testutil.Equal(t, "IT", info.Region)
	testutil.Equal(t, "", info.Formats.OutOfCountry)
	testutil.Equal(t, "", info.Formats.Original)
}

func TestDescribeInvalidNumber(t *testing.T) {
	e := newEngine(t)
	n, err := e.Parse("253 0000", "US")
	testutil.NoError(t, err)

	info := Describe(e, n, "")
	testutil.False(t, info.Valid)
	testutil.Equal(t, "UNKNOWN", info.Type)
}

func TestDescribeRegion(t *testing.T) {
	e := newEngine(t)

	r, ok := DescribeRegion(e, "CH")
	testutil.True(t, ok)
	testutil.Equal(t, 41, r.CountryCode)
	testutil.Equal(t, "0", r.NationalPrefix)
	testutil.True(t, r.MainForCode)
	testutil.Equal(t, "+41 21 234 56 78", r.Example)

	r, ok = DescribeRegion(e, "CA")
	testutil.True(t, ok)
	testutil.Equal(t, 1, r.CountryCode)
	testutil.False(t, r.MainForCode)

	_, ok = DescribeRegion(e, "XX")
	testutil.False(t, ok)
}

func TestRegionsSorted(t *testing.T) {
	e := newEngine(t)
	regions := Regions(e)
	testutil.SliceLen(t, regions, len(e.SupportedRegions()))
	for i := 1; i < len(regions); i++ {
		testutil.True(t, regions[i-1].Region < regions[i].Region, "%s before %s", regions[i-1].Region, regions[i].Region)
	}
}
