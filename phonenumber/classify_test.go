package phonenumber

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allyourbase/dialplan/metadata"
)

func TestGetNumberType(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name string
		n    PhoneNumber
		want NumberType
	}{
		{"us shared pattern", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, FixedLineOrMobile},
		{"us toll free", PhoneNumber{CountryCode: 1, NationalNumber: 8002345678}, TollFree},
		{"us premium", PhoneNumber{CountryCode: 1, NationalNumber: 9002345678}, PremiumRate},
		{"us personal", PhoneNumber{CountryCode: 1, NationalNumber: 5002345678}, PersonalNumber},
		{"gb mobile", PhoneNumber{CountryCode: 44, NationalNumber: 7400123456}, Mobile},
		{"gb fixed", PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}, FixedLine},
		{"gb voip", PhoneNumber{CountryCode: 44, NationalNumber: 5612345678}, VoIP},
		{"gb uan", PhoneNumber{CountryCode: 44, NationalNumber: 3012345678}, UAN},
		{"gb personal", PhoneNumber{CountryCode: 44, NationalNumber: 7012345678}, PersonalNumber},
		{"ch voicemail", PhoneNumber{CountryCode: 41, NationalNumber: 860123456789}, Voicemail},
		{"ch shared cost", PhoneNumber{CountryCode: 41, NationalNumber: 840123456}, SharedCost},
		{"de fixed", PhoneNumber{CountryCode: 49, NationalNumber: 30123456}, FixedLine},
		{"ar mobile", PhoneNumber{CountryCode: 54, NationalNumber: 91123456789}, Mobile},
		{"it leading zero", PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}, FixedLine},
		{"us invalid area code", PhoneNumber{CountryCode: 1, NationalNumber: 1234567890}, Unknown},
		{"unknown calling code", PhoneNumber{CountryCode: 999, NationalNumber: 12345}, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.GetNumberType(&tt.n))
		})
	}
}

func TestParsedVanityNumberIsTollFree(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	n := mustParse(t, e, "1-800-SIX-FLAG", "US")
	assert.Equal(t, TollFree, e.GetNumberType(n))
}

func TestIsValidNumber(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	assert.True(t, e.IsValidNumber(&PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}))
	assert.True(t, e.IsValidNumber(&PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}))
	assert.True(t, e.IsValidNumber(&PhoneNumber{CountryCode: 800, NationalNumber: 12345678}))
	assert.False(t, e.IsValidNumber(&PhoneNumber{CountryCode: 1, NationalNumber: 2530000}))
	assert.False(t, e.IsValidNumber(&PhoneNumber{CountryCode: 39, NationalNumber: 212345678}))
	assert.False(t, e.IsValidNumber(&PhoneNumber{CountryCode: 999, NationalNumber: 12345}))
}

func TestIsValidNumberForRegion(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	ca := &PhoneNumber{CountryCode: 1, NationalNumber: 5062345678}
	assert.True(t, e.IsValidNumberForRegion(ca, "CA"))
	assert.False(t, e.IsValidNumberForRegion(ca, "US"))

	gb := &PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}
	assert.False(t, e.IsValidNumberForRegion(gb, "US"), "calling code must match the region")
	assert.False(t, e.IsValidNumberForRegion(gb, "XX"))

	nongeo := &PhoneNumber{CountryCode: 800, NationalNumber: 12345678}
	assert.True(t, e.IsValidNumberForRegion(nongeo, metadata.NonGeoRegion))
}

func TestRegionCodeForNumber(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name string
		n    PhoneNumber
		want string
	}{
		{"us", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, "US"},
		{"ca by classification", PhoneNumber{CountryCode: 1, NationalNumber: 5062345678}, "CA"},
		{"kz by leading digits", PhoneNumber{CountryCode: 7, NationalNumber: 7123456789}, "KZ"},
		{"ru", PhoneNumber{CountryCode: 7, NationalNumber: 9123456789}, "RU"},
		{"single region", PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}, "GB"},
		{"non-geographic", PhoneNumber{CountryCode: 800, NationalNumber: 12345678}, metadata.NonGeoRegion},
		{"unknown calling code", PhoneNumber{CountryCode: 999, NationalNumber: 1}, UnknownRegion},
		{"no region fits", PhoneNumber{CountryCode: 1, NationalNumber: 1234567890}, UnknownRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.RegionCodeForNumber(&tt.n))
		})
	}
}

func TestIsPossibleNumberWithReason(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name string
		n    PhoneNumber
		want ValidationResult
	}{
		{"possible", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, IsPossible},
		{"local only", PhoneNumber{CountryCode: 1, NationalNumber: 2530000}, IsPossibleLocalOnly},
		{"too short", PhoneNumber{CountryCode: 1, NationalNumber: 65025300}, TooShort},
		{"too long", PhoneNumber{CountryCode: 1, NationalNumber: 65025300001}, TooLong},
		{"unknown calling code", PhoneNumber{CountryCode: 999, NationalNumber: 6502530000}, InvalidCallingCode},
		{"gap in lengths", PhoneNumber{CountryCode: 41, NationalNumber: 4466818001}, InvalidLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.IsPossibleNumberWithReason(&tt.n))
		})
	}

	assert.True(t, e.IsPossibleNumber(&PhoneNumber{CountryCode: 1, NationalNumber: 2530000}))
	assert.False(t, e.IsPossibleNumber(&PhoneNumber{CountryCode: 1, NationalNumber: 65025300}))
}

func TestIsPossibleNumberForType(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	us := &PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}
	assert.True(t, e.IsPossibleNumberForType(us, FixedLine))
	assert.True(t, e.IsPossibleNumberForType(us, FixedLineOrMobile))
	assert.True(t, e.IsPossibleNumberForType(us, TollFree))
	assert.Equal(t, InvalidCallingCode,
		e.IsPossibleNumberForTypeWithReason(&PhoneNumber{CountryCode: 999, NationalNumber: 1}, Mobile))
}

func TestCanBeInternationallyDialled(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	assert.False(t, e.CanBeInternationallyDialled(&PhoneNumber{CountryCode: 1, NationalNumber: 8002345678}))
	assert.True(t, e.CanBeInternationallyDialled(&PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}))
	assert.True(t, e.CanBeInternationallyDialled(&PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}))
	assert.True(t, e.CanBeInternationallyDialled(&PhoneNumber{CountryCode: 800, NationalNumber: 12345678}))
}

func TestIsNumberGeographical(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	assert.True(t, e.IsNumberGeographical(&PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}))
	assert.True(t, e.IsNumberGeographical(&PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}))
	assert.True(t, e.IsNumberGeographical(&PhoneNumber{CountryCode: 54, NationalNumber: 91123456789}), "argentine mobiles are geographic")
	assert.False(t, e.IsNumberGeographical(&PhoneNumber{CountryCode: 44, NationalNumber: 7400123456}))
	assert.False(t, e.IsNumberGeographical(&PhoneNumber{CountryCode: 44, NationalNumber: 8001234567}))
}

func TestExampleNumbersAreValid(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	types := []NumberType{FixedLine, Mobile, TollFree, PremiumRate, SharedCost, VoIP, PersonalNumber, Pager, UAN, Voicemail}
	for _, region := range e.SupportedRegions() {
		for _, typ := range types {
			n, ok := e.GetExampleNumberForType(region, typ)
			if !ok {
				continue
			}
			assert.True(t, e.IsValidNumber(n), "%s %s", region, typ)
			assert.True(t, e.IsPossibleNumber(n), "%s %s", region, typ)
			assert.Regexp(t, `^\+\d+$`, e.Format(n, E164))
		}
	}
}
