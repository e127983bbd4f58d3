package phonenumber

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allyourbase/dialplan/metadata"
)

func TestFormat(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name string
		n    PhoneNumber
		f    Format
		want string
	}{
		{"us e164", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, E164, "+16502530000"},
		{"us national", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, National, "(650) 253-0000"},
		{"us international", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, International, "+1 650-253-0000"},
		{"us rfc3966", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}, RFC3966, "tel:+1-650-253-0000"},
		{"us national extension", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000, Extension: "1234"}, National, "(650) 253-0000 ext. 1234"},
		{"us rfc3966 extension", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000, Extension: "1234"}, RFC3966, "tel:+1-650-253-0000;ext=1234"},
		{"e164 drops extension", PhoneNumber{CountryCode: 1, NationalNumber: 6502530000, Extension: "1234"}, E164, "+16502530000"},
		{"gb national", PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}, National, "0121 234 5678"},
		{"gb preferred extension prefix", PhoneNumber{CountryCode: 44, NationalNumber: 1212345678, Extension: "1234"}, National, "0121 234 5678 x1234"},
		{"ch national", PhoneNumber{CountryCode: 41, NationalNumber: 446681800}, National, "044 668 18 00"},
		{"ch international", PhoneNumber{CountryCode: 41, NationalNumber: 446681800}, International, "+41 44 668 18 00"},
		{"fr separate national prefix", PhoneNumber{CountryCode: 33, NationalNumber: 801234567}, National, "0 801 23 45 67"},
		{"fr national", PhoneNumber{CountryCode: 33, NationalNumber: 123456789}, National, "01 23 45 67 89"},
		{"au national", PhoneNumber{CountryCode: 61, NationalNumber: 212345678}, National, "(02) 1234 5678"},
		{"au international", PhoneNumber{CountryCode: 61, NationalNumber: 212345678}, International, "+61 2 1234 5678"},
		{"ru national", PhoneNumber{CountryCode: 7, NationalNumber: 9123456789}, National, "8 (912) 345-67-89"},
		{"ru international", PhoneNumber{CountryCode: 7, NationalNumber: 9123456789}, International, "+7 912 345-67-89"},
		{"kz has no pattern", PhoneNumber{CountryCode: 7, NationalNumber: 7710009998}, National, "7710009998"},
		{"it leading zero national", PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}, National, "02 1234 5678"},
		{"it leading zero international", PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}, International, "+39 02 1234 5678"},
		{"it e164", PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}, E164, "+390212345678"},
		{"ar mobile national", PhoneNumber{CountryCode: 54, NationalNumber: 91123456789}, National, "011 15-2345-6789"},
		{"ar mobile international", PhoneNumber{CountryCode: 54, NationalNumber: 91123456789}, International, "+54 9 11 2345-6789"},
		{"unknown code national", PhoneNumber{CountryCode: 999, NationalNumber: 12345}, National, "12345"},
		{"unknown code e164", PhoneNumber{CountryCode: 999, NationalNumber: 12345}, E164, "+99912345"},
		{"zero number returns raw input", PhoneNumber{CountryCode: 1, RawInput: "abc"}, National, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.Format(&tt.n, tt.f))
		})
	}
}

func TestFormatCarrierCode(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	n := mustParseRaw(t, e, "015 1123456789", "BR")
	assert.Equal(t, "(11) 2345-6789", e.Format(n, National))
	assert.Equal(t, "0 15 (11) 2345-6789", e.FormatNationalNumberWithCarrierCode(n, "15"))
	assert.Equal(t, "0 15 (11) 2345-6789", e.FormatNationalNumberWithPreferredCarrierCode(n, "21"))

	n.PreferredDomesticCarrierCode = ""
	assert.Equal(t, "0 21 (11) 2345-6789", e.FormatNationalNumberWithPreferredCarrierCode(n, "21"))
	assert.Equal(t, "(11) 2345-6789", e.FormatNationalNumberWithCarrierCode(n, ""))
}

func TestFormatByPattern(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	n := &PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}

	rules := []metadata.NumberFormat{{
		Pattern:                      `(\d{3})(\d{3})(\d{4})`,
		Format:                       "($1) $2-$3",
	}}
	assert.Equal(t, "(650) 253-0000", e.FormatByPattern(n, National, rules))
	assert.Equal(t, "+1 (650) 253-0000", e.FormatByPattern(n, International, rules))

	rules = []metadata.NumberFormat{{
		Pattern:                      `(\d{3})(\d{3})(\d{4})`,
		Format:                       "$1 $2-$3",
		NationalPrefixFormattingRule: "$NP ($FG)",
	}}
	assert.Equal(t, "1 (650) 253-0000", e.FormatByPattern(n, National, rules))
	assert.Equal(t, "+1 650 253-0000", e.FormatByPattern(n, International, rules))

	it := &PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}
	rules = []metadata.NumberFormat{{
		Pattern:                      `(\d{2})(\d{4})(\d{4})`,
		Format:                       "$1-$2 $3",
		NationalPrefixFormattingRule: "$NP$FG",
	}}
	assert.Equal(t, "02-1234 5678", e.FormatByPattern(it, National, rules), "no national prefix drops the rule")

	none := []metadata.NumberFormat{{Pattern: `\d{3}`, Format: "$1"}}
	assert.Equal(t, "6502530000", e.FormatByPattern(n, National, none))
}

func TestFormatOutOfCountryCallingNumber(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	us := &PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}
	gb := &PhoneNumber{CountryCode: 44, NationalNumber: 1212345678}

	tests := []struct {
		name string
		n    *PhoneNumber
		from string
		want string
	}{
		{"us from gb", us, "GB", "00 1 650-253-0000"},
		{"us from ca", us, "CA", "1 (650) 253-0000"},
		{"us from us", us, "US", "1 (650) 253-0000"},
		{"gb from us", gb, "US", "011 44 121 234 5678"},
		{"gb from ru uses preferred idd", gb, "RU", "8~10 44 121 234 5678"},
		{"gb from au", gb, "AU", "0011 44 121 234 5678"},
		{"gb from unknown region", gb, UnknownRegion, "+44 121 234 5678"},
		{"gb from gb", gb, "GB", "0121 234 5678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.FormatOutOfCountryCallingNumber(tt.n, tt.from))
		})
	}
}

func TestFormatOutOfCountryKeepingAlphaChars(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	n := mustParseRaw(t, e, "1800 six-flag", "US")
	assert.Equal(t, "0011 1 800 SIX-FLAG", e.FormatOutOfCountryKeepingAlphaChars(n, "AU"))
	assert.Equal(t, "1 800 SIX-FLAG", e.FormatOutOfCountryKeepingAlphaChars(n, "US"))

	gb := mustParseRaw(t, e, "0800 FLOWERS", "GB")
	assert.Equal(t, "0800 FLOWERS", e.FormatOutOfCountryKeepingAlphaChars(gb, "GB"))
	assert.Equal(t, "011 44 800 FLOWERS", e.FormatOutOfCountryKeepingAlphaChars(gb, "US"))

	noRaw := &PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}
	assert.Equal(t, e.FormatOutOfCountryCallingNumber(noRaw, "GB"), e.FormatOutOfCountryKeepingAlphaChars(noRaw, "GB"))
}

func TestFormatInOriginalFormat(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name   string
		text   string
		region string
		from   string
		want   string
	}{
		{"with plus", "+441212345678", "GB", "GB", "+44 121 234 5678"},
		{"with national prefix", "01212345678", "GB", "GB", "0121 234 5678"},
		{"without national prefix", "1212345678", "GB", "GB", "121 234 5678"},
		{"with idd", "011 44 121 234 5678", "US", "US", "011 44 121 234 5678"},
		{"calling code without plus", "441212345678", "GB", "GB", "44 121 234 5678"},
		{"us national", "6502530000", "US", "US", "(650) 253-0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := mustParseRaw(t, e, tt.text, tt.region)
			assert.Equal(t, tt.want, e.FormatInOriginalFormat(n, tt.from))
		})
	}

	plain := &PhoneNumber{CountryCode: 1, NationalNumber: 6502530000}
	assert.Equal(t, "(650) 253-0000", e.FormatInOriginalFormat(plain, "US"), "no raw input formats nationally")
}

func TestFormatZeroNationalNumber(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	n := &PhoneNumber{CountryCode: 39, NationalNumber: 0, RawInput: "+39 000"}
	assert.Equal(t, "+390", e.Format(n, E164))
	assert.Equal(t, "+39 000", e.Format(n, National), "other formats echo the raw input")

	parsed := mustParseRaw(t, e, "+39 000", "")
	assert.Regexp(t, `^\+[0-9]+$`, e.Format(parsed, E164))
}

func TestGetNationalSignificantNumber(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	assert.Equal(t, "0212345678", e.GetNationalSignificantNumber(&PhoneNumber{CountryCode: 39, NationalNumber: 212345678, LeadingZeros: 1}))
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "${1}${2}x", goTemplate("$1$2x"))
	assert.Equal(t, "0$2 15-$3-$4", replaceFirstGroup("$2 15-$3-$4", "0$1"))
	assert.Equal(t, "plain", replaceFirstGroup("plain", "0$1"))
}
