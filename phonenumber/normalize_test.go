package phonenumber

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDigitsOnly(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, in, want string
	}{
		{"mixed punctuation", "034-56&+a#234", "03456234"},
		{"arabic-indic", "\u0661\u0662\u0663", "123"},
		{"full-width", "\uFF14\uFF15\uFF16", "456"},
		{"empty", "", ""},
		{"no digits", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeDigitsOnly(tt.in))
		})
	}
}

func TestConvertAlphaCharactersInNumber(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1800-222-333", ConvertAlphaCharactersInNumber("1800-ABC-DEF"))
	assert.Equal(t, "1800-749-3524", ConvertAlphaCharactersInNumber("1800-six-flag"))
}

func TestNormalizeKeepsVanityLetters(t *testing.T) {
	t.Parallel()
	// Three or more letters mean a vanity number.
	assert.Equal(t, "18007493524", normalize("1-800-SIX-FLAG"))
	// Fewer letters are treated as noise.
	assert.Equal(t, "0800123", normalize("0800 12x3"))
}

func TestNormalizeDiallableCharsOnly(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "03*456+1#234", normalizeDiallableCharsOnly("03*4-56&+1a#234"))
}

func TestNormalizeGroupingSymbols(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "800 SIX-FLAG", normalizeGroupingSymbols("800 six\u2010flag"))
}

func TestExtractPossibleNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, in, want string
	}{
		{"leading label", "Tel:0800-345-600", "0800-345-600"},
		{"trailing punctuation", "0800-345-600.", "0800-345-600"},
		{"trailing hash kept", "0800-345-600#", "0800-345-600#"},
		{"plus start", "Num: +44 20", "+44 20"},
		{"second number", "650-253-0000 / x 123", "650-253-0000 "},
		{"nothing viable", "no digits here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extractPossibleNumber(tt.in))
		})
	}
}

func TestIsViablePhoneNumber(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"00", "111", "0800-4-pizza", "+44 121 234 5678", "650 253 0000 ext. 12"} {
		assert.True(t, isViablePhoneNumber(s), s)
	}
	for _, s := range []string{"1", "1+1+1", "80+0", "08-PIZZA", "12. March", ""} {
		assert.False(t, isViablePhoneNumber(s), s)
	}
}

func TestIsPhoneContextValid(t *testing.T) {
	t.Parallel()
	assert.True(t, isPhoneContextValid("+1-650"))
	assert.True(t, isPhoneContextValid("www.google.com"))
	assert.False(t, isPhoneContextValid(""))
	assert.False(t, isPhoneContextValid("+"))
	assert.False(t, isPhoneContextValid("1-650"))
}

func TestFormattingRuleHasFirstGroupOnly(t *testing.T) {
	t.Parallel()
	assert.True(t, formattingRuleHasFirstGroupOnly(""))
	assert.True(t, formattingRuleHasFirstGroupOnly("$1"))
	assert.True(t, formattingRuleHasFirstGroupOnly("($1)"))
	assert.False(t, formattingRuleHasFirstGroupOnly("$NP$FG"))
	assert.False(t, formattingRuleHasFirstGroupOnly("0$1"))
}
