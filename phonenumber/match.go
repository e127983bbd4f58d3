package phonenumber

import (
	"strconv"
	"strings"
)

// MatchType grades how closely two numbers agree.
type MatchType int

const (
	NotANumberMatch MatchType = iota
	NoMatch
	// ShortNSNMatch means one national number is a suffix of the other.
	ShortNSNMatch
	// NSNMatch means the national numbers agree but at least one calling
	// code was only assumed.
	NSNMatch
	ExactMatch
)

func (m MatchType) String() string {
	switch m {
	case NotANumberMatch:
		return "NOT_A_NUMBER"
	case NoMatch:
		return "NO_MATCH"
	case ShortNSNMatch:
		return "SHORT_NSN_MATCH"
	case NSNMatch:
		return "NSN_MATCH"
	case ExactMatch:
		return "EXACT_MATCH"
	default:
		return "MatchType(" + strconv.Itoa(int(m)) + ")"
	}
}

// IsNumberMatch compares two parsed numbers on calling code, national
// number, leading zeros and extension. A zero calling code on either side
// matches any code.
func (e *Engine) IsNumberMatch(a, b *PhoneNumber) MatchType {
	first, second := a.core(), b.core()
	if first.Extension != "" && second.Extension != "" && first.Extension != second.Extension {
		return NoMatch
	}
	if first.CountryCode != 0 && second.CountryCode != 0 {
		if first.sameCore(&second) {
			return ExactMatch
		}
		if first.CountryCode == second.CountryCode && isNationalNumberSuffixOfTheOther(&first, &second) {
			return ShortNSNMatch
		}
		return NoMatch
	}
	first.CountryCode = second.CountryCode
	if first.sameCore(&second) {
		return NSNMatch
	}
	if isNationalNumberSuffixOfTheOther(&first, &second) {
		return ShortNSNMatch
	}
	return NoMatch
}

func isNationalNumberSuffixOfTheOther(a, b *PhoneNumber) bool {
	x := strconv.FormatUint(a.NationalNumber, 10)
	y := strconv.FormatUint(b.NationalNumber, 10)
	return strings.HasSuffix(x, y) || strings.HasSuffix(y, x)
}

// IsNumberMatchWithString compares a parsed number with text. Text without
// a calling code is read in a's region and can then match at most NSNMatch.
func (e *Engine) IsNumberMatchWithString(a *PhoneNumber, text string) MatchType {
	b, err := e.Parse(text, UnknownRegion)
	if err == nil {
		return e.IsNumberMatch(a, b)
	}
	if kind, _ := KindOf(err); kind != InvalidCountryCode {
		return NotANumberMatch
	}
	region := e.RegionCodeForCountryCode(a.CountryCode)
	if region != UnknownRegion {
		b, err := e.Parse(text, region)
		if err != nil {
			return NotANumberMatch
		}
		if m := e.IsNumberMatch(a, b); m != ExactMatch {
			return m
		}
		return NSNMatch
	}
	b, err = e.parse(text, "", false, false)
	if err != nil {
		return NotANumberMatch
	}
	return e.IsNumberMatch(a, b)
}

// IsNumberMatchStrings compares two numbers given as text. Neither needs a
// calling code.
func (e *Engine) IsNumberMatchStrings(a, b string) MatchType {
	first, err := e.Parse(a, UnknownRegion)
	if err == nil {
		return e.IsNumberMatchWithString(first, b)
	}
	if kind, _ := KindOf(err); kind != InvalidCountryCode {
		return NotANumberMatch
	}
	second, err := e.Parse(b, UnknownRegion)
	if err == nil {
		return e.IsNumberMatchWithString(second, a)
	}
	if kind, _ := KindOf(err); kind != InvalidCountryCode {
		return NotANumberMatch
	}
	first, err = e.parse(a, "", false, false)
	if err != nil {
		return NotANumberMatch
	}
	second, err = e.parse(b, "", false, false)
	if err != nil {
		return NotANumberMatch
	}
	return e.IsNumberMatch(first, second)
}
