package phonenumber

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Leniency is how strictly a candidate found in free text must look like
// the number it parsed to. Each level includes the checks of the one
// before it.
type Leniency int

const (
	// Possible accepts any number with a possible length.
	Possible Leniency = iota
	// Valid also requires a valid number, a national prefix where the plan
	// demands one, and "x" used only for extensions or carrier codes.
	Valid
	// StrictGrouping also requires the digits of each formatting group to
	// stay together, and at most one slash.
	StrictGrouping
	// ExactGrouping also requires the groups to be split exactly as the
	// plan formats them.
	ExactGrouping
)

var leniencyNames = [...]string{
	Possible:       "POSSIBLE",
	Valid:          "VALID",
	StrictGrouping: "STRICT_GROUPING",
	ExactGrouping:  "EXACT_GROUPING",
}

func (l Leniency) String() string {
	if l >= 0 && int(l) < len(leniencyNames) {
		return leniencyNames[l]
	}
	return fmt.Sprintf("Leniency(%d)", int(l))
}

// ParseLeniency accepts the names returned by Leniency.String,
// case-insensitively.
func ParseLeniency(s string) (Leniency, error) {
	for i, name := range leniencyNames {
		if strings.EqualFold(s, name) {
			return Leniency(i), nil
		}
	}
	return 0, fmt.Errorf("unknown leniency %q", s)
}

// Verify reports whether candidate, the text n was parsed from, is
// acceptable at leniency l. n should come from ParseAndKeepRawInput so
// the calling-code source and raw input are known.
func (e *Engine) Verify(l Leniency, n *PhoneNumber, candidate string) bool {
	switch l {
	case Possible:
		return e.IsPossibleNumber(n)
	case Valid:
		return e.verifyValid(n, candidate)
	case StrictGrouping:
		return e.verifyGrouped(n, candidate, e.allNumberGroupsRemainGrouped)
	case ExactGrouping:
		return e.verifyGrouped(n, candidate, e.allNumberGroupsAreExactlyPresent)
	default:
		return false
	}
}

func (e *Engine) verifyValid(n *PhoneNumber, candidate string) bool {
	return e.IsValidNumber(n) &&
		e.containsOnlyValidXChars(n, candidate) &&
		e.isNationalPrefixPresentIfRequired(n)
}

type groupChecker func(n *PhoneNumber, normalized string, groups []string) bool

func (e *Engine) verifyGrouped(n *PhoneNumber, candidate string, check groupChecker) bool {
	if !e.verifyValid(n, candidate) || containsMoreThanOneSlash(n, candidate) {
		return false
	}
	return check(n, normalizeDigits(candidate, true), e.nationalNumberGroups(n))
}

// containsOnlyValidXChars accepts "xx" only before a carrier-coded
// national number and a single "x" only before the extension.
func (e *Engine) containsOnlyValidXChars(n *PhoneNumber, candidate string) bool {
	rs := []rune(candidate)
	for i := 0; i < len(rs)-1; i++ {
		if rs[i] != 'x' && rs[i] != 'X' {
			continue
		}
		if next := rs[i+1]; next == 'x' || next == 'X' {
			i++
			if e.IsNumberMatchWithString(n, string(rs[i:])) != NSNMatch {
				return false
			}
		} else if NormalizeDigitsOnly(string(rs[i:])) != n.Extension {
			return false
		}
	}
	return true
}

// isNationalPrefixPresentIfRequired checks numbers typed in national form
// carry the national prefix when their format rule cannot drop it.
func (e *Engine) isNationalPrefixPresentIfRequired(n *PhoneNumber) bool {
	if n.CountryCodeSource != FromDefaultCountry {
		return true
	}
	meta := e.src.ForRegion(e.RegionCodeForCountryCode(n.CountryCode))
	if meta == nil {
		return true
	}
	rule := e.chooseFormattingPattern(meta.NumberFormats, n.NationalSignificantNumber())
	if rule == nil || rule.NationalPrefixFormattingRule == "" {
		return true
	}
	if rule.NationalPrefixOptionalWhenFormatting || formattingRuleHasFirstGroupOnly(rule.NationalPrefixFormattingRule) {
		return true
	}
	_, _, ok := e.maybeStripNationalPrefixAndCarrierCode(NormalizeDigitsOnly(n.RawInput), meta)
	return ok
}

// containsMoreThanOneSlash allows a second slash only when the first one
// follows the calling code.
func containsMoreThanOneSlash(n *PhoneNumber, candidate string) bool {
	first := strings.IndexByte(candidate, '/')
	if first < 0 {
		return false
	}
	second := strings.IndexByte(candidate[first+1:], '/')
	if second < 0 {
		return false
	}
	second += first + 1
	hasCountryCode := n.CountryCodeSource == FromNumberWithPlusSign || n.CountryCodeSource == FromNumberWithoutPlusSign
	if hasCountryCode && NormalizeDigitsOnly(candidate[:first]) == strconv.Itoa(n.CountryCode) {
		return strings.Contains(candidate[second+1:], "/")
	}
	return true
}

// nationalNumberGroups splits the RFC3966 rendering of n into its digit
// groups, calling code and extension excluded.
func (e *Engine) nationalNumberGroups(n *PhoneNumber) []string {
	s := e.Format(n, RFC3966)
	end := strings.IndexByte(s, ';')
	if end < 0 {
		end = len(s)
	}
	start := strings.IndexByte(s, '-') + 1
	if start > end {
		return nil
	}
	return strings.Split(s[start:end], "-")
}

func (e *Engine) allNumberGroupsRemainGrouped(n *PhoneNumber, normalized string, groups []string) bool {
	from := 0
	if n.CountryCodeSource != FromDefaultCountry {
		cc := strconv.Itoa(n.CountryCode)
		from = strings.Index(normalized, cc) + len(cc)
	}
	for i, g := range groups {
		idx := indexFrom(normalized, g, from)
		if idx < 0 {
			return false
		}
		from = idx + len(g)
		if i == 0 && from < len(normalized) {
			// Digits running straight on from the area code are only
			// accepted when the whole number is written unbroken.
			region := e.RegionCodeForCountryCode(n.CountryCode)
			np, ok := e.NationalPrefixForRegion(region, true)
			if ok && np != "" && isASCIIDigit(normalized[from]) {
				return strings.HasPrefix(normalized[from-len(g):], n.NationalSignificantNumber())
			}
		}
	}
	return strings.Contains(normalized[from:], n.Extension)
}

func (e *Engine) allNumberGroupsAreExactlyPresent(n *PhoneNumber, normalized string, groups []string) bool {
	candidateGroups := splitDropTrailingEmpty(nonDigitsPattern.Split(normalized, -1))
	ci := len(candidateGroups) - 1
	if n.Extension != "" {
		ci--
	}
	if len(candidateGroups) == 1 || (ci >= 0 && strings.Contains(candidateGroups[ci], n.NationalSignificantNumber())) {
		return true
	}
	gi := len(groups) - 1
	for ; gi > 0 && ci >= 0; gi, ci = gi-1, ci-1 {
		if candidateGroups[ci] != groups[gi] {
			return false
		}
	}
	return ci >= 0 && len(groups) > 0 && strings.HasSuffix(candidateGroups[ci], groups[0])
}

func indexFrom(s, sub string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

// splitDropTrailingEmpty removes the empty strings a split leaves after a
// trailing separator.
func splitDropTrailingEmpty(parts []string) []string {
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func isASCIIDigit(b byte) bool {
	return b < 0x80 && unicode.IsDigit(rune(b))
}
