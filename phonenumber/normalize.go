package phonenumber

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const (
	plusSign = '+'

	validPunctuation = "-x\u2010-\u2015\u2212\u30FC\uFF0D-\uFF0F \u00A0\u00AD\u200B\u2060\u3000()\uFF08\uFF09\uFF3B\uFF3D.\\[\\]/~\u2053\u223C\uFF5E"
	plusChars        = "+\uFF0B"
	validAlpha       = "A-Za-z"
	digitClass       = `\p{Nd}`

	rfc3966Prefix          = "tel:"
	rfc3966PhoneContext    = ";phone-context="
	rfc3966IsdnSubaddress  = ";isub="
	rfc3966ExtnPrefix      = ";ext="
	defaultExtnPrefix      = " ext. "
	digitPlaceholder       = '\u2008'
	templateLongestNumber  = "999999999999999"
	minLeadingDigitsLength = 3
)

var (
	validPhoneNumber = digitClass + "{2}|[" + plusChars + "]*(?:[" + validPunctuation + "*]*" + digitClass + "){3,}[" +
		validPunctuation + "*" + validAlpha + digitClass + "]*"

	plusCharsPattern        = regexp.MustCompile("^[" + plusChars + "]+")
	separatorPattern        = regexp.MustCompile("[" + validPunctuation + "]+")
	leadingSeparatorPattern = regexp.MustCompile("^[" + validPunctuation + "]+")
	capturingDigitPattern   = regexp.MustCompile("(" + digitClass + ")")
	validStartCharPattern   = regexp.MustCompile("[" + plusChars + digitClass + "]")
	secondNumberStart       = regexp.MustCompile(`[\\/] *x`)
	unwantedEndChars        = regexp.MustCompile(`[^\p{N}\p{L}#]+$`)
	validAlphaPhonePattern  = regexp.MustCompile(`^(?:.*?[A-Za-z]){3}.*$`)
	validPhoneNumberPattern = regexp.MustCompile("(?i)^(?:" + validPhoneNumber + "(?:" + extnPatternsForParsing + ")?)$")
	firstGroupPattern       = regexp.MustCompile(`\$\d`)
	firstGroupOnlyPrefix    = regexp.MustCompile(`^\(?\$1\)?$`)
	singleIntlPrefix        = regexp.MustCompile("^[\\d]+(?:[~\u2053\u223C\uFF5E][\\d]+)?$")
	nonDigitsPattern        = regexp.MustCompile(`\D+`)
	nationalPrefixSeparator = regexp.MustCompile(`[- ]`)
	characterClassPattern   = regexp.MustCompile(`\[[^\[\]]*\]`)
	eligibleFormatPattern   = regexp.MustCompile("^[" + validPunctuation + "]*\\$1[" + validPunctuation + "]*(?:\\$\\d[" + validPunctuation + "]*)*$")

	rfc3966GlobalNumberDigits = regexp.MustCompile(`^\+(?:\p{Nd}|[\-\.\(\)]?)*\p{Nd}(?:\p{Nd}|[\-\.\(\)]?)*$`)
	rfc3966DomainName         = regexp.MustCompile(`^(?:[a-zA-Z\p{Nd}]+(?:-*[a-zA-Z\p{Nd}])*\.)*[a-zA-Z]+(?:-*[a-zA-Z\p{Nd}])*\.?$`)
)

var alphaMappings = map[rune]rune{
	'A': '2', 'B': '2', 'C': '2',
	'D': '3', 'E': '3', 'F': '3',
	'G': '4', 'H': '4', 'I': '4',
	'J': '5', 'K': '5', 'L': '5',
	'M': '6', 'N': '6', 'O': '6',
	'P': '7', 'Q': '7', 'R': '7', 'S': '7',
	'T': '8', 'U': '8', 'V': '8',
	'W': '9', 'X': '9', 'Y': '9', 'Z': '9',
}

// groupingSymbols keeps letters, ASCII digits and the common separators,
// folding separator variants to their ASCII form.
var groupingSymbols = func() map[rune]rune {
	m := make(map[rune]rune)
	for r := range alphaMappings {
		m[r] = r
		m[unicode.ToLower(r)] = r
	}
	for r := '0'; r <= '9'; r++ {
		m[r] = r
	}
	for _, r := range "-\uFF0D\u2010\u2011\u2012\u2013\u2014\u2015\u2212" {
		m[r] = '-'
	}
	for _, r := range "/\uFF0F" {
		m[r] = '/'
	}
	for _, r := range " \u3000\u2060" {
		m[r] = ' '
	}
	for _, r := range ".\uFF0E" {
		m[r] = '.'
	}
	return m
}()

// digitValue returns the decimal value of any Unicode decimal digit.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if r < utf8.RuneSelf || !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	// Decimal digits are allocated in contiguous runs starting at zero.
	for _, rg := range unicode.Nd.R16 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	return 0, false
}

// fold maps full-width forms to their ASCII equivalents.
func fold(s string) string {
	return width.Fold.String(s)
}

// NormalizeDigitsOnly keeps only decimal digits, converted to ASCII.
func NormalizeDigitsOnly(s string) string {
	return normalizeDigits(s, false)
}

func normalizeDigits(s string, keepNonDigits bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if d, ok := digitValue(r); ok {
			b.WriteByte(byte('0' + d))
		} else if keepNonDigits {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeDiallableCharsOnly keeps ASCII digits and the symbols + * #.
func normalizeDiallableCharsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' || r == '*' || r == '#' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ConvertAlphaCharactersInNumber replaces keypad letters with their digits
// and leaves every other character in place.
func ConvertAlphaCharactersInNumber(s string) string {
	return normalizeAlpha(s, false)
}

func normalizeAlpha(s string, removeNonMatches bool) string {
	var b strings.Builder
	for _, r := range s {
		if d, ok := alphaMappings[unicode.ToUpper(r)]; ok {
			b.WriteRune(d)
		} else if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if !removeNonMatches {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeGroupingSymbols(s string) string {
	var b strings.Builder
	for _, r := range s {
		if m, ok := groupingSymbols[r]; ok {
			b.WriteRune(m)
		}
	}
	return b.String()
}

// normalize turns vanity numbers into digits, or strips everything but
// digits when fewer than three letters are present.
func normalize(s string) string {
	if validAlphaPhonePattern.MatchString(s) {
		return normalizeAlpha(s, true)
	}
	return NormalizeDigitsOnly(s)
}

// extractPossibleNumber trims s to the span that can hold a phone number.
func extractPossibleNumber(s string) string {
	loc := validStartCharPattern.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	s = s[loc[0]:]
	if loc := unwantedEndChars.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	if loc := secondNumberStart.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return s
}

// isViablePhoneNumber is a cheap shape check run before any metadata.
func isViablePhoneNumber(s string) bool {
	if utf8.RuneCountInString(s) < minLengthForNSN {
		return false
	}
	return validPhoneNumberPattern.MatchString(s)
}

func isPhoneContextValid(ctx string) bool {
	if ctx == "" {
		return false
	}
	return rfc3966GlobalNumberDigits.MatchString(ctx) || rfc3966DomainName.MatchString(ctx)
}

func formattingRuleHasFirstGroupOnly(rule string) bool {
	return rule == "" || firstGroupOnlyPrefix.MatchString(rule)
}
