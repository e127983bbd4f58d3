package phonenumber

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coregx/ahocorasick"
)

const (
	extLimitAfterExplicitLabel = 20
	extLimitAfterLikelyLabel   = 15
	extLimitAfterAmbiguousChar = 9
	extLimitWhenNotSure        = 6

	sepBetweenNumberAndExtLabel = "[ \u00A0\\t,]*"
	charsAfterExtLabel          = "[:\\.\uFF0E]?[ \u00A0\\t,-]*"
	optionalExtnSuffix          = "#?"
	explicitExtLabels           = "(?:e?xt(?:ensi(?:o\u0301?|\u00F3))?n?|\uFF45?\uFF58\uFF54\uFF4E?|\u0434\u043E\u0431|anexo)"
	ambiguousExtLabels          = "(?:[x\uFF58#\uFF03~\uFF5E]|int|\uFF49\uFF4E\uFF54)"
	ambiguousSeparator          = "[- ]+"
	sepNumberExtLabelNoComma    = "[ \u00A0\\t]*"
	autoDiallingAndExtLabels    = "(?:,{2}|;)"
)

func extnDigits(max int) string {
	return "(" + digitClass + "{1," + strconv.Itoa(max) + "})"
}

// extnPatterns builds the alternation of extension markers. The parsing
// variant also accepts auto-dial separators (",," ";" ",").
func extnPatterns(forParsing bool) string {
	rfc := rfc3966ExtnPrefix + extnDigits(extLimitAfterExplicitLabel)
	explicit := sepBetweenNumberAndExtLabel + explicitExtLabels + charsAfterExtLabel +
		extnDigits(extLimitAfterExplicitLabel) + optionalExtnSuffix
	ambiguous := sepBetweenNumberAndExtLabel + ambiguousExtLabels + charsAfterExtLabel +
		extnDigits(extLimitAfterAmbiguousChar) + optionalExtnSuffix
	american := ambiguousSeparator + extnDigits(extLimitWhenNotSure) + "#"

	p := rfc + "|" + explicit + "|" + ambiguous + "|" + american
	if !forParsing {
		return p
	}
	autoDial := sepNumberExtLabelNoComma + autoDiallingAndExtLabels + charsAfterExtLabel +
		extnDigits(extLimitAfterLikelyLabel) + optionalExtnSuffix
	onlyCommas := sepNumberExtLabelNoComma + "(?:,)+" + charsAfterExtLabel +
		extnDigits(extLimitAfterAmbiguousChar) + optionalExtnSuffix
	return p + "|" + autoDial + "|" + onlyCommas
}

var (
	extnPatternsForParsing = extnPatterns(true)
	extnPattern            = regexp.MustCompile("(?i)(?:" + extnPatternsForParsing + ")$")

	// extnMarkers holds a literal that every extension marker contains, so
	// inputs without any of them skip the extension regex. Input is lowered
	// before the scan.
	extnMarkers = mustMarkerAutomaton(
		"x", "\uFF58", "#", "\uFF03", "~", "\uFF5E", "int", "\uFF49\uFF4E\uFF54",
		"\u0434\u043E\u0431", "anexo", ",", ";",
	)
)

func mustMarkerAutomaton(literals ...string) *ahocorasick.Automaton {
	b := ahocorasick.NewBuilder()
	for _, l := range literals {
		b.AddPattern([]byte(l))
	}
	a, err := b.Build()
	if err != nil {
		panic("phonenumber: building extension marker automaton: " + err.Error())
	}
	return a
}

func mayHaveExtension(s string) bool {
	return extnMarkers.IsMatch([]byte(strings.ToLower(s)))
}

// maybeStripExtension splits a trailing extension off number. The number
// part is returned unchanged when the remainder would not be viable.
func maybeStripExtension(number string) (rest, ext string) {
	if !mayHaveExtension(number) {
		return number, ""
	}
	m := extnPattern.FindStringSubmatchIndex(number)
	if m == nil || !isViablePhoneNumber(number[:m[0]]) {
		return number, ""
	}
	for i := 2; i < len(m); i += 2 {
		if m[i] >= 0 {
			return number[:m[0]], number[m[i]:m[i+1]]
		}
	}
	return number, ""
}
