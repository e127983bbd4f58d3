package phonenumber

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/allyourbase/dialplan/metadata"
)

var dollarGroup = regexp.MustCompile(`\$(\d)`)

// goTemplate rewrites "$1" group references as "${1}" so a digit or
// letter right after the reference is not read as part of the group name.
func goTemplate(t string) string {
	return dollarGroup.ReplaceAllString(t, "$${${1}}")
}

// expand renders template with the groups of re matched against s. s is
// returned unchanged when re does not match.
func expand(re *regexp.Regexp, template, s string) string {
	m := re.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	return s[:m[0]] + string(re.ExpandString(nil, goTemplate(template), s, m)) + s[m[1]:]
}

// replaceFirstGroup substitutes rule for the first group reference of
// format. "$1" inside rule stands for the reference it replaces.
func replaceFirstGroup(format, rule string) string {
	loc := firstGroupPattern.FindStringIndex(format)
	if loc == nil {
		return format
	}
	token := format[loc[0]:loc[1]]
	return format[:loc[0]] + strings.ReplaceAll(rule, "$1", token) + format[loc[1]:]
}

// Format renders n in one of the standard conventions. Numbers with an
// unknown calling code come back as their bare national significant
// number.
func (e *Engine) Format(n *PhoneNumber, f Format) string {
	cc := n.CountryCode
	nsn := n.NationalSignificantNumber()
	if f == E164 {
		return prefixWithCallingCode(cc, E164, nsn)
	}
	if n.NationalNumber == 0 && n.RawInput != "" {
		return n.RawInput
	}
	if !e.hasValidCountryCallingCode(cc) {
		return nsn
	}
	meta := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))
	s := e.formatNsn(nsn, meta, f, "")
	s = appendExtension(n, meta, f, s)
	return prefixWithCallingCode(cc, f, s)
}

// FormatNationalNumberWithCarrierCode renders n nationally, dialled through
// the given domestic carrier.
func (e *Engine) FormatNationalNumberWithCarrierCode(n *PhoneNumber, carrier string) string {
	cc := n.CountryCode
	nsn := n.NationalSignificantNumber()
	if !e.hasValidCountryCallingCode(cc) {
		return nsn
	}
	meta := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))
	s := e.formatNsn(nsn, meta, National, carrier)
	s = appendExtension(n, meta, National, s)
	return prefixWithCallingCode(cc, National, s)
}

// FormatNationalNumberWithPreferredCarrierCode uses the carrier code
// recorded at parse time, or fallback when none was.
func (e *Engine) FormatNationalNumberWithPreferredCarrierCode(n *PhoneNumber, fallback string) string {
	carrier := fallback
	if n.PreferredDomesticCarrierCode != "" {
		carrier = n.PreferredDomesticCarrierCode
	}
	return e.FormatNationalNumberWithCarrierCode(n, carrier)
}

// FormatByPattern renders n using caller-supplied rules instead of the
// plan's own. "$NP" and "$FG" in a rule's national prefix formatting rule
// stand for the national prefix and the first group.
func (e *Engine) FormatByPattern(n *PhoneNumber, f Format, rules []metadata.NumberFormat) string {
	cc := n.CountryCode
	nsn := n.NationalSignificantNumber()
	if !e.hasValidCountryCallingCode(cc) {
		return nsn
	}
	meta := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))

	s := nsn
	if chosen := e.chooseFormattingPattern(rules, nsn); chosen != nil {
		rule := *chosen
		if npRule := rule.NationalPrefixFormattingRule; npRule != "" {
			np := ""
			if meta != nil {
				np = meta.NationalPrefix
			}
			if np != "" {
				npRule = strings.Replace(npRule, "$NP", np, 1)
				rule.NationalPrefixFormattingRule = strings.Replace(npRule, "$FG", "$1", 1)
			} else {
				rule.NationalPrefixFormattingRule = ""
			}
		}
		s = e.formatNsnUsingPattern(nsn, &rule, f, "")
	}
	s = appendExtension(n, meta, f, s)
	return prefixWithCallingCode(cc, f, s)
}

func prefixWithCallingCode(cc int, f Format, s string) string {
	code := strconv.Itoa(cc)
	switch f {
	case E164:
		return "+" + code + s
	case International:
		return "+" + code + " " + s
	case RFC3966:
		return rfc3966Prefix + "+" + code + "-" + s
	default:
		return s
	}
}

func (e *Engine) formatNsn(nsn string, meta *metadata.PlanMetadata, f Format, carrier string) string {
	if meta == nil {
		return nsn
	}
	rules := meta.NumberFormats
	if len(meta.IntlNumberFormats) > 0 && f != National {
		rules = meta.IntlNumberFormats
	}
	rule := e.chooseFormattingPattern(rules, nsn)
	if rule == nil {
		return nsn
	}
	return e.formatNsnUsingPattern(nsn, rule, f, carrier)
}

// chooseFormattingPattern returns the first rule whose most specific
// leading-digits pattern and full pattern both accept nsn.
func (e *Engine) chooseFormattingPattern(rules []metadata.NumberFormat, nsn string) *metadata.NumberFormat {
	for i := range rules {
		r := &rules[i]
		if ld := r.LeadingDigits(); ld != "" && !e.patterns.MatchPrefix(ld, nsn) {
			continue
		}
		if e.patterns.MatchFull(r.Pattern, nsn) {
			return r
		}
	}
	return nil
}

func (e *Engine) formatNsnUsingPattern(nsn string, rule *metadata.NumberFormat, f Format, carrier string) string {
	format := rule.Format
	re := e.patterns.Full(rule.Pattern)

	var out string
	switch {
	case f == National && carrier != "" && rule.DomesticCarrierCodeFormattingRule != "":
		ccRule := strings.Replace(rule.DomesticCarrierCodeFormattingRule, "$CC", carrier, 1)
		out = expand(re, replaceFirstGroup(format, ccRule), nsn)
	case f == National && rule.NationalPrefixFormattingRule != "":
		out = expand(re, replaceFirstGroup(format, rule.NationalPrefixFormattingRule), nsn)
	default:
		out = expand(re, format, nsn)
	}

	if f == RFC3966 {
		out = leadingSeparatorPattern.ReplaceAllString(out, "")
		out = separatorPattern.ReplaceAllString(out, "-")
	}
	return out
}

func appendExtension(n *PhoneNumber, meta *metadata.PlanMetadata, f Format, s string) string {
	if n.Extension == "" {
		return s
	}
	switch {
	case f == RFC3966:
		return s + rfc3966ExtnPrefix + n.Extension
	case meta != nil && meta.PreferredExtnPrefix != "":
		return s + meta.PreferredExtnPrefix + n.Extension
	default:
		return s + defaultExtnPrefix + n.Extension
	}
}

// GetNationalSignificantNumber returns the digits of n after the calling
// code, with any leading zeros.
func (e *Engine) GetNationalSignificantNumber(n *PhoneNumber) string {
	return n.NationalSignificantNumber()
}
