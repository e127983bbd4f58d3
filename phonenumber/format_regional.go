package phonenumber

import (
	"strconv"
	"strings"

	"github.com/allyourbase/dialplan/metadata"
)

// FormatOutOfCountryCallingNumber renders n the way it is dialled from
// regionFrom: nationally when both share a calling code, otherwise behind
// regionFrom's international prefix.
func (e *Engine) FormatOutOfCountryCallingNumber(n *PhoneNumber, regionFrom string) string {
	metaFrom := e.src.ForRegion(regionFrom)
	if metaFrom == nil {
		e.logger.Debug("unknown calling region, using international format", "region", regionFrom)
		return e.Format(n, International)
	}
	cc := n.CountryCode
	nsn := n.NationalSignificantNumber()
	if !e.hasValidCountryCallingCode(cc) {
		return nsn
	}
	if cc == nanpaCountryCode {
		if e.isNANPACountry(regionFrom) {
			return strconv.Itoa(cc) + " " + e.Format(n, National)
		}
	} else if cc == metaFrom.CountryCode {
		return e.Format(n, National)
	}

	prefix := ""
	if metaFrom.PreferredInternationalPrefix != "" {
		prefix = metaFrom.PreferredInternationalPrefix
	} else if singleIntlPrefix.MatchString(metaFrom.InternationalPrefix) {
		prefix = metaFrom.InternationalPrefix
	}

	metaFor := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))
	s := e.formatNsn(nsn, metaFor, International, "")
	s = appendExtension(n, metaFor, International, s)
	if prefix != "" {
		return prefix + " " + strconv.Itoa(cc) + " " + s
	}
	return prefixWithCallingCode(cc, International, s)
}

// FormatOutOfCountryKeepingAlphaChars is FormatOutOfCountryCallingNumber
// for vanity numbers: the letters of the raw input are kept. Without raw
// input it falls back to FormatOutOfCountryCallingNumber.
func (e *Engine) FormatOutOfCountryKeepingAlphaChars(n *PhoneNumber, regionFrom string) string {
	raw := n.RawInput
	if raw == "" {
		return e.FormatOutOfCountryCallingNumber(n, regionFrom)
	}
	cc := n.CountryCode
	if !e.hasValidCountryCallingCode(cc) {
		return raw
	}
	raw = normalizeGroupingSymbols(raw)
	nsn := n.NationalSignificantNumber()
	if len(nsn) > 3 {
		// Drop the calling code and national prefix the user typed.
		if i := strings.Index(raw, nsn[:3]); i >= 0 {
			raw = raw[i:]
		}
	}

	metaFrom := e.src.ForRegion(regionFrom)
	if cc == nanpaCountryCode {
		if e.isNANPACountry(regionFrom) {
			return strconv.Itoa(cc) + " " + raw
		}
	} else if metaFrom != nil && cc == metaFrom.CountryCode {
		chosen := e.chooseFormattingPattern(metaFrom.NumberFormats, nsn)
		if chosen == nil {
			return raw
		}
		// Apply the national prefix rule to the typed text as a whole.
		rule := *chosen
		rule.Pattern = `(\d+)(.*)`
		rule.Format = "$1$2"
		return e.formatNsnUsingPattern(raw, &rule, National, "")
	}

	prefix := ""
	if metaFrom != nil {
		if ip := metaFrom.InternationalPrefix; singleIntlPrefix.MatchString(ip) {
			prefix = ip
		} else {
			prefix = metaFrom.PreferredInternationalPrefix
		}
	}

	metaFor := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))
	s := appendExtension(n, metaFor, International, raw)
	if prefix != "" {
		return prefix + " " + strconv.Itoa(cc) + " " + s
	}
	if metaFrom == nil {
		e.logger.Debug("unknown calling region, using international format", "region", regionFrom)
	}
	return prefixWithCallingCode(cc, International, s)
}

// FormatInOriginalFormat renders n in the shape it was typed, as recorded
// by ParseAndKeepRawInput. The raw input is returned when the rendering
// would change the diallable characters.
func (e *Engine) FormatInOriginalFormat(n *PhoneNumber, regionFrom string) string {
	if n.RawInput != "" && !e.hasFormattingPatternForNumber(n) {
		return n.RawInput
	}
	if n.CountryCodeSource == SourceUnspecified {
		return e.Format(n, National)
	}

	var s string
	switch n.CountryCodeSource {
	case FromNumberWithPlusSign:
		s = e.Format(n, International)
	case FromNumberWithIDD:
		s = e.FormatOutOfCountryCallingNumber(n, regionFrom)
	case FromNumberWithoutPlusSign:
		s = e.Format(n, International)[1:]
	default:
		s = e.formatAsTypedNationally(n)
	}

	if s != "" && n.RawInput != "" &&
		normalizeDiallableCharsOnly(s) != normalizeDiallableCharsOnly(n.RawInput) {
		return n.RawInput
	}
	return s
}

// formatAsTypedNationally renders a number typed in national form,
// dropping the national prefix when the user left it out.
func (e *Engine) formatAsTypedNationally(n *PhoneNumber) string {
	national := e.Format(n, National)
	region := e.RegionCodeForCountryCode(n.CountryCode)
	np, _ := e.NationalPrefixForRegion(region, true)
	if np == "" || e.rawInputContainsNationalPrefix(n.RawInput, np, region) {
		return national
	}
	meta := e.src.ForRegion(region)
	if meta == nil {
		return national
	}
	chosen := e.chooseFormattingPattern(meta.NumberFormats, n.NationalSignificantNumber())
	if chosen == nil {
		return national
	}
	npRule := chosen.NationalPrefixFormattingRule
	idx := strings.Index(npRule, "$1")
	if idx <= 0 || NormalizeDigitsOnly(npRule[:idx]) == "" {
		return national
	}
	rule := *chosen
	rule.NationalPrefixFormattingRule = ""
	return e.FormatByPattern(n, National, []metadata.NumberFormat{rule})
}

func (e *Engine) rawInputContainsNationalPrefix(raw, np, region string) bool {
	digits := NormalizeDigitsOnly(raw)
	rest, ok := strings.CutPrefix(digits, np)
	if !ok {
		return false
	}
	p, err := e.Parse(rest, region)
	return err == nil && e.IsValidNumber(p)
}

func (e *Engine) hasFormattingPatternForNumber(n *PhoneNumber) bool {
	cc := n.CountryCode
	meta := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))
	if meta == nil {
		return false
	}
	return e.chooseFormattingPattern(meta.NumberFormats, n.NationalSignificantNumber()) != nil
}
