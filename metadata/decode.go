package metadata

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const intlFormatNotApplicable = "NA"

// Decode parses one plan file and normalizes it into the form the engine
// expects.
func Decode(data []byte) (*PlanMetadata, error) {
	var m PlanMetadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if err := normalize(&m); err != nil {
		return nil, fmt.Errorf("plan %s: %w", m.ID, err)
	}
	return &m, nil
}

func normalize(m *PlanMetadata) error {
	if m.ID == "" {
		return errors.New("missing id")
	}
	if m.CountryCode <= 0 || m.CountryCode > 999 {
		return fmt.Errorf("country_code must be between 1 and 999, got %d", m.CountryCode)
	}
	if m.General == nil || m.General.NationalNumberPattern == "" {
		return errors.New("general descriptor must declare a pattern")
	}

	for _, d := range m.typeDescs() {
		if *d == nil {
			*d = &NumberDesc{PossibleLengths: []int{-1}}
			continue
		}
		slices.Sort((*d).PossibleLengths)
		slices.Sort((*d).PossibleLengthsLocalOnly)
	}
	fillGeneralLengths(m)

	if m.NationalPrefixForParsing == "" {
		m.NationalPrefixForParsing = m.NationalPrefix
	}

	hasIntl := false
	for i := range m.NumberFormats {
		f := &m.NumberFormats[i]
		if f.NationalPrefixFormattingRule == "" {
			f.NationalPrefixFormattingRule = m.NationalPrefixFormattingRule
		}
		f.NationalPrefixFormattingRule = expandRule(f.NationalPrefixFormattingRule, m.NationalPrefix)
		if f.DomesticCarrierCodeFormattingRule == "" {
			f.DomesticCarrierCodeFormattingRule = m.CarrierCodeFormattingRule
		}
		f.DomesticCarrierCodeFormattingRule = expandRule(f.DomesticCarrierCodeFormattingRule, m.NationalPrefix)
		f.NationalPrefixOptionalWhenFormatting = f.NationalPrefixOptionalWhenFormatting || m.NationalPrefixOptionalWhenFormatting
		if f.IntlFormat != "" {
			hasIntl = true
		}
	}

	m.IntlNumberFormats = nil
	if hasIntl {
		for _, f := range m.NumberFormats {
			switch f.IntlFormat {
			case intlFormatNotApplicable:
				continue
			case "":
			default:
				f.Format = f.IntlFormat
			}
			f.IntlFormat = ""
			m.IntlNumberFormats = append(m.IntlNumberFormats, f)
		}
	}

	return checkPatterns(m)
}

// fillGeneralLengths derives the general descriptor's lengths from the
// declared types when the file leaves them out.
func fillGeneralLengths(m *PlanMetadata) {
	g := m.General
	if len(g.PossibleLengths) == 0 {
		for _, d := range m.typeDescs() {
			if *d == m.NoInternationalDialling || !(*d).HasPossibleNumberData() {
				continue
			}
			g.PossibleLengths = append(g.PossibleLengths, (*d).PossibleLengths...)
		}
	}
	if len(g.PossibleLengthsLocalOnly) == 0 {
		for _, d := range m.typeDescs() {
			g.PossibleLengthsLocalOnly = append(g.PossibleLengthsLocalOnly, (*d).PossibleLengthsLocalOnly...)
		}
	}
	slices.Sort(g.PossibleLengths)
	g.PossibleLengths = slices.Compact(g.PossibleLengths)
	slices.Sort(g.PossibleLengthsLocalOnly)
	g.PossibleLengthsLocalOnly = slices.Compact(g.PossibleLengthsLocalOnly)
	// Local-only lengths never overlap dialable ones.
	g.PossibleLengthsLocalOnly = slices.DeleteFunc(g.PossibleLengthsLocalOnly, g.HasLength)
}

func expandRule(rule, nationalPrefix string) string {
	if rule == "" {
		return ""
	}
	rule = strings.ReplaceAll(rule, "$NP", nationalPrefix)
	return strings.ReplaceAll(rule, "$FG", "$1")
}

// checkPatterns compiles every pattern once so a malformed file fails at
// load time rather than on the first number that reaches it.
func checkPatterns(m *PlanMetadata) error {
	var patterns []string
	add := func(p string) {
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	add(m.InternationalPrefix)
	add(m.NationalPrefixForParsing)
	add(m.LeadingDigits)
	add(m.General.NationalNumberPattern)
	for _, d := range m.typeDescs() {
		add((*d).NationalNumberPattern)
	}
	for _, f := range m.NumberFormats {
		add(f.Pattern)
		for _, ld := range f.LeadingDigitsPatterns {
			add(ld)
		}
	}
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}
