// Package metadata holds numbering-plan descriptors and the providers that
// load them. The engine in package phonenumber consumes plans through the
// Source interface and never mutates them.
package metadata

import "slices"

// NonGeoRegion is the region id used for plans keyed by calling code alone
// (international freephone and similar services).
const NonGeoRegion = "001"

// NumberFormat is one formatting rule of a plan.
type NumberFormat struct {
	// Pattern must match the whole national significant number.
	Pattern string `yaml:"pattern"`
	// Format is the output template, referencing Pattern's groups as $1..$9.
	Format string `yaml:"format"`
	// LeadingDigitsPatterns are prefix filters, least specific first.
	LeadingDigitsPatterns []string `yaml:"leading_digits"`
	// NationalPrefixFormattingRule replaces the first group of Format in
	// national rendering. "$1" inside it stands for that first group.
	NationalPrefixFormattingRule         string `yaml:"national_prefix_formatting_rule"`
	NationalPrefixOptionalWhenFormatting bool   `yaml:"national_prefix_optional_when_formatting"`
	// DomesticCarrierCodeFormattingRule is like NationalPrefixFormattingRule
	// and additionally references the carrier code as $CC.
	DomesticCarrierCodeFormattingRule string `yaml:"carrier_code_formatting_rule"`

	// IntlFormat is only read from data files. "NA" excludes the rule from
	// international rendering.
	IntlFormat string `yaml:"intl_format,omitempty"`
}

// LeadingDigits returns the most specific leading-digits pattern, or "".
func (f *NumberFormat) LeadingDigits() string {
	if len(f.LeadingDigitsPatterns) == 0 {
		return ""
	}
	return f.LeadingDigitsPatterns[len(f.LeadingDigitsPatterns)-1]
}

// NumberDesc describes one number type of a plan.
type NumberDesc struct {
	NationalNumberPattern string `yaml:"pattern"`
	// PossibleLengths is sorted ascending. A single -1 means the type does
	// not exist in the plan. Empty means "same as the general descriptor".
	PossibleLengths          []int  `yaml:"lengths"`
	PossibleLengthsLocalOnly []int  `yaml:"local_lengths"`
	ExampleNumber            string `yaml:"example"`
}

// HasPossibleNumberData reports whether the descriptor declares the type.
func (d *NumberDesc) HasPossibleNumberData() bool {
	return d != nil && !(len(d.PossibleLengths) == 1 && d.PossibleLengths[0] == -1)
}

// HasLength reports whether n is one of the declared possible lengths.
func (d *NumberDesc) HasLength(n int) bool {
	return slices.Contains(d.PossibleLengths, n)
}

// PlanMetadata is the numbering plan of one region, or of one
// non-geographic calling code.
type PlanMetadata struct {
	ID                           string `yaml:"id"`
	CountryCode                  int    `yaml:"country_code"`
	InternationalPrefix          string `yaml:"international_prefix"`
	PreferredInternationalPrefix string `yaml:"preferred_international_prefix"`
	NationalPrefix               string `yaml:"national_prefix"`
	PreferredExtnPrefix          string `yaml:"preferred_extn_prefix"`
	NationalPrefixForParsing     string `yaml:"national_prefix_for_parsing"`
	NationalPrefixTransformRule  string `yaml:"national_prefix_transform_rule"`

	// Plan-wide defaults copied into formats that do not set their own.
	NationalPrefixFormattingRule         string `yaml:"national_prefix_formatting_rule"`
	NationalPrefixOptionalWhenFormatting bool   `yaml:"national_prefix_optional_when_formatting"`
	CarrierCodeFormattingRule            string `yaml:"carrier_code_formatting_rule"`

	SameMobileAndFixedLinePattern bool   `yaml:"same_mobile_and_fixed_line_pattern"`
	MainCountryForCode            bool   `yaml:"main_country_for_code"`
	LeadingDigits                 string `yaml:"leading_digits"`
	LeadingZeroPossible           bool   `yaml:"leading_zero_possible"`
	MobileNumberPortableRegion    bool   `yaml:"mobile_number_portable_region"`

	General                 *NumberDesc `yaml:"general"`
	FixedLine               *NumberDesc `yaml:"fixed_line"`
	Mobile                  *NumberDesc `yaml:"mobile"`
	TollFree                *NumberDesc `yaml:"toll_free"`
	PremiumRate             *NumberDesc `yaml:"premium_rate"`
	SharedCost              *NumberDesc `yaml:"shared_cost"`
	PersonalNumber          *NumberDesc `yaml:"personal_number"`
	VoIP                    *NumberDesc `yaml:"voip"`
	Pager                   *NumberDesc `yaml:"pager"`
	UAN                     *NumberDesc `yaml:"uan"`
	Voicemail               *NumberDesc `yaml:"voicemail"`
	NoInternationalDialling *NumberDesc `yaml:"no_international_dialling"`

	NumberFormats []NumberFormat `yaml:"formats"`
	// IntlNumberFormats is empty when international rendering uses
	// NumberFormats unchanged.
	IntlNumberFormats []NumberFormat `yaml:"-"`
}

// IsNonGeographic reports whether the plan is keyed by calling code only.
func (m *PlanMetadata) IsNonGeographic() bool {
	return m.ID == NonGeoRegion
}

// typeDescs returns the type descriptors in declaration order, excluding
// the general one.
func (m *PlanMetadata) typeDescs() []**NumberDesc {
	return []**NumberDesc{
		&m.FixedLine, &m.Mobile, &m.TollFree, &m.PremiumRate, &m.SharedCost,
		&m.PersonalNumber, &m.VoIP, &m.Pager, &m.UAN, &m.Voicemail,
		&m.NoInternationalDialling,
	}
}
