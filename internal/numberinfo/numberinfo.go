// Package numberinfo builds the JSON-friendly reports shared by the CLI and
// the HTTP API.
package numberinfo

import (
	"sort"

	"github.com/allyourbase/dialplan/phonenumber"
)

// Formats holds every rendering of one number.
type Formats struct {
	E164          string `json:"e164"`
	International string `json:"international"`
	National      string `json:"national"`
	RFC3966       string `json:"rfc3966"`
	OutOfCountry  string `json:"out_of_country,omitempty"`
	Original      string `json:"original,omitempty"`
}

// Number is the full report for a parsed number.
type Number struct {
	Input                        string  `json:"input,omitempty"`
	CountryCode                  int     `json:"country_code"`
	NationalNumber               uint64  `json:"national_number"`
	NationalSignificantNumber    string  `json:"national_significant_number"`
	LeadingZeros                 int     `json:"leading_zeros,omitempty"`
	Extension                    string  `json:"extension,omitempty"`
	CountryCodeSource            string  `json:"country_code_source,omitempty"`
	PreferredDomesticCarrierCode string  `json:"preferred_domestic_carrier_code,omitempty"`
	Region                       string  `json:"region"`
	Type                         string  `json:"type"`
	Valid                        bool    `json:"valid"`
	Possible                     bool    `json:"possible"`
	PossibleReason               string  `json:"possible_reason"`
	Geographical                 bool    `json:"geographical"`
	InternationallyDiallable     bool    `json:"internationally_diallable"`
	Formats                      Formats `json:"formats"`
}

// Describe reports on n. from is the region the number would be dialled
// from; when empty the out-of-country and original renderings are omitted.
func Describe(e *phonenumber.Engine, n *phonenumber.PhoneNumber, from string) Number {
	reason := e.IsPossibleNumberWithReason(n)
	info := Number{
		Input:                        n.RawInput,
		CountryCode:                  n.CountryCode,
		NationalNumber:               n.NationalNumber,
		NationalSignificantNumber:    e.GetNationalSignificantNumber(n),
		LeadingZeros:                 n.LeadingZeros,
		Extension:                    n.Extension,
		PreferredDomesticCarrierCode: n.PreferredDomesticCarrierCode,
		Region:                       e.RegionCodeForNumber(n),
		Type:                         e.GetNumberType(n).String(),
		Valid:                        e.IsValidNumber(n),
		Possible:                     reason == phonenumber.IsPossible || reason == phonenumber.IsPossibleLocalOnly,
		PossibleReason:               reason.String(),
		Geographical:                 e.IsNumberGeographical(n),
		InternationallyDiallable:     e.CanBeInternationallyDialled(n),
		Formats: Formats{
			E164:          e.Format(n, phonenumber.E164),
			International: e.Format(n, phonenumber.International),
			National:      e.Format(n, phonenumber.National),
			RFC3966:       e.Format(n, phonenumber.RFC3966),
		},
	}
	if n.CountryCodeSource != phonenumber.SourceUnspecified {
		info.CountryCodeSource = n.CountryCodeSource.String()
	}
	if from != "" {
		info.Formats.OutOfCountry = e.FormatOutOfCountryCallingNumber(n, from)
		info.Formats.Original = e.FormatInOriginalFormat(n, from)
	}
	return info
}

// Region summarizes one region's plan.
type Region struct {
	Region         string `json:"region"`
	CountryCode    int    `json:"country_code"`
	NationalPrefix string `json:"national_prefix,omitempty"`
	MainForCode    bool   `json:"main_for_code"`
	Example        string `json:"example,omitempty"`
}

// DescribeRegion reports on region. ok is false when no plan exists for it.
func DescribeRegion(e *phonenumber.Engine, region string) (Region, bool) {
	cc := e.CountryCodeForRegion(region)
	if cc == 0 {
		return Region{}, false
	}
	np, _ := e.NationalPrefixForRegion(region, true)
	r := Region{
		Region:         region,
		CountryCode:    cc,
		NationalPrefix: np,
		MainForCode:    e.RegionCodeForCountryCode(cc) == region,
	}
	if n, ok := e.GetExampleNumber(region); ok {
		r.Example = e.Format(n, phonenumber.International)
	}
	return r, true
}

// Regions reports on every supported region, sorted by region code.
func Regions(e *phonenumber.Engine) []Region {
	codes := append([]string(nil), e.SupportedRegions()...)
	sort.Strings(codes)
	out := make([]Region, 0, len(codes))
	for _, code := range codes {
		if r, ok := DescribeRegion(e, code); ok {
			out = append(out, r)
		}
	}
	return out
}

// Example is an example number of a given type.
type Example struct {
	Region string `json:"region"`
	Type   string `json:"type"`
	Number Number `json:"number"`
}
