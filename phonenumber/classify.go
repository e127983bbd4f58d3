package phonenumber

import (
	"github.com/allyourbase/dialplan/metadata"
)

// GetNumberType classifies n by service. Numbers matching no declared type
// are Unknown.
func (e *Engine) GetNumberType(n *PhoneNumber) NumberType {
	region := e.RegionCodeForNumber(n)
	meta := e.metadataForRegionOrCallingCode(n.CountryCode, region)
	if meta == nil {
		return Unknown
	}
	return e.numberTypeHelper(n.NationalSignificantNumber(), meta)
}

func (e *Engine) numberTypeHelper(nsn string, meta *metadata.PlanMetadata) NumberType {
	if !e.isNumberMatchingDesc(nsn, meta.General) {
		return Unknown
	}
	ordered := []struct {
		desc *metadata.NumberDesc
		t    NumberType
	}{
		{meta.PremiumRate, PremiumRate},
		{meta.TollFree, TollFree},
		{meta.SharedCost, SharedCost},
		{meta.VoIP, VoIP},
		{meta.PersonalNumber, PersonalNumber},
		{meta.Pager, Pager},
		{meta.UAN, UAN},
		{meta.Voicemail, Voicemail},
	}
	for _, o := range ordered {
		if e.isNumberMatchingDesc(nsn, o.desc) {
			return o.t
		}
	}

	if e.isNumberMatchingDesc(nsn, meta.FixedLine) {
		if meta.SameMobileAndFixedLinePattern || e.isNumberMatchingDesc(nsn, meta.Mobile) {
			return FixedLineOrMobile
		}
		return FixedLine
	}
	if !meta.SameMobileAndFixedLinePattern && e.isNumberMatchingDesc(nsn, meta.Mobile) {
		return Mobile
	}
	return Unknown
}

// isNumberMatchingDesc runs the length check before the pattern so most
// types are rejected without touching a regex.
func (e *Engine) isNumberMatchingDesc(nsn string, desc *metadata.NumberDesc) bool {
	if desc == nil {
		return false
	}
	if len(desc.PossibleLengths) > 0 && !desc.HasLength(len(nsn)) {
		return false
	}
	return e.matchNationalNumber(nsn, desc)
}

// IsValidNumber reports whether n matches a number type of the region its
// calling code and leading digits resolve to.
func (e *Engine) IsValidNumber(n *PhoneNumber) bool {
	return e.IsValidNumberForRegion(n, e.RegionCodeForNumber(n))
}

// IsValidNumberForRegion reports whether n is a valid number of region.
func (e *Engine) IsValidNumberForRegion(n *PhoneNumber, region string) bool {
	meta := e.metadataForRegionOrCallingCode(n.CountryCode, region)
	if meta == nil {
		return false
	}
	if region != metadata.NonGeoRegion && n.CountryCode != meta.CountryCode {
		return false
	}
	return e.numberTypeHelper(n.NationalSignificantNumber(), meta) != Unknown
}

// RegionCodeForNumber resolves the region n belongs to. Regions sharing a
// calling code are told apart by their leading-digits pattern, then by
// full classification. UnknownRegion is returned when none fits.
func (e *Engine) RegionCodeForNumber(n *PhoneNumber) string {
	regions := e.src.RegionsForCallingCode(n.CountryCode)
	switch len(regions) {
	case 0:
		e.logger.Debug("missing or invalid calling code", "calling_code", n.CountryCode)
		return UnknownRegion
	case 1:
		return regions[0]
	}
	return e.regionCodeFromList(n, regions)
}

func (e *Engine) regionCodeFromList(n *PhoneNumber, regions []string) string {
	nsn := n.NationalSignificantNumber()
	for _, r := range regions {
		meta := e.src.ForRegion(r)
		if meta == nil {
			continue
		}
		if meta.LeadingDigits != "" {
			if e.patterns.MatchPrefix(meta.LeadingDigits, nsn) {
				return r
			}
		} else if e.numberTypeHelper(nsn, meta) != Unknown {
			return r
		}
	}
	return UnknownRegion
}

// IsPossibleNumber reports whether n has a dialable length, including
// lengths only diallable locally.
func (e *Engine) IsPossibleNumber(n *PhoneNumber) bool {
	return e.IsPossibleNumberForType(n, Unknown)
}

// IsPossibleNumberForType is IsPossibleNumber restricted to the lengths
// declared for t.
func (e *Engine) IsPossibleNumberForType(n *PhoneNumber, t NumberType) bool {
	r := e.IsPossibleNumberForTypeWithReason(n, t)
	return r == IsPossible || r == IsPossibleLocalOnly
}

// IsPossibleNumberWithReason explains the outcome of IsPossibleNumber.
func (e *Engine) IsPossibleNumberWithReason(n *PhoneNumber) ValidationResult {
	return e.IsPossibleNumberForTypeWithReason(n, Unknown)
}

// IsPossibleNumberForTypeWithReason explains the outcome of
// IsPossibleNumberForType.
func (e *Engine) IsPossibleNumberForTypeWithReason(n *PhoneNumber, t NumberType) ValidationResult {
	cc := n.CountryCode
	if !e.hasValidCountryCallingCode(cc) {
		return InvalidCallingCode
	}
	meta := e.metadataForRegionOrCallingCode(cc, e.RegionCodeForCountryCode(cc))
	if meta == nil {
		return InvalidCallingCode
	}
	return e.testNumberLength(n.NationalSignificantNumber(), meta, t)
}

// CanBeInternationallyDialled is false only for numbers the plan marks as
// reachable from within the country alone.
func (e *Engine) CanBeInternationallyDialled(n *PhoneNumber) bool {
	meta := e.src.ForRegion(e.RegionCodeForNumber(n))
	if meta == nil {
		return true
	}
	return !e.isNumberMatchingDesc(n.NationalSignificantNumber(), meta.NoInternationalDialling)
}

// IsNumberGeographical reports whether n is tied to a location: fixed-line
// numbers, and mobile numbers in countries that assign them by area.
func (e *Engine) IsNumberGeographical(n *PhoneNumber) bool {
	return isGeographicalType(e.GetNumberType(n), n.CountryCode)
}

func isGeographicalType(t NumberType, cc int) bool {
	return t == FixedLine || t == FixedLineOrMobile || (geoMobileCountries[cc] && t == Mobile)
}
