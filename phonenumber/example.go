package phonenumber

import (
	"strconv"

	"github.com/allyourbase/dialplan/metadata"
)

// GetExampleNumber returns a valid fixed-line number of region.
func (e *Engine) GetExampleNumber(region string) (*PhoneNumber, bool) {
	return e.GetExampleNumberForType(region, FixedLine)
}

// GetExampleNumberForType returns a valid number of type t in region. ok is
// false when the region is unknown or declares no example for t.
func (e *Engine) GetExampleNumberForType(region string, t NumberType) (*PhoneNumber, bool) {
	meta := e.src.ForRegion(region)
	if meta == nil {
		e.logger.Debug("invalid or unknown region", "region", region)
		return nil, false
	}
	desc := descForType(meta, t)
	if desc == nil || desc.ExampleNumber == "" {
		return nil, false
	}
	n, err := e.Parse(desc.ExampleNumber, region)
	if err != nil {
		e.logger.Debug("example number does not parse", "region", region, "error", err)
		return nil, false
	}
	return n, true
}

// GetExampleNumberForTypeAnyRegion returns an example of t from the first
// region, or non-geographic calling code, that has one.
func (e *Engine) GetExampleNumberForTypeAnyRegion(t NumberType) (*PhoneNumber, bool) {
	for _, r := range e.src.SupportedRegions() {
		if n, ok := e.GetExampleNumberForType(r, t); ok {
			return n, true
		}
	}
	for _, cc := range e.src.SupportedCallingCodes() {
		meta := e.src.ForNonGeographicalRegion(cc)
		if meta == nil {
			continue
		}
		if desc := descForType(meta, t); desc != nil && desc.ExampleNumber != "" {
			if n, err := e.Parse("+"+strconv.Itoa(cc)+desc.ExampleNumber, UnknownRegion); err == nil {
				return n, true
			}
		}
	}
	return nil, false
}

// GetExampleNumberForNonGeoEntity returns an example number of a
// non-geographic calling code such as 800.
func (e *Engine) GetExampleNumberForNonGeoEntity(cc int) (*PhoneNumber, bool) {
	meta := e.src.ForNonGeographicalRegion(cc)
	if meta == nil {
		e.logger.Debug("invalid or unknown non-geographic calling code", "calling_code", cc)
		return nil, false
	}
	for _, desc := range []*metadata.NumberDesc{
		meta.Mobile, meta.TollFree, meta.SharedCost, meta.VoIP,
		meta.Voicemail, meta.UAN, meta.PremiumRate,
	} {
		if desc == nil || desc.ExampleNumber == "" {
			continue
		}
		n, err := e.Parse("+"+strconv.Itoa(cc)+desc.ExampleNumber, UnknownRegion)
		if err == nil {
			return n, true
		}
	}
	return nil, false
}
