// Package audit cross-checks numbering plans against the reference
// libphonenumber data set shipped with github.com/nyaruka/phonenumbers.
// Plans edited by hand drift; an audit lists every example number whose
// validity, region or type the reference disagrees with.
package audit

import (
	"fmt"
	"strconv"

	"github.com/allyourbase/dialplan/metadata"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/nyaruka/phonenumbers"
)

// Check names one comparison.
type Check string

const (
	CheckE164   Check = "e164"
	CheckValid  Check = "valid"
	CheckRegion Check = "region"
	CheckType   Check = "type"
)

// Finding is one disagreement between the engine and the reference.
type Finding struct {
	Region    string `json:"region"`
	Type      string `json:"type,omitempty"`
	Number    string `json:"number"`
	Check     Check  `json:"check"`
	Ours      string `json:"ours"`
	Reference string `json:"reference"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s %s: %s is %s, reference says %s", f.Region, f.Type, f.Number, f.Check, f.Ours, f.Reference)
}

// Report is the result of auditing every example number of a source.
type Report struct {
	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings"`
}

// Number compares the engine's reading of text, dialled from region, with
// the reference's. A nil slice means they agree.
func Number(e *phonenumber.Engine, text, region string) ([]Finding, error) {
	ours, err := e.Parse(text, region)
	if err != nil {
		return nil, err
	}
	return compare(e, ours, region, ""), nil
}

// Plans audits the example number of every type in every region and
// non-geographic calling code e knows about.
func Plans(e *phonenumber.Engine) Report {
	var rep Report
	for _, region := range e.SupportedRegions() {
		for _, t := range exampleTypes {
			n, ok := e.GetExampleNumberForType(region, t)
			if !ok {
				continue
			}
			rep.Checked++
			rep.Findings = append(rep.Findings, compare(e, n, region, t.String())...)
		}
	}
	for _, cc := range e.SupportedCallingCodes() {
		if e.RegionCodeForCountryCode(cc) != metadata.NonGeoRegion {
			continue
		}
		n, ok := e.GetExampleNumberForNonGeoEntity(cc)
		if !ok {
			continue
		}
		rep.Checked++
		rep.Findings = append(rep.Findings, compare(e, n, metadata.NonGeoRegion, "")...)
	}
	return rep
}

var exampleTypes = []phonenumber.NumberType{
	phonenumber.FixedLine, phonenumber.Mobile, phonenumber.TollFree,
	phonenumber.PremiumRate, phonenumber.SharedCost, phonenumber.VoIP,
	phonenumber.PersonalNumber, phonenumber.Pager, phonenumber.UAN,
	phonenumber.Voicemail,
}

func compare(e *phonenumber.Engine, ours *phonenumber.PhoneNumber, region, typ string) []Finding {
	e164 := e.Format(ours, phonenumber.E164)
	finding := func(c Check, o, r string) Finding {
		return Finding{Region: region, Type: typ, Number: e164, Check: c, Ours: o, Reference: r}
	}

	ref, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return []Finding{finding(CheckE164, e164, "unparseable")}
	}

	var out []Finding
	if refE164 := phonenumbers.Format(ref, phonenumbers.E164); refE164 != e164 {
		out = append(out, finding(CheckE164, e164, refE164))
	}

	ourValid, refValid := e.IsValidNumber(ours), phonenumbers.IsValidNumber(ref)
	if ourValid != refValid {
		out = append(out, finding(CheckValid, strconv.FormatBool(ourValid), strconv.FormatBool(refValid)))
	}
	if !ourValid || !refValid {
		return out
	}

	if o, r := e.RegionCodeForNumber(ours), phonenumbers.GetRegionCodeForNumber(ref); o != r {
		out = append(out, finding(CheckRegion, o, r))
	}
	if o, r := e.GetNumberType(ours), referenceType(phonenumbers.GetNumberType(ref)); !typesAgree(o, r) {
		out = append(out, finding(CheckType, o.String(), r.String()))
	}
	return out
}

// typesAgree treats FIXED_LINE_OR_MOBILE as matching either of its parts.
func typesAgree(a, b phonenumber.NumberType) bool {
	if a == b {
		return true
	}
	either := func(t phonenumber.NumberType) bool {
		return t == phonenumber.FixedLine || t == phonenumber.Mobile
	}
	return (a == phonenumber.FixedLineOrMobile && either(b)) ||
		(b == phonenumber.FixedLineOrMobile && either(a))
}

func referenceType(t phonenumbers.PhoneNumberType) phonenumber.NumberType {
	switch t {
	case phonenumbers.FIXED_LINE:
		return phonenumber.FixedLine
	case phonenumbers.MOBILE:
		return phonenumber.Mobile
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return phonenumber.FixedLineOrMobile
	case phonenumbers.TOLL_FREE:
		return phonenumber.TollFree
	case phonenumbers.PREMIUM_RATE:
		return phonenumber.PremiumRate
	case phonenumbers.SHARED_COST:
		return phonenumber.SharedCost
	case phonenumbers.VOIP:
		return phonenumber.VoIP
	case phonenumbers.PERSONAL_NUMBER:
		return phonenumber.PersonalNumber
	case phonenumbers.PAGER:
		return phonenumber.Pager
	case phonenumbers.UAN:
		return phonenumber.UAN
	case phonenumbers.VOICEMAIL:
		return phonenumber.Voicemail
	default:
		return phonenumber.Unknown
	}
}
