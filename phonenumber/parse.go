package phonenumber

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/allyourbase/dialplan/metadata"
)

// iddNonMatch stands in for the international prefix when no region is known.
const iddNonMatch = "NonMatch"

// Parse interprets text as a phone number. Numbers written without a
// leading "+" or international prefix are read in the context of
// defaultRegion.
func (e *Engine) Parse(text, defaultRegion string) (*PhoneNumber, error) {
	return e.parse(text, defaultRegion, false, true)
}

// ParseAndKeepRawInput is Parse that also records the raw input, the
// calling-code source and any preferred domestic carrier code.
func (e *Engine) ParseAndKeepRawInput(text, defaultRegion string) (*PhoneNumber, error) {
	return e.parse(text, defaultRegion, true, true)
}

// IsPossibleNumberString parses text and reports whether the result has a
// possible length. Parse failures report false.
func (e *Engine) IsPossibleNumberString(text, region string) bool {
	n, err := e.Parse(text, region)
	if err != nil {
		return false
	}
	return e.IsPossibleNumber(n)
}

func (e *Engine) parse(text, defaultRegion string, keepRaw, checkRegion bool) (*PhoneNumber, error) {
	if text == "" {
		return nil, parseErr(NotANumber, "the string supplied was empty")
	}
	if utf8.RuneCountInString(text) > maxInputStringLength {
		return nil, parseErr(TooLongNSN, "the string supplied was too long to parse")
	}

	national, err := buildNationalNumberForParsing(fold(text))
	if err != nil {
		return nil, err
	}
	if !isViablePhoneNumber(national) {
		return nil, parseErr(NotANumber, "the string supplied did not seem to be a phone number")
	}
	if checkRegion && !e.checkRegionForParsing(national, defaultRegion) {
		return nil, parseErr(InvalidCountryCode, "missing or invalid default region")
	}

	n := &PhoneNumber{}
	if keepRaw {
		n.RawInput = text
	}
	national, n.Extension = maybeStripExtension(national)

	regionMeta := e.src.ForRegion(defaultRegion)
	cc, normalized, source, err := e.maybeExtractCountryCode(national, regionMeta)
	if err != nil {
		loc := plusCharsPattern.FindStringIndex(national)
		if kind, _ := KindOf(err); kind != InvalidCountryCode || loc == nil {
			return nil, err
		}
		// Strip the plus and retry; the digits may be a national number
		// someone prefixed with "+" by mistake.
		cc, normalized, source, err = e.maybeExtractCountryCode(national[loc[1]:], regionMeta)
		if err != nil {
			return nil, err
		}
		if cc == 0 {
			return nil, parseErr(InvalidCountryCode, "could not interpret numbers after plus-sign")
		}
	}
	if keepRaw {
		n.CountryCodeSource = source
	}

	if cc != 0 {
		phoneRegion := e.RegionCodeForCountryCode(cc)
		if phoneRegion != defaultRegion {
			regionMeta = e.metadataForRegionOrCallingCode(cc, phoneRegion)
		}
	} else {
		normalized = normalize(national)
		if regionMeta != nil {
			cc = regionMeta.CountryCode
		} else if keepRaw {
			n.CountryCodeSource = SourceUnspecified
		}
	}
	if len(normalized) < minLengthForNSN {
		return nil, parseErr(TooShortNSN, "the string supplied is too short to be a phone number")
	}

	if regionMeta != nil {
		stripped, carrier, ok := e.maybeStripNationalPrefixAndCarrierCode(normalized, regionMeta)
		if ok {
			switch e.testNumberLength(stripped, regionMeta, Unknown) {
			case TooShort, IsPossibleLocalOnly, InvalidLength:
				// Keep the national prefix; stripping it broke the number.
			default:
				normalized = stripped
				if keepRaw && carrier != "" {
					n.PreferredDomesticCarrierCode = carrier
				}
			}
		}
	}

	switch l := len(normalized); {
	case l < minLengthForNSN:
		return nil, parseErr(TooShortNSN, "the string supplied is too short to be a phone number")
	case l > maxLengthForNSN:
		return nil, parseErr(TooLongNSN, "the string supplied is too long to be a phone number")
	}

	n.LeadingZeros = italianLeadingZeros(normalized)
	nn, err := strconv.ParseUint(normalized, 10, 64)
	if err != nil {
		return nil, parseErr(NotANumber, "national number is not numeric")
	}
	n.NationalNumber = nn
	n.CountryCode = cc
	return n, nil
}

// buildNationalNumberForParsing unwraps RFC3966 syntax and trims text to
// the part that may hold a number.
func buildNationalNumberForParsing(text string) (string, error) {
	var b strings.Builder
	if idx := strings.Index(text, rfc3966PhoneContext); idx >= 0 {
		ctx := text[idx+len(rfc3966PhoneContext):]
		if end := strings.IndexByte(ctx, ';'); end >= 0 {
			ctx = ctx[:end]
		}
		if !isPhoneContextValid(ctx) {
			return "", parseErr(NotANumber, "the phone-context value is invalid")
		}
		if strings.HasPrefix(ctx, "+") {
			b.WriteString(ctx)
		}
		start := 0
		if p := strings.Index(text, rfc3966Prefix); p >= 0 {
			start = p + len(rfc3966Prefix)
		}
		if start <= idx {
			b.WriteString(text[start:idx])
		}
	} else {
		b.WriteString(extractPossibleNumber(text))
	}

	national := b.String()
	if i := strings.Index(national, rfc3966IsdnSubaddress); i > 0 {
		national = national[:i]
	}
	return national, nil
}

// checkRegionForParsing requires a usable default region unless the number
// carries its own "+".
func (e *Engine) checkRegionForParsing(number, region string) bool {
	if e.isValidRegionCode(region) {
		return true
	}
	return number != "" && plusCharsPattern.MatchString(number)
}

// maybeExtractCountryCode finds the calling code at the start of number.
// It returns cc 0 when the number is in national form, in which case the
// national part is left for the caller to normalize.
func (e *Engine) maybeExtractCountryCode(number string, meta *metadata.PlanMetadata) (int, string, CountryCodeSource, error) {
	if number == "" {
		return 0, "", FromDefaultCountry, nil
	}
	idd := iddNonMatch
	if meta != nil {
		idd = meta.InternationalPrefix
	}
	full, source := e.maybeStripInternationalPrefixAndNormalize(number, idd)

	if source != FromDefaultCountry {
		if len(full) <= minLengthForNSN {
			return 0, "", source, parseErr(TooShortAfterIDD, "phone number had an IDD, but after this was not long enough to be a viable phone number")
		}
		if cc, rest := e.extractCountryCode(full); cc != 0 {
			return cc, rest, source, nil
		}
		return 0, "", source, parseErr(InvalidCountryCode, "country calling code supplied was not recognised")
	}

	if meta != nil {
		ccText := strconv.Itoa(meta.CountryCode)
		if rest, ok := strings.CutPrefix(full, ccText); ok {
			potential := rest
			if stripped, _, ok := e.maybeStripNationalPrefixAndCarrierCode(potential, meta); ok {
				potential = stripped
			}
			general := meta.General
			// Only treat the leading digits as the region's own calling code
			// when that turns an invalid number into a valid one, or the
			// number is too long with them.
			if (!e.matchNationalNumber(full, general) && e.matchNationalNumber(potential, general)) ||
				e.testNumberLength(full, meta, Unknown) == TooLong {
				return meta.CountryCode, potential, FromNumberWithoutPlusSign, nil
			}
		}
	}
	return 0, "", FromDefaultCountry, nil
}

// maybeStripInternationalPrefixAndNormalize removes a leading "+" or IDD
// and normalizes what remains.
func (e *Engine) maybeStripInternationalPrefixAndNormalize(number, idd string) (string, CountryCodeSource) {
	if number == "" {
		return "", FromDefaultCountry
	}
	if loc := plusCharsPattern.FindStringIndex(number); loc != nil {
		return normalize(number[loc[1]:]), FromNumberWithPlusSign
	}
	number = normalize(number)
	if rest, ok := e.parsePrefixAsIdd(e.patterns.Prefix(idd), number); ok {
		return rest, FromNumberWithIDD
	}
	return number, FromDefaultCountry
}

// parsePrefixAsIdd strips idd from number unless the digit right after it
// is a zero, which no calling code starts with.
func (e *Engine) parsePrefixAsIdd(idd *regexp.Regexp, number string) (string, bool) {
	loc := idd.FindStringIndex(number)
	if loc == nil {
		return number, false
	}
	rest := number[loc[1]:]
	if m := capturingDigitPattern.FindStringSubmatch(rest); m != nil {
		if NormalizeDigitsOnly(m[1]) == "0" {
			return number, false
		}
	}
	return rest, true
}

// extractCountryCode reads a 1 to 3 digit calling code from the start of
// full, shortest first.
func (e *Engine) extractCountryCode(full string) (int, string) {
	if full == "" || full[0] == '0' {
		return 0, full
	}
	for i := 1; i <= maxLengthCountryCode && i <= len(full); i++ {
		cc, err := strconv.Atoi(full[:i])
		if err != nil {
			return 0, full
		}
		if e.hasValidCountryCallingCode(cc) {
			return cc, full[i:]
		}
	}
	return 0, full
}

// maybeStripNationalPrefixAndCarrierCode removes the national prefix, and
// any carrier code captured alongside it, as described by the plan's
// parsing pattern and transform rule. ok is false when nothing was stripped.
func (e *Engine) maybeStripNationalPrefixAndCarrierCode(number string, meta *metadata.PlanMetadata) (stripped, carrier string, ok bool) {
	npParsing := meta.NationalPrefixForParsing
	if number == "" || npParsing == "" {
		return number, "", false
	}
	re := e.patterns.Prefix(npParsing)
	m := re.FindStringSubmatchIndex(number)
	if m == nil {
		return number, "", false
	}
	general := meta.General
	viableOriginal := e.matchNationalNumber(number, general)
	groups := re.NumSubexp()
	lastGroupMatched := groups > 0 && m[2*groups] >= 0
	transform := meta.NationalPrefixTransformRule

	if transform == "" || (groups > 0 && !lastGroupMatched) {
		rest := number[m[1]:]
		if viableOriginal && !e.matchNationalNumber(rest, general) {
			return number, "", false
		}
		if lastGroupMatched && m[2] >= 0 {
			carrier = number[m[2]:m[3]]
		}
		return rest, carrier, true
	}

	transformed := string(re.ExpandString(nil, goTemplate(transform), number, m)) + number[m[1]:]
	if viableOriginal && !e.matchNationalNumber(transformed, general) {
		return number, "", false
	}
	if groups > 1 && m[2] >= 0 {
		carrier = number[m[2]:m[3]]
	}
	return transformed, carrier, true
}

func (e *Engine) matchNationalNumber(number string, desc *metadata.NumberDesc) bool {
	if desc == nil || desc.NationalNumberPattern == "" {
		return false
	}
	return e.patterns.MatchFull(desc.NationalNumberPattern, number)
}

func descForType(m *metadata.PlanMetadata, t NumberType) *metadata.NumberDesc {
	switch t {
	case PremiumRate:
		return m.PremiumRate
	case TollFree:
		return m.TollFree
	case Mobile:
		return m.Mobile
	case FixedLine, FixedLineOrMobile:
		return m.FixedLine
	case SharedCost:
		return m.SharedCost
	case VoIP:
		return m.VoIP
	case PersonalNumber:
		return m.PersonalNumber
	case Pager:
		return m.Pager
	case UAN:
		return m.UAN
	case Voicemail:
		return m.Voicemail
	default:
		return m.General
	}
}

// testNumberLength checks the length of a national number against the
// lengths declared for t, falling back to the general descriptor.
func (e *Engine) testNumberLength(number string, m *metadata.PlanMetadata, t NumberType) ValidationResult {
	desc := descForType(m, t)
	if desc == nil {
		desc = m.General
	}
	lengths := desc.PossibleLengths
	if len(lengths) == 0 {
		lengths = m.General.PossibleLengths
	}
	local := desc.PossibleLengthsLocalOnly

	if t == FixedLineOrMobile {
		if !descForType(m, FixedLine).HasPossibleNumberData() {
			return e.testNumberLength(number, m, Mobile)
		}
		if mobile := descForType(m, Mobile); mobile.HasPossibleNumberData() {
			ml := mobile.PossibleLengths
			if len(ml) == 0 {
				ml = m.General.PossibleLengths
			}
			lengths = mergeLengths(lengths, ml)
			if len(local) == 0 {
				local = mobile.PossibleLengthsLocalOnly
			} else {
				local = mergeLengths(local, mobile.PossibleLengthsLocalOnly)
			}
		}
	}

	if len(lengths) == 0 || lengths[0] == -1 {
		return InvalidLength
	}
	actual := len(number)
	if slices.Contains(local, actual) {
		return IsPossibleLocalOnly
	}
	switch minLen := lengths[0]; {
	case minLen == actual:
		return IsPossible
	case minLen > actual:
		return TooShort
	case lengths[len(lengths)-1] < actual:
		return TooLong
	}
	if slices.Contains(lengths[1:], actual) {
		return IsPossible
	}
	return InvalidLength
}

func mergeLengths(a, b []int) []int {
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}

// italianLeadingZeros counts leading zeros of a national significant
// number. The last digit is never counted, so "00" has one.
func italianLeadingZeros(nsn string) int {
	if len(nsn) < 2 || nsn[0] != '0' {
		return 0
	}
	n := 1
	for n < len(nsn)-1 && nsn[n] == '0' {
		n++
	}
	return n
}
