// Package phonenumber parses, classifies and formats telephone numbers
// against the numbering plans supplied by a metadata.Source, and formats
// numbers incrementally as they are typed.
//
// All state lives in an Engine value. Engines are safe for concurrent use;
// AsYouTypeFormatter sessions are not.
package phonenumber

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/allyourbase/dialplan/internal/regexcache"
	"github.com/allyourbase/dialplan/metadata"
)

const (
	minLengthForNSN      = 2
	maxLengthForNSN      = 17
	maxLengthCountryCode = 3
	maxInputStringLength = 250

	nanpaCountryCode = 1

	// UnknownRegion is returned when a number cannot be attributed to a region.
	UnknownRegion = "ZZ"
)

// geoMobileCountries are calling codes whose mobile numbers still carry
// geographic information.
var geoMobileCountries = map[int]bool{52: true, 54: true, 55: true, 62: true, 86: true}

// CountryCodeSource records how the calling code of a parsed number was found.
type CountryCodeSource int

const (
	SourceUnspecified CountryCodeSource = iota
	FromNumberWithPlusSign
	FromNumberWithIDD
	FromNumberWithoutPlusSign
	FromDefaultCountry
)

func (s CountryCodeSource) String() string {
	switch s {
	case FromNumberWithPlusSign:
		return "FROM_NUMBER_WITH_PLUS_SIGN"
	case FromNumberWithIDD:
		return "FROM_NUMBER_WITH_IDD"
	case FromNumberWithoutPlusSign:
		return "FROM_NUMBER_WITHOUT_PLUS_SIGN"
	case FromDefaultCountry:
		return "FROM_DEFAULT_COUNTRY"
	default:
		return "UNSPECIFIED"
	}
}

// PhoneNumber is a parsed number. Values returned by Parse are not modified
// by the engine afterwards.
type PhoneNumber struct {
	CountryCode    int
	NationalNumber uint64
	// LeadingZeros counts the zeros that precede NationalNumber in the
	// national significant number (Italian-style numbers). Zero means none.
	LeadingZeros int
	Extension    string

	// Set only by ParseAndKeepRawInput.
	RawInput                     string
	CountryCodeSource            CountryCodeSource
	PreferredDomesticCarrierCode string
}

// NationalSignificantNumber returns the national number with any leading
// zeros restored.
func (n *PhoneNumber) NationalSignificantNumber() string {
	nn := strconv.FormatUint(n.NationalNumber, 10)
	if n.LeadingZeros > 0 {
		return strings.Repeat("0", n.LeadingZeros) + nn
	}
	return nn
}

// sameCore compares the fields that identify a number, ignoring raw input
// and parse bookkeeping.
func (n *PhoneNumber) sameCore(o *PhoneNumber) bool {
	return n.CountryCode == o.CountryCode &&
		n.NationalNumber == o.NationalNumber &&
		n.LeadingZeros == o.LeadingZeros &&
		n.Extension == o.Extension
}

func (n *PhoneNumber) core() PhoneNumber {
	return PhoneNumber{
		CountryCode:    n.CountryCode,
		NationalNumber: n.NationalNumber,
		LeadingZeros:   n.LeadingZeros,
		Extension:      n.Extension,
	}
}

// Format selects an output convention.
type Format int

const (
	E164 Format = iota
	International
	National
	RFC3966
)

func (f Format) String() string {
	switch f {
	case E164:
		return "E164"
	case International:
		return "INTERNATIONAL"
	case National:
		return "NATIONAL"
	case RFC3966:
		return "RFC3966"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts the names returned by Format.String, case-insensitively.
func ParseFormat(s string) (Format, error) {
	for _, f := range []Format{E164, International, National, RFC3966} {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q (want E164, INTERNATIONAL, NATIONAL or RFC3966)", s)
}

// NumberType classifies a number by service.
type NumberType int

const (
	FixedLine NumberType = iota
	Mobile
	// FixedLineOrMobile is used where fixed-line and mobile numbers cannot
	// be told apart.
	FixedLineOrMobile
	TollFree
	PremiumRate
	SharedCost
	VoIP
	PersonalNumber
	Pager
	UAN
	Voicemail
	Unknown
)

var numberTypeNames = [...]string{
	FixedLine:         "FIXED_LINE",
	Mobile:            "MOBILE",
	FixedLineOrMobile: "FIXED_LINE_OR_MOBILE",
	TollFree:          "TOLL_FREE",
	PremiumRate:       "PREMIUM_RATE",
	SharedCost:        "SHARED_COST",
	VoIP:              "VOIP",
	PersonalNumber:    "PERSONAL_NUMBER",
	Pager:             "PAGER",
	UAN:               "UAN",
	Voicemail:         "VOICEMAIL",
	Unknown:           "UNKNOWN",
}

func (t NumberType) String() string {
	if t >= 0 && int(t) < len(numberTypeNames) {
		return numberTypeNames[t]
	}
	return fmt.Sprintf("NumberType(%d)", int(t))
}

// ParseNumberType accepts the names returned by NumberType.String,
// case-insensitively.
func ParseNumberType(s string) (NumberType, error) {
	for i, name := range numberTypeNames {
		if strings.EqualFold(s, name) {
			return NumberType(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown number type %q", s)
}

// ValidationResult is the outcome of a possible-length check.
type ValidationResult int

const (
	IsPossible ValidationResult = iota
	IsPossibleLocalOnly
	InvalidCallingCode
	TooShort
	InvalidLength
	TooLong
)

func (r ValidationResult) String() string {
	switch r {
	case IsPossible:
		return "IS_POSSIBLE"
	case IsPossibleLocalOnly:
		return "IS_POSSIBLE_LOCAL_ONLY"
	case InvalidCallingCode:
		return "INVALID_COUNTRY_CODE"
	case TooShort:
		return "TOO_SHORT"
	case InvalidLength:
		return "INVALID_LENGTH"
	case TooLong:
		return "TOO_LONG"
	default:
		return fmt.Sprintf("ValidationResult(%d)", int(r))
	}
}

// Engine interprets numbers against one metadata source. It owns the
// compiled-pattern cache for that source.
type Engine struct {
	src      metadata.Source
	patterns *regexcache.Cache
	logger   *slog.Logger
}

type options struct {
	logger    *slog.Logger
	cacheSize int
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the engine's logger. Engines log only at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPatternCacheSize bounds the number of compiled metadata patterns kept.
func WithPatternCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New creates an Engine reading plans from src.
func New(src metadata.Source, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("phonenumber: nil metadata source")
	}
	o := options{cacheSize: regexcache.DefaultSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache, err := regexcache.New(o.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{src: src, patterns: cache, logger: o.logger}, nil
}

// PatternCacheStats reports compiled-pattern cache counters.
func (e *Engine) PatternCacheStats() regexcache.Stats {
	return e.patterns.Stats()
}

// SupportedRegions lists the regions the engine has plans for.
func (e *Engine) SupportedRegions() []string {
	return e.src.SupportedRegions()
}

// SupportedCallingCodes lists every calling code with at least one plan.
func (e *Engine) SupportedCallingCodes() []int {
	return e.src.SupportedCallingCodes()
}

func (e *Engine) isValidRegionCode(region string) bool {
	return region != "" && e.src.ForRegion(region) != nil
}

func (e *Engine) hasValidCountryCallingCode(cc int) bool {
	return len(e.src.RegionsForCallingCode(cc)) > 0
}

// RegionCodeForCountryCode returns the main region for a calling code,
// metadata.NonGeoRegion for non-geographic codes, or UnknownRegion.
func (e *Engine) RegionCodeForCountryCode(cc int) string {
	regions := e.src.RegionsForCallingCode(cc)
	if len(regions) == 0 {
		return UnknownRegion
	}
	return regions[0]
}

// RegionCodesForCountryCode returns every region sharing a calling code.
func (e *Engine) RegionCodesForCountryCode(cc int) []string {
	return e.src.RegionsForCallingCode(cc)
}

// CountryCodeForRegion returns the calling code of region, or 0 when the
// region is unknown.
func (e *Engine) CountryCodeForRegion(region string) int {
	m := e.src.ForRegion(region)
	if m == nil {
		e.logger.Debug("unknown region", "region", region)
		return 0
	}
	return m.CountryCode
}

// NationalPrefixForRegion returns the national dialling prefix of region.
// With stripNonDigits the "~" wait marker is removed.
func (e *Engine) NationalPrefixForRegion(region string, stripNonDigits bool) (string, bool) {
	m := e.src.ForRegion(region)
	if m == nil {
		return "", false
	}
	np := m.NationalPrefix
	if stripNonDigits {
		np = strings.ReplaceAll(np, "~", "")
	}
	return np, true
}

func (e *Engine) isNANPACountry(region string) bool {
	for _, r := range e.src.RegionsForCallingCode(nanpaCountryCode) {
		if r == region {
			return true
		}
	}
	return false
}

func (e *Engine) metadataForRegionOrCallingCode(cc int, region string) *metadata.PlanMetadata {
	if region == metadata.NonGeoRegion {
		return e.src.ForNonGeographicalRegion(cc)
	}
	return e.src.ForRegion(region)
}
