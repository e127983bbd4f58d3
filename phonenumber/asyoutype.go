package phonenumber

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/allyourbase/dialplan/metadata"
)

const separatorBeforeNationalNumber = ' '

// emptyMetadata is used for regions without a plan. Its international
// prefix never matches typed digits.
var emptyMetadata = &metadata.PlanMetadata{InternationalPrefix: "NA", General: &metadata.NumberDesc{}}

// AsYouTypeFormatter formats a number one keystroke at a time. A formatter
// holds the state of one typing session and must not be shared between
// goroutines. Call Clear before starting on the next number.
type AsYouTypeFormatter struct {
	e             *Engine
	defaultRegion string
	defaultMeta   *metadata.PlanMetadata
	currentMeta   *metadata.PlanMetadata

	currentOutput            string
	template                 []rune
	currentFormattingPattern string
	accruedInput             []rune
	accruedDigits            strings.Builder
	prefixBeforeNational     strings.Builder
	extractedNationalPrefix  string
	nationalNumber           string
	possibleFormats          []*metadata.NumberFormat

	ableToFormat                  bool
	inputHasFormatting            bool
	isCompleteNumber              bool
	isExpectingCountryCallingCode bool
	shouldAddSpaceAfterNP         bool

	lastMatchPosition  int
	originalPosition   int
	positionToRemember int
}

// NewAsYouTypeFormatter starts a typing session for numbers dialled from
// region. Unknown regions still accept numbers typed with a "+".
func (e *Engine) NewAsYouTypeFormatter(region string) *AsYouTypeFormatter {
	f := &AsYouTypeFormatter{e: e, defaultRegion: region, ableToFormat: true}
	f.currentMeta = f.metadataForRegion(region)
	f.defaultMeta = f.currentMeta
	return f
}

// metadataForRegion returns the plan of the main region for region's
// calling code, so regions sharing a code format alike.
func (f *AsYouTypeFormatter) metadataForRegion(region string) *metadata.PlanMetadata {
	cc := f.e.CountryCodeForRegion(region)
	if m := f.e.src.ForRegion(f.e.RegionCodeForCountryCode(cc)); m != nil {
		return m
	}
	return emptyMetadata
}

// Clear resets the session for a new number.
func (f *AsYouTypeFormatter) Clear() {
	f.currentOutput = ""
	f.accruedInput = f.accruedInput[:0]
	f.accruedDigits.Reset()
	f.template = nil
	f.lastMatchPosition = 0
	f.currentFormattingPattern = ""
	f.prefixBeforeNational.Reset()
	f.extractedNationalPrefix = ""
	f.nationalNumber = ""
	f.ableToFormat = true
	f.inputHasFormatting = false
	f.positionToRemember = 0
	f.originalPosition = 0
	f.isCompleteNumber = false
	f.isExpectingCountryCallingCode = false
	f.possibleFormats = nil
	f.shouldAddSpaceAfterNP = false
	if f.currentMeta != f.defaultMeta {
		f.currentMeta = f.metadataForRegion(f.defaultRegion)
	}
}

// InputDigit adds one typed character and returns the formatted number so
// far. Any character other than a digit, or a "+" typed first, stops
// formatting for the rest of the session.
func (f *AsYouTypeFormatter) InputDigit(c rune) string {
	f.currentOutput = f.inputDigitWithOptionToRememberPosition(c, false)
	return f.currentOutput
}

// InputDigitAndRememberPosition is InputDigit that also marks c, so
// RememberedPosition can locate it in later outputs.
func (f *AsYouTypeFormatter) InputDigitAndRememberPosition(c rune) string {
	f.currentOutput = f.inputDigitWithOptionToRememberPosition(c, true)
	return f.currentOutput
}

// RememberedPosition returns the index in the current output just past
// the character marked by InputDigitAndRememberPosition.
func (f *AsYouTypeFormatter) RememberedPosition() int {
	if !f.ableToFormat {
		return f.originalPosition
	}
	digits := f.accruedDigits.String()
	out := []rune(f.currentOutput)
	i, o := 0, 0
	for i < f.positionToRemember && o < len(out) {
		if rune(digits[i]) == out[o] {
			i++
		}
		o++
	}
	return o
}

func (f *AsYouTypeFormatter) candidateCount() int {
	return len(f.possibleFormats)
}

func (f *AsYouTypeFormatter) inputDigitWithOptionToRememberPosition(c rune, remember bool) string {
	f.accruedInput = append(f.accruedInput, c)
	if remember {
		f.originalPosition = len(f.accruedInput)
	}
	if !f.isDigitOrLeadingPlusSign(c) {
		f.ableToFormat = false
		f.inputHasFormatting = true
	} else {
		c = f.normalizeAndAccrueDigitsAndPlusSign(c, remember)
	}

	if !f.ableToFormat {
		// Formatting may have stopped because of a long IDD or national
		// prefix; extracting them can make the rest formattable again.
		switch {
		case f.inputHasFormatting:
			return string(f.accruedInput)
		case f.attemptToExtractIdd():
			if f.attemptToExtractCountryCallingCode() {
				return f.attemptToChoosePatternWithPrefixExtracted()
			}
		case f.ableToExtractLongerNdd():
			f.prefixBeforeNational.WriteRune(separatorBeforeNationalNumber)
			return f.attemptToChoosePatternWithPrefixExtracted()
		}
		return string(f.accruedInput)
	}

	switch n := f.accruedDigits.Len(); {
	case n < minLeadingDigitsLength:
		return string(f.accruedInput)
	case n == minLeadingDigitsLength:
		if !f.attemptToExtractIdd() {
			f.extractedNationalPrefix = f.removeNationalPrefixFromNationalNumber()
			return f.attemptToChooseFormattingPattern()
		}
		f.isExpectingCountryCallingCode = true
	}

	if f.isExpectingCountryCallingCode {
		if f.attemptToExtractCountryCallingCode() {
			f.isExpectingCountryCallingCode = false
		}
		return f.prefixBeforeNational.String() + f.nationalNumber
	}
	if len(f.possibleFormats) == 0 {
		return f.attemptToChooseFormattingPattern()
	}

	tempNational := f.inputDigitHelper(c)
	if formatted := f.attemptToFormatAccruedDigits(); formatted != "" {
		return formatted
	}
	f.narrowDownPossibleFormats(f.nationalNumber)
	if f.maybeCreateNewTemplate() {
		return f.inputAccruedNationalNumber()
	}
	if f.ableToFormat {
		return f.appendNationalNumber(tempNational)
	}
	return string(f.accruedInput)
}

func (f *AsYouTypeFormatter) isDigitOrLeadingPlusSign(c rune) bool {
	if unicode.IsDigit(c) {
		_, ok := digitValue(c)
		return ok
	}
	return len(f.accruedInput) == 1 && strings.ContainsRune(plusChars, c)
}

func (f *AsYouTypeFormatter) normalizeAndAccrueDigitsAndPlusSign(c rune, remember bool) rune {
	if strings.ContainsRune(plusChars, c) {
		c = plusSign
		f.accruedDigits.WriteRune(c)
	} else {
		d, _ := digitValue(c)
		c = rune('0' + d)
		f.accruedDigits.WriteRune(c)
		f.nationalNumber += string(c)
	}
	if remember {
		f.positionToRemember = f.accruedDigits.Len()
	}
	return c
}

func (f *AsYouTypeFormatter) attemptToChoosePatternWithPrefixExtracted() string {
	f.ableToFormat = true
	f.isExpectingCountryCallingCode = false
	f.possibleFormats = nil
	f.lastMatchPosition = 0
	f.template = nil
	f.currentFormattingPattern = ""
	return f.attemptToChooseFormattingPattern()
}

// attemptToChooseFormattingPattern waits for three digits of national
// number before picking candidate rules.
func (f *AsYouTypeFormatter) attemptToChooseFormattingPattern() string {
	if len(f.nationalNumber) < minLeadingDigitsLength {
		return f.appendNationalNumber(f.nationalNumber)
	}
	f.getAvailableFormats(f.nationalNumber)
	if formatted := f.attemptToFormatAccruedDigits(); formatted != "" {
		return formatted
	}
	if f.maybeCreateNewTemplate() {
		return f.inputAccruedNationalNumber()
	}
	return string(f.accruedInput)
}

func (f *AsYouTypeFormatter) inputAccruedNationalNumber() string {
	if f.nationalNumber == "" {
		return f.prefixBeforeNational.String()
	}
	var temp string
	for _, c := range f.nationalNumber {
		temp = f.inputDigitHelper(c)
	}
	if f.ableToFormat {
		return f.appendNationalNumber(temp)
	}
	return string(f.accruedInput)
}

// appendNationalNumber joins the prefix and the national number, with a
// space when the chosen rule separates the national prefix.
func (f *AsYouTypeFormatter) appendNationalNumber(national string) string {
	prefix := f.prefixBeforeNational.String()
	if f.shouldAddSpaceAfterNP && prefix != "" && prefix[len(prefix)-1] != separatorBeforeNationalNumber {
		return prefix + string(separatorBeforeNationalNumber) + national
	}
	return prefix + national
}

func (f *AsYouTypeFormatter) getAvailableFormats(leadingDigits string) {
	isInternational := f.isCompleteNumber && f.extractedNationalPrefix == ""
	rules := f.currentMeta.NumberFormats
	if isInternational && len(f.currentMeta.IntlNumberFormats) > 0 {
		rules = f.currentMeta.IntlNumberFormats
	}
	for i := range rules {
		r := &rules[i]
		firstGroupOnly := formattingRuleHasFirstGroupOnly(r.NationalPrefixFormattingRule)
		if f.extractedNationalPrefix != "" && firstGroupOnly &&
			!r.NationalPrefixOptionalWhenFormatting && r.DomesticCarrierCodeFormattingRule == "" {
			// The rule renders without a national prefix, but one was typed.
			continue
		}
		if f.extractedNationalPrefix == "" && !f.isCompleteNumber && !firstGroupOnly &&
			!r.NationalPrefixOptionalWhenFormatting {
			// The rule needs a national prefix nobody typed.
			continue
		}
		if eligibleFormatPattern.MatchString(r.Format) {
			f.possibleFormats = append(f.possibleFormats, r)
		}
	}
	f.narrowDownPossibleFormats(leadingDigits)
}

// narrowDownPossibleFormats drops candidates whose leading-digits pattern
// for the current digit count rejects leadingDigits.
func (f *AsYouTypeFormatter) narrowDownPossibleFormats(leadingDigits string) {
	idx := len(leadingDigits) - minLeadingDigitsLength
	kept := f.possibleFormats[:0]
	for _, r := range f.possibleFormats {
		if n := len(r.LeadingDigitsPatterns); n > 0 {
			p := r.LeadingDigitsPatterns[min(idx, n-1)]
			if !f.e.patterns.MatchPrefix(p, leadingDigits) {
				continue
			}
		}
		kept = append(kept, r)
	}
	clear(f.possibleFormats[len(kept):])
	f.possibleFormats = kept
}

// maybeCreateNewTemplate builds a template from the first candidate that
// can hold the digits typed so far, discarding those that cannot.
func (f *AsYouTypeFormatter) maybeCreateNewTemplate() bool {
	for len(f.possibleFormats) > 0 {
		r := f.possibleFormats[0]
		if r.Pattern == f.currentFormattingPattern {
			return false
		}
		if f.createFormattingTemplate(r) {
			f.currentFormattingPattern = r.Pattern
			f.shouldAddSpaceAfterNP = nationalPrefixSeparator.MatchString(r.NationalPrefixFormattingRule)
			f.lastMatchPosition = 0
			return true
		}
		f.possibleFormats = f.possibleFormats[1:]
	}
	f.ableToFormat = false
	return false
}

func (f *AsYouTypeFormatter) createFormattingTemplate(r *metadata.NumberFormat) bool {
	f.template = nil
	t := f.formattingTemplate(r.Pattern, r.Format)
	if t == "" {
		return false
	}
	f.template = []rune(t)
	return true
}

// formattingTemplate renders the longest number pattern accepts with
// every digit turned into a placeholder. It is empty when that number is
// shorter than what has been typed.
func (f *AsYouTypeFormatter) formattingTemplate(pattern, format string) string {
	re := f.e.patterns.Raw(digitsOnlyPattern(pattern))
	longest := re.FindString(templateLongestNumber)
	if longest == "" || len(longest) < len(f.nationalNumber) {
		return ""
	}
	t := re.ReplaceAllString(longest, goTemplate(typingFormat(format)))
	return strings.ReplaceAll(t, "9", string(digitPlaceholder))
}

// digitsOnlyPattern widens pattern so it accepts any digit wherever the
// rule demands a particular one: character classes and literal digits
// become \d. Digits inside a quantifier such as {2} or {2,3} are kept.
func digitsOnlyPattern(pattern string) string {
	pattern = characterClassPattern.ReplaceAllLiteralString(pattern, `\d`)
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c >= '0' && c <= '9' && i+2 < len(pattern) &&
			!isQuantifierEnd(pattern[i+1]) && !isQuantifierEnd(pattern[i+2]) {
			b.WriteString(`\d`)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isQuantifierEnd(c byte) bool {
	return c == ',' || c == '}'
}

// typingFormat reduces each run of punctuation between groups to a single
// space and drops punctuation around the groups, so the typed digits only
// ever gain spaces.
func typingFormat(format string) string {
	locs := firstGroupPattern.FindAllStringIndex(format, -1)
	var b strings.Builder
	end := 0
	for i, loc := range locs {
		if i > 0 && loc[0] > end {
			b.WriteByte(' ')
		}
		b.WriteString(format[loc[0]:loc[1]])
		end = loc[1]
	}
	return b.String()
}

// attemptToFormatAccruedDigits formats the national number outright when
// a candidate matches it completely and keeps every typed digit.
func (f *AsYouTypeFormatter) attemptToFormatAccruedDigits() string {
	for _, r := range f.possibleFormats {
		re := f.e.patterns.Full(r.Pattern)
		if !re.MatchString(f.nationalNumber) {
			continue
		}
		f.shouldAddSpaceAfterNP = nationalPrefixSeparator.MatchString(r.NationalPrefixFormattingRule)
		formatted := expand(re, typingFormat(r.Format), f.nationalNumber)
		full := f.appendNationalNumber(formatted)
		if normalizeDiallableCharsOnly(full) == f.accruedDigits.String() {
			return full
		}
	}
	return ""
}

// inputDigitHelper writes c into the next free placeholder of the template.
func (f *AsYouTypeFormatter) inputDigitHelper(c rune) string {
	for i := f.lastMatchPosition; i < len(f.template); i++ {
		if f.template[i] == digitPlaceholder {
			f.template[i] = c
			f.lastMatchPosition = i
			return string(f.template[:i+1])
		}
	}
	if len(f.possibleFormats) == 1 {
		// More digits than the only remaining rule can take.
		f.ableToFormat = false
	}
	f.currentFormattingPattern = ""
	return string(f.accruedInput)
}

func (f *AsYouTypeFormatter) attemptToExtractIdd() bool {
	idd := f.e.patterns.Prefix(`\` + string(plusSign) + "|" + f.currentMeta.InternationalPrefix)
	digits := f.accruedDigits.String()
	loc := idd.FindStringIndex(digits)
	if loc == nil {
		return false
	}
	f.isCompleteNumber = true
	f.nationalNumber = digits[loc[1]:]
	f.prefixBeforeNational.Reset()
	f.prefixBeforeNational.WriteString(digits[:loc[1]])
	if digits[0] != plusSign {
		f.prefixBeforeNational.WriteRune(separatorBeforeNationalNumber)
	}
	return true
}

// attemptToExtractCountryCallingCode moves a calling code from the
// national number into the prefix and switches to that code's plan.
func (f *AsYouTypeFormatter) attemptToExtractCountryCallingCode() bool {
	if f.nationalNumber == "" {
		return false
	}
	cc, rest := f.e.extractCountryCode(f.nationalNumber)
	if cc == 0 {
		return false
	}
	f.nationalNumber = rest
	newRegion := f.e.RegionCodeForCountryCode(cc)
	if newRegion == metadata.NonGeoRegion {
		if m := f.e.src.ForNonGeographicalRegion(cc); m != nil {
			f.currentMeta = m
		} else {
			f.currentMeta = emptyMetadata
		}
	} else if newRegion != f.defaultRegion {
		f.currentMeta = f.metadataForRegion(newRegion)
	}
	f.prefixBeforeNational.WriteString(strconv.Itoa(cc))
	f.prefixBeforeNational.WriteRune(separatorBeforeNationalNumber)
	f.extractedNationalPrefix = ""
	return true
}

// ableToExtractLongerNdd puts the extracted national prefix back and
// retries the extraction, in case a longer prefix now fits.
func (f *AsYouTypeFormatter) ableToExtractLongerNdd() bool {
	if f.extractedNationalPrefix != "" {
		f.nationalNumber = f.extractedNationalPrefix + f.nationalNumber
		// Only the last copy is removed: "+44 (0)20" keeps what came first.
		prefix := f.prefixBeforeNational.String()
		if i := strings.LastIndex(prefix, f.extractedNationalPrefix); i >= 0 {
			f.prefixBeforeNational.Reset()
			f.prefixBeforeNational.WriteString(prefix[:i])
		}
	}
	return f.extractedNationalPrefix != f.removeNationalPrefixFromNationalNumber()
}

// isNanpaNumberWithNationalPrefix treats a leading 1 as the national
// prefix unless the next digit is 0 or 1.
func (f *AsYouTypeFormatter) isNanpaNumberWithNationalPrefix() bool {
	nn := f.nationalNumber
	return f.currentMeta.CountryCode == nanpaCountryCode && len(nn) > 1 &&
		nn[0] == '1' && nn[1] != '0' && nn[1] != '1'
}

func (f *AsYouTypeFormatter) removeNationalPrefixFromNationalNumber() string {
	start := 0
	if f.isNanpaNumberWithNationalPrefix() {
		start = 1
		f.prefixBeforeNational.WriteByte('1')
		f.prefixBeforeNational.WriteRune(separatorBeforeNationalNumber)
		f.isCompleteNumber = true
	} else if np := f.currentMeta.NationalPrefixForParsing; np != "" {
		// Some parsing patterns are entirely optional; require that
		// something was consumed.
		if loc := f.e.patterns.Prefix(np).FindStringIndex(f.nationalNumber); loc != nil && loc[1] > 0 {
			f.isCompleteNumber = true
			start = loc[1]
			f.prefixBeforeNational.WriteString(f.nationalNumber[:start])
		}
	}
	prefix := f.nationalNumber[:start]
	f.nationalNumber = f.nationalNumber[start:]
	return prefix
}
