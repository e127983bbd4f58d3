package phonenumber

import "errors"

// ErrorKind identifies why a parse failed.
type ErrorKind int

const (
	NotANumber ErrorKind = iota + 1
	InvalidCountryCode
	TooShortAfterIDD
	TooShortNSN
	TooLongNSN
)

func (k ErrorKind) String() string {
	switch k {
	case NotANumber:
		return "NOT_A_NUMBER"
	case InvalidCountryCode:
		return "INVALID_COUNTRY_CODE"
	case TooShortAfterIDD:
		return "TOO_SHORT_AFTER_IDD"
	case TooShortNSN:
		return "TOO_SHORT_NSN"
	case TooLongNSN:
		return "TOO_LONG"
	default:
		return "UNKNOWN_ERROR"
	}
}

// ParseError is returned by every parse entry point.
type ParseError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is matches any ParseError of the same kind, so errors.Is(err,
// ErrTooLong) works regardless of the message.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotANumber         = &ParseError{Kind: NotANumber}
	ErrInvalidCountryCode = &ParseError{Kind: InvalidCountryCode}
	ErrTooShortAfterIDD   = &ParseError{Kind: TooShortAfterIDD}
	ErrTooShortNSN        = &ParseError{Kind: TooShortNSN}
	ErrTooLong            = &ParseError{Kind: TooLongNSN}
)

func parseErr(kind ErrorKind, msg string) error {
	return &ParseError{Kind: kind, Msg: msg}
}

// KindOf extracts the ErrorKind from err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
