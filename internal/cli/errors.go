package cli

import (
	"errors"
	"fmt"

	"github.com/allyourbase/dialplan/phonenumber"
)

// hintedError carries fix suggestions for ui.FormatError.
type hintedError struct {
	err   error
	hints []string
}

func (e *hintedError) Error() string { return e.err.Error() }
func (e *hintedError) Unwrap() error { return e.err }

// Hints returns the fix suggestions attached to err, if any.
func Hints(err error) []string {
	var h *hintedError
	if errors.As(err, &h) {
		return h.hints
	}
	return nil
}

func withHints(err error, hints ...string) error {
	return &hintedError{err: err, hints: hints}
}

// parseFailure wraps an engine parse error for text, suggesting --region
// when the calling code could not be worked out.
func parseFailure(text, region string, err error) error {
	wrapped := fmt.Errorf("cannot parse %q: %w", text, err)
	if kind, ok := phonenumber.KindOf(err); ok && kind == phonenumber.InvalidCountryCode && region == "" {
		return withHints(wrapped,
			fmt.Sprintf("dialplan parse --region US %q   # say where the number was dialled", text),
			fmt.Sprintf("dialplan parse \"+<calling code> %s\"", text),
		)
	}
	return wrapped
}
