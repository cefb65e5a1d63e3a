package validate

import "errors"

// Kind classifies why a field was rejected.
type Kind string

const (
	KindRequired   Kind = "required"
	KindFormat     Kind = "format"
	KindOutOfRange Kind = "out_of_range"
	KindTooShort   Kind = "too_short"
	KindTooLong    Kind = "too_long"
	KindCharset    Kind = "charset"
)

// Error is returned for any rejected field. Message is safe to show to the
// patient as a corrective hint.
type Error struct {
	Field   string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(field string, kind Kind, msg string) *Error {
	return &Error{Field: field, Kind: kind, Message: msg}
}

// IsKind reports whether err is a validation error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == kind
}

// IsOutOfRange reports whether err is an out-of-range validation error.
func IsOutOfRange(err error) bool { return IsKind(err, KindOutOfRange) }

// IsFormat reports whether err is a format validation error.
func IsFormat(err error) bool { return IsKind(err, KindFormat) }

// Hint returns the patient-facing message carried by a validation error, or
// the empty string if err is not one.
func Hint(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	return ""
}
