package fields

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind is the reason a value failed validation.
type ErrorKind string

const (
	KindRequired      ErrorKind = "required"
	KindTooShort      ErrorKind = "tooShort"
	KindTooLong       ErrorKind = "tooLong"
	KindTooSmall      ErrorKind = "tooSmall"
	KindTooLarge      ErrorKind = "tooLarge"
	KindInvalidChoice ErrorKind = "invalidChoice"
	KindInvalid       ErrorKind = "invalid"
)

// ValidationError is returned by ValidateValue. Field is the title of the offending field.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	Limit any
}

var _ error = (*ValidationError)(nil)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindRequired:
		return fmt.Sprintf("field %q is required", e.Field)
	case KindTooShort:
		return fmt.Sprintf("field %q is too short, minimum length is %v", e.Field, e.Limit)
	case KindTooLong:
		return fmt.Sprintf("field %q is too long, maximum length is %v", e.Field, e.Limit)
	case KindTooSmall:
		return fmt.Sprintf("field %q is too small, minimum value is %v", e.Field, e.Limit)
	case KindTooLarge:
		return fmt.Sprintf("field %q is too large, maximum value is %v", e.Field, e.Limit)
	case KindInvalidChoice:
		return fmt.Sprintf("field %q has an invalid choice, allowed values are %v", e.Field, e.Limit)
	}
	if e.Limit != nil {
		return fmt.Sprintf("field %q is invalid: %v", e.Field, e.Limit)
	}
	return fmt.Sprintf("field %q is invalid", e.Field)
}

func newValidationError(kind ErrorKind, opts Options, limit any) error {
	return &ValidationError{Kind: kind, Field: opts.Label(), Limit: limit}
}

// AsValidationError unwraps err into a ValidationError. For joined errors the
// first ValidationError is returned.
func AsValidationError(err error) (*ValidationError, bool) {
	if list := ValidationErrors(err); len(list) > 0 {
		return list[0], true
	}
	return nil, false
}

// ValidationErrors returns every ValidationError in err, descending into joined errors.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var res []*ValidationError
		for _, e := range multi.Unwrap() {
			res = append(res, ValidationErrors(e)...)
		}
		return res
	}
	if verr, ok := err.(*ValidationError); ok {
		return []*ValidationError{verr}
	}
	return ValidationErrors(errors.UnwrapOnce(err))
}
