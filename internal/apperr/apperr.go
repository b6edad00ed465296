// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// Error carries a stable machine-readable code next to the human message
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so copies made by With* still
// satisfy errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) clone() *Error {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// With returns a copy of e carrying an extra detail
func (e *Error) With(key string, value any) *Error {
	c := e.clone()
	if c.Details == nil {
		c.Details = map[string]any{}
	}
	c.Details[key] = value
	return c
}

// Msgf returns a copy of e with a more specific message
func (e *Error) Msgf(format string, args ...any) *Error {
	c := e.clone()
	c.Message = fmt.Sprintf(format, args...)
	return c
}

// Wrap returns a copy of e with err as its cause
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.Err = err
	return c
}

var (
	ErrInsufficientStock       = &Error{Kind: KindValidation, Code: "INSUFFICIENT_STOCK", Message: "insufficient stock"}
	ErrInvalidPaymentAmount    = &Error{Kind: KindValidation, Code: "INVALID_PAYMENT_AMOUNT", Message: "invalid payment amount"}
	ErrExceedsOriginalQuantity = &Error{Kind: KindValidation, Code: "EXCEEDS_ORIGINAL_QUANTITY", Message: "return quantity exceeds original quantity"}
	ErrUnknownUnit             = &Error{Kind: KindValidation, Code: "UNKNOWN_UNIT", Message: "unknown unit"}
	ErrMissingRequiredField    = &Error{Kind: KindValidation, Code: "MISSING_REQUIRED_FIELD", Message: "missing required field"}
	ErrInvalidPromotion        = &Error{Kind: KindValidation, Code: "INVALID_PROMOTION", Message: "promotion is not applicable"}
	ErrInvalidInput            = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}
	ErrImport                  = &Error{Kind: KindValidation, Code: "IMPORT_FAILED", Message: "import failed"}

	ErrNotFound   = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "not found"}
	ErrReferenced = &Error{Kind: KindConflict, Code: "REFERENCED", Message: "record is still referenced"}
	ErrDuplicate  = &Error{Kind: KindConflict, Code: "DUPLICATE", Message: "record already exists"}
	ErrLocked     = &Error{Kind: KindConflict, Code: "LOCKED", Message: "resource is busy, try again"}

	ErrInternal = &Error{Kind: KindInternal, Code: "INTERNAL", Message: "internal error"}
)

// NotFound builds a not-found error for the named entity
func NotFound(entity string, id any) *Error {
	return ErrNotFound.Msgf("%s not found", entity).With("entity", entity).With("id", fmt.Sprint(id))
}

// MissingField builds a MissingRequiredField error for the given field
func MissingField(field string) *Error {
	return ErrMissingRequiredField.Msgf("missing required field '%s'", field).With("field", field)
}

// Invalid builds a generic validation error
func Invalid(format string, args ...any) *Error {
	return ErrInvalidInput.Msgf(format, args...)
}

// As extracts the *Error from err, wrapping unknown errors as internal
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.Wrap(err)
}

func KindOf(err error) Kind {
	return As(err).Kind
}

// HTTPStatus maps an error to the status code handlers respond with
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
