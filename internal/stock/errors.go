package stock

import (
	"errors"
	"fmt"
)

// Kind classifies stock errors so callers can handle them distinctly.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindBusiness
	KindAllocation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusiness:
		return "business"
	case KindAllocation:
		return "allocation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// FieldError points a validation failure at one input field.
type FieldError struct {
	Field   string
	Message string
}

// Error is the error type returned by the stock core and the services built on it.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

// Validation reports missing or out-of-range input.
func Validation(field, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    KindValidation,
		Message: msg,
		Fields:  []FieldError{{Field: field, Message: msg}},
	}
}

// Business reports a violated business rule (capacity, stock, edit window, references).
func Business(format string, args ...any) *Error {
	return &Error{Kind: KindBusiness, Message: fmt.Sprintf(format, args...)}
}

// Allocation reports a plan that could not cover the requested quantity.
func Allocation(format string, args ...any) *Error {
	return &Error{Kind: KindAllocation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing silo or ledger record.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsBusiness(err error) bool   { return KindOf(err) == KindBusiness }
func IsAllocation(err error) bool { return KindOf(err) == KindAllocation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
