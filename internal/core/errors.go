package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyDescription   = errors.New("empty description")
	ErrMissingCategory    = errors.New("category is required")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrMissingSubtype     = errors.New("expense name is required")
	ErrMissingPaymentMode = errors.New("payment mode is required")
	ErrUnknownPaymentMode = errors.New("unknown payment mode")
	ErrInvalidDate        = errors.New("invalid date")

	// ErrInvariantViolation marks input the forms should never be able to produce,
	// such as a subtype picked from another category.
	ErrInvariantViolation = errors.New("invariant violation")
)

func subtypeViolation(c Category, subtype string) error {
	return fmt.Errorf("%w: %q is not a %s expense", ErrInvariantViolation, subtype, c)
}

// Form field names used in FieldError.
const (
	FieldCategory    = "category"
	FieldSubtype     = "subtype"
	FieldDescription = "description"
	FieldPayerName   = "payer_name"
	FieldPayerMobile = "payer_mobile"
	FieldPaymentMode = "payment_mode"
	FieldTotal       = "total_amount"
	FieldPaid        = "paid_amount"
	FieldDate        = "date"
)

// FieldError is a validation failure scoped to one form field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e FieldError) Unwrap() error { return e.Err }

// ValidationError collects every field that failed validation in one submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the field causes so errors.Is matches any of them.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f)
	}
	return out
}

// Add records a failure for field.
func (e *ValidationError) Add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: err.Error(), Err: err})
}

// Field returns the first failure recorded for field.
func (e *ValidationError) Field(field string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f, true
		}
	}
	return FieldError{}, false
}

// Messages maps each failing field to its first message.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

// Err returns nil when nothing was recorded, so callers never see a typed nil.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
