package core

import (
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a recorded outlay. It is immutable once created; Balance is
	// always derived from Total and Paid.
	Expense struct {
		ID          int64
		Date        Date
		Category    Category
		Subtype     string
		Description string
		PayerName   string
		PayerMobile string
		PaymentMode PaymentMode
		Total       Money
		Paid        Money
	}

	// Details is the first step of the creation workflow.
	Details struct {
		Category    string
		Subtype     string
		PayerName   string
		PayerMobile string
		Description string
	}

	// Payment is the second step of the creation workflow. Amounts arrive as
	// the raw text typed into the form; an empty Paid means nothing paid yet.
	Payment struct {
		PaymentMode string
		Total       string
		Paid        string
	}

	// Draft holds the accepted details between the two steps.
	Draft struct {
		Category    Category
		Subtype     string
		PayerName   string
		PayerMobile string
		Description string
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOnly returns the calendar day of d at midnight UTC, dropping the time of day.
func (d Date) DateOnly() time.Time {
	return DayOf(d.Time)
}

// DayOf truncates t to its calendar date, read in t's own location.
func DayOf(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Balance is Total minus Paid. It goes negative on overpayment.
func (e Expense) Balance() Money {
	return e.Total.Sub(e.Paid)
}

// Validate checks a fully built expense, as stores receive it.
func (e Expense) Validate() error {
	var verr ValidationError
	if err := e.Date.Validate(); err != nil {
		verr.Add(FieldDate, err)
	}
	switch {
	case e.Category == "":
		verr.Add(FieldCategory, ErrMissingCategory)
	case !e.Category.Valid():
		verr.Add(FieldCategory, ErrUnknownCategory)
	case e.Subtype == "":
		verr.Add(FieldSubtype, ErrMissingSubtype)
	case !e.Category.Allows(e.Subtype):
		verr.Add(FieldSubtype, subtypeViolation(e.Category, e.Subtype))
	}
	if strings.TrimSpace(e.Description) == "" {
		verr.Add(FieldDescription, ErrEmptyDescription)
	}
	if e.PaymentMode == "" {
		verr.Add(FieldPaymentMode, ErrMissingPaymentMode)
	} else if !e.PaymentMode.Valid() {
		verr.Add(FieldPaymentMode, ErrUnknownPaymentMode)
	}
	if err := e.Total.Validate(); err != nil {
		verr.Add(FieldTotal, err)
	}
	if err := e.Paid.Validate(); err != nil {
		verr.Add(FieldPaid, err)
	}
	return verr.Err()
}

// Validate checks the first workflow step and returns the normalized draft.
func (d Details) Validate() (Draft, error) {
	var verr ValidationError
	draft := Draft{
		Subtype:     strings.TrimSpace(d.Subtype),
		PayerName:   strings.TrimSpace(d.PayerName),
		PayerMobile: strings.TrimSpace(d.PayerMobile),
		Description: strings.TrimSpace(d.Description),
	}

	if strings.TrimSpace(d.Category) == "" {
		verr.Add(FieldCategory, ErrMissingCategory)
	} else if c, ok := ParseCategory(d.Category); !ok {
		verr.Add(FieldCategory, ErrUnknownCategory)
	} else {
		draft.Category = c
		if draft.Subtype == "" {
			verr.Add(FieldSubtype, ErrMissingSubtype)
		} else if !c.Allows(draft.Subtype) {
			verr.Add(FieldSubtype, subtypeViolation(c, draft.Subtype))
		}
	}
	if draft.Description == "" {
		verr.Add(FieldDescription, ErrEmptyDescription)
	}

	if err := verr.Err(); err != nil {
		return Draft{}, err
	}
	return draft, nil
}

// Validate checks the second workflow step and returns the parsed amounts.
func (p Payment) Validate() (PaymentMode, Money, Money, error) {
	var verr ValidationError

	mode, ok := ParsePaymentMode(p.PaymentMode)
	switch {
	case strings.TrimSpace(p.PaymentMode) == "":
		verr.Add(FieldPaymentMode, ErrMissingPaymentMode)
	case !ok:
		verr.Add(FieldPaymentMode, ErrUnknownPaymentMode)
	}

	total, err := ParseAmount(p.Total)
	if err != nil {
		verr.Add(FieldTotal, err)
	}
	paid, err := ParseOptionalAmount(p.Paid)
	if err != nil {
		verr.Add(FieldPaid, err)
	}

	if err := verr.Err(); err != nil {
		return "", Money{}, Money{}, err
	}
	return mode, total, paid, nil
}

// IsEmpty reports whether nothing has been accepted into the draft yet.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}
