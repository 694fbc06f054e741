package core

import (
	"errors"
	"iter"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestDetailsValidate(t *testing.T) {
	draft, err := Details{
		Category:    " Utilities ",
		Subtype:     "Electricity",
		PayerName:   " Ravi ",
		Description: "March bill",
	}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if draft.Category != Utilities || draft.Subtype != "Electricity" || draft.PayerName != "Ravi" {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	cases := []struct {
		name  string
		in    Details
		field string
		err   error
	}{
		{"missing category", Details{Subtype: "Water", Description: "x"}, FieldCategory, ErrMissingCategory},
		{"unknown category", Details{Category: "Sports", Subtype: "Water", Description: "x"}, FieldCategory, ErrUnknownCategory},
		{"missing subtype", Details{Category: "Utilities", Description: "x"}, FieldSubtype, ErrMissingSubtype},
		{"foreign subtype", Details{Category: "Utilities", Subtype: "Plumbing", Description: "x"}, FieldSubtype, ErrInvariantViolation},
		{"blank description", Details{Category: "Utilities", Subtype: "Water", Description: "   "}, FieldDescription, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.in.Validate()
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			verr, ok := AsValidation(err)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if _, ok := verr.Field(tc.field); !ok {
				t.Fatalf("expected failure on %s, got %v", tc.field, verr.Messages())
			}
		})
	}
}

func TestDetailsValidateLongDescription(t *testing.T) {
	long := strings.Repeat("Replaced corridor light fittings. ", 40)
	draft, err := Details{Category: "Maintenance", Subtype: "Electrical", Description: long}.Validate()
	if err != nil {
		t.Fatalf("long description rejected: %v", err)
	}
	if draft.Description != strings.TrimSpace(long) {
		t.Fatalf("description altered: %d chars", len(draft.Description))
	}
}

func TestDetailsValidateReportsEveryField(t *testing.T) {
	_, err := Details{}.Validate()
	verr, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	msgs := verr.Messages()
	if _, ok := msgs[FieldCategory]; !ok {
		t.Fatalf("missing category message: %v", msgs)
	}
	if _, ok := msgs[FieldDescription]; !ok {
		t.Fatalf("missing description message: %v", msgs)
	}
}

func TestPaymentValidate(t *testing.T) {
	mode, total, paid, err := Payment{PaymentMode: "BANK", Total: "500", Paid: "200"}.Validate()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if mode != PaymentBank || total.Cents != 50000 || paid.Cents != 20000 {
		t.Fatalf("unexpected parse: %v %v %v", mode, total, paid)
	}

	_, _, paid, err = Payment{PaymentMode: "UPI", Total: "10"}.Validate()
	if err != nil || paid.Cents != 0 {
		t.Fatalf("empty paid should default to zero, got %v err=%v", paid, err)
	}

	bads := []struct {
		in  Payment
		err error
	}{
		{Payment{Total: "10"}, ErrMissingPaymentMode},
		{Payment{PaymentMode: "BARTER", Total: "10"}, ErrUnknownPaymentMode},
		{Payment{PaymentMode: "CASH", Total: "-10"}, ErrNegativeAmount},
		{Payment{PaymentMode: "CASH", Total: ""}, ErrInvalidAmount},
		{Payment{PaymentMode: "CASH", Total: "ten"}, ErrInvalidAmount},
		{Payment{PaymentMode: "CASH", Total: "10", Paid: "-1"}, ErrNegativeAmount},
	}
	for i, tc := range bads {
		if _, _, _, err := tc.in.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestExpenseBalance(t *testing.T) {
	pairs := [][2]int64{{50000, 20000}, {0, 0}, {100, 250}, {12345, 12345}, {1, 0}}
	for _, p := range pairs {
		e := Expense{Total: Money{Cents: p[0]}, Paid: Money{Cents: p[1]}}
		if got := e.Balance().Cents; got != p[0]-p[1] {
			t.Fatalf("balance(%d, %d) = %d", p[0], p[1], got)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:          1,
		Date:        NewDate(2025, 3, 1),
		Category:    Utilities,
		Subtype:     "Electricity",
		Description: "March bill",
		PaymentMode: PaymentBank,
		Total:       Money{Cents: 50000},
		Paid:        Money{Cents: 20000},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutate := []func(*Expense){
		func(e *Expense) { e.Date = Date{} },
		func(e *Expense) { e.Category = "" },
		func(e *Expense) { e.Subtype = "Plumbing" },
		func(e *Expense) { e.Description = "" },
		func(e *Expense) { e.PaymentMode = "BARTER" },
		func(e *Expense) { e.Total = Money{Cents: -1} },
		func(e *Expense) { e.Paid = Money{Cents: -1} },
	}
	for i, m := range mutate {
		e := good
		m(&e)
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := Date{Time: time.Date(2025, 3, 1, 23, 59, 0, 0, loc)}
	if got := d.DateOnly(); !got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("DateOnly() = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	items := []Expense{
		{Category: Utilities, Total: Money{Cents: 50000}, Paid: Money{Cents: 20000}},
		{Category: Maintenance, Total: Money{Cents: 1000}, Paid: Money{Cents: 1000}},
		{Category: Utilities, Total: Money{Cents: 500}},
	}
	s := Summarize(slices.Values(items))
	if s.Count != 3 || s.Total.Cents != 51500 || s.Paid.Cents != 21000 || s.Balance().Cents != 30500 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if len(s.ByCategory) != 2 || s.ByCategory[0].Name != "Maintenance" || s.ByCategory[1].Amount.Cents != 50500 {
		t.Fatalf("unexpected categories: %+v", s.ByCategory)
	}

	var empty iter.Seq[Expense] = func(func(Expense) bool) {}
	if s := Summarize(empty); s.Count != 0 || s.ByCategory != nil {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}
