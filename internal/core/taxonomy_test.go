package core

import (
	"slices"
	"testing"
)

func TestCategoriesOrder(t *testing.T) {
	want := []Category{
		"Maintenance", "Office Supplies", "Utilities", "Transportation", "Food & Catering",
		"Technology", "Educational Materials", "Staff Development", "Infrastructure", "Miscellaneous",
	}
	if got := Categories(); !slices.Equal(got, want) {
		t.Fatalf("Categories() = %v", got)
	}
}

func TestSubtypes(t *testing.T) {
	subs, ok := Subtypes(Technology)
	if !ok || !slices.Equal(subs, []string{"Software", "Hardware", "IT Support", "Equipment"}) {
		t.Fatalf("Subtypes(Technology) = %v, %v", subs, ok)
	}

	// Lookups hand out copies.
	subs[0] = "Hacked"
	again, _ := Subtypes(Technology)
	if again[0] != "Software" {
		t.Fatalf("taxonomy was mutated through returned slice")
	}

	if _, ok := Subtypes("Sports"); ok {
		t.Fatalf("unknown category should not resolve")
	}
}

func TestCategoryAllows(t *testing.T) {
	cases := []struct {
		c   Category
		sub string
		ok  bool
	}{
		{OfficeSupplies, "Equipment", true},
		{Technology, "Equipment", true},
		{Utilities, "Equipment", false},
		{Transportation, "Vehicle Maintenance", true},
		{Maintenance, "plumbing", false},
		{"Sports", "Plumbing", false},
	}
	for _, tc := range cases {
		if got := tc.c.Allows(tc.sub); got != tc.ok {
			t.Fatalf("%s.Allows(%q) = %v", tc.c, tc.sub, got)
		}
	}
}

func TestPaymentModes(t *testing.T) {
	want := []PaymentMode{"BANK", "CASH", "CREDIT CARD", "DEBIT CARD", "CHEQUE", "ONLINE TRANSFER", "UPI", "PETTY CASH"}
	if got := PaymentModes(); !slices.Equal(got, want) {
		t.Fatalf("PaymentModes() = %v", got)
	}
	if m, ok := ParsePaymentMode(" UPI "); !ok || m != PaymentUPI {
		t.Fatalf("ParsePaymentMode(UPI) = %v, %v", m, ok)
	}
	if _, ok := ParsePaymentMode("upi"); ok {
		t.Fatalf("payment modes are case sensitive")
	}
	if PaymentMode(" UPI").Valid() {
		t.Fatalf("untrimmed mode should not be valid")
	}
}
