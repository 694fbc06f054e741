package core

import "strings"

type (
	// Category is the top level of the expense classification.
	Category string

	// PaymentMode is how an expense was settled.
	PaymentMode string
)

const (
	Maintenance          Category = "Maintenance"
	OfficeSupplies       Category = "Office Supplies"
	Utilities            Category = "Utilities"
	Transportation       Category = "Transportation"
	FoodCatering         Category = "Food & Catering"
	Technology           Category = "Technology"
	EducationalMaterials Category = "Educational Materials"
	StaffDevelopment     Category = "Staff Development"
	Infrastructure       Category = "Infrastructure"
	Miscellaneous        Category = "Miscellaneous"
)

const (
	PaymentBank           PaymentMode = "BANK"
	PaymentCash           PaymentMode = "CASH"
	PaymentCreditCard     PaymentMode = "CREDIT CARD"
	PaymentDebitCard      PaymentMode = "DEBIT CARD"
	PaymentCheque         PaymentMode = "CHEQUE"
	PaymentOnlineTransfer PaymentMode = "ONLINE TRANSFER"
	PaymentUPI            PaymentMode = "UPI"
	PaymentPettyCash      PaymentMode = "PETTY CASH"
)

// taxonomy keeps categories in display order; subtypes are ordered too.
var taxonomy = []struct {
	category Category
	subtypes []string
}{
	{Maintenance, []string{"Plumbing", "Electrical", "HVAC", "Cleaning", "Painting"}},
	{OfficeSupplies, []string{"Stationery", "Furniture", "Equipment", "Printing"}},
	{Utilities, []string{"Electricity", "Water", "Internet", "Phone", "Gas"}},
	{Transportation, []string{"Fuel", "Vehicle Maintenance", "Public Transport"}},
	{FoodCatering, []string{"Staff Meals", "Event Catering", "Refreshments"}},
	{Technology, []string{"Software", "Hardware", "IT Support", "Equipment"}},
	{EducationalMaterials, []string{"Books", "Supplies", "Digital Resources"}},
	{StaffDevelopment, []string{"Training", "Workshops", "Conferences"}},
	{Infrastructure, []string{"Building Repairs", "Renovations", "Upgrades"}},
	{Miscellaneous, []string{"Other Expenses", "Emergency Costs", "Unexpected"}},
}

var paymentModes = []PaymentMode{
	PaymentBank,
	PaymentCash,
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentCheque,
	PaymentOnlineTransfer,
	PaymentUPI,
	PaymentPettyCash,
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(taxonomy))
	for i, t := range taxonomy {
		out[i] = t.category
	}
	return out
}

// Subtypes returns a copy of the subtypes allowed for c.
func Subtypes(c Category) ([]string, bool) {
	for _, t := range taxonomy {
		if t.category == c {
			return append([]string(nil), t.subtypes...), true
		}
	}
	return nil, false
}

// ParseCategory matches s against the known categories, ignoring surrounding space.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, t := range taxonomy {
		if string(t.category) == s {
			return t.category, true
		}
	}
	return "", false
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := Subtypes(c)
	return ok
}

// Allows reports whether subtype belongs to c.
func (c Category) Allows(subtype string) bool {
	for _, t := range taxonomy {
		if t.category != c {
			continue
		}
		for _, s := range t.subtypes {
			if s == subtype {
				return true
			}
		}
		return false
	}
	return false
}

func (c Category) String() string { return string(c) }

// PaymentModes returns every payment mode in display order.
func PaymentModes() []PaymentMode {
	return append([]PaymentMode(nil), paymentModes...)
}

// ParsePaymentMode matches s against the known payment modes.
func ParsePaymentMode(s string) (PaymentMode, bool) {
	s = strings.TrimSpace(s)
	for _, m := range paymentModes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Valid reports whether m is one of the fixed payment modes.
func (m PaymentMode) Valid() bool {
	_, ok := ParsePaymentMode(string(m))
	return ok && strings.TrimSpace(string(m)) == string(m)
}

func (m PaymentMode) String() string { return string(m) }
