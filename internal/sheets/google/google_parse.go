package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensedesk/internal/core"
)

var header = []any{"ID", "Date", "Category", "Subtype", "Description", "Payer", "Mobile", "Payment Mode", "Total", "Paid", "Balance"}

const minColumns = 10

func formatRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Date.DateOnly().Format(time.DateOnly),
		string(e.Category),
		e.Subtype,
		e.Description,
		e.PayerName,
		e.PayerMobile,
		string(e.PaymentMode),
		e.Total.Decimal().StringFixed(2),
		e.Paid.Decimal().StringFixed(2),
		e.Balance().Decimal().StringFixed(2),
	}
}

// parseRow converts one sheet row back into an expense. Amounts accept the
// same forms as the web form, including a decimal comma.
func parseRow(cols []string) (core.Expense, error) {
	if len(cols) < minColumns {
		return core.Expense{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(cols))
	}
	id, err := strconv.ParseInt(cols[0], 10, 64)
	if err != nil || id <= 0 {
		return core.Expense{}, fmt.Errorf("invalid id %q", cols[0])
	}
	d, err := time.Parse(time.DateOnly, cols[1])
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid date %q: %w", cols[1], err)
	}
	total, err := core.ParseAmount(cols[8])
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid total %q: %w", cols[8], err)
	}
	paid, err := core.ParseOptionalAmount(cols[9])
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid paid %q: %w", cols[9], err)
	}
	e := core.Expense{
		ID:          id,
		Date:        core.Date{Time: d},
		Category:    core.Category(cols[2]),
		Subtype:     cols[3],
		Description: cols[4],
		PayerName:   cols[5],
		PayerMobile: cols[6],
		PaymentMode: core.PaymentMode(cols[7]),
		Total:       total,
		Paid:        paid,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, errors.Join(fmt.Errorf("row %d", id), err)
	}
	return e, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
