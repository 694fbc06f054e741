package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"expensedesk/internal/core"

	"github.com/fatih/color"
)

var colorsOptions = map[string]color.Attribute{
	"red":       color.FgHiRed,
	"green":     color.FgGreen,
	"yellow":    color.FgYellow,
	"underline": color.Underline,
	"bold":      color.Bold,
}

// ColorOutput renders text with the named attributes. Unknown names are ignored.
func ColorOutput(text string, colorOptions ...string) string {
	attributes := []color.Attribute{}
	for _, option := range colorOptions {
		if o, ok := colorsOptions[option]; ok {
			attributes = append(attributes, o)
		}
	}
	return color.New(attributes...).Sprint(text)
}

// FormatBalance colors an outstanding balance red, a settled one green and
// an overpayment yellow.
func FormatBalance(m core.Money) string {
	switch {
	case m.IsPositive():
		return ColorOutput(m.String(), "red", "bold")
	case m.Cents == 0:
		return ColorOutput(m.String(), "green")
	default:
		return ColorOutput(m.String(), "yellow")
	}
}

// WriteExpenses prints one row per expense.
func WriteExpenses(w io.Writer, items []core.Expense) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No expenses found for the selected date range")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tSUBTYPE\tDESCRIPTION\tMODE\tTOTAL\tPAID\tBALANCE")
	for _, e := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Date.DateOnly().Format("2006-01-02"),
			e.Category,
			e.Subtype,
			e.Description,
			e.PaymentMode,
			e.Total,
			e.Paid,
			FormatBalance(e.Balance()))
	}
	return tw.Flush()
}

// WriteSummary prints the report for a range. Empty bounds print as "any".
func WriteSummary(w io.Writer, from, to string, s core.Summary) error {
	if from == "" {
		from = "any"
	}
	if to == "" {
		to = "any"
	}
	fmt.Fprintf(w, "%s %s .. %s\n", ColorOutput("Report", "bold", "underline"), from, to)
	if s.Count == 0 {
		_, err := fmt.Fprintln(w, "No expenses in this range")
		return err
	}
	fmt.Fprintf(w, "Expenses: %d\n", s.Count)
	fmt.Fprintf(w, "Total:    %s\n", s.Total)
	fmt.Fprintf(w, "Paid:     %s\n", s.Paid)
	fmt.Fprintf(w, "Balance:  %s\n\n", FormatBalance(s.Balance()))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range s.ByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Name, c.Count, c.Amount)
	}
	return tw.Flush()
}
