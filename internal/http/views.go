package http

import (
	"bytes"
	"fmt"

	"expensedesk/internal/core"
	"expensedesk/internal/workflow"
)

// Template names.
const (
	tmplIndex    = "index.html"
	tmplForm     = "form"
	tmplSubtypes = "subtypes"
	tmplTable    = "expenses_table"
	tmplSummary  = "summary"
)

// Empty-state texts for the expense table.
const (
	emptyNoRange  = "Select date range to view expenses"
	emptyNoResult = "No expenses found for the selected date range"
)

type subtypesView struct {
	Options  []string
	Selected string
}

type categoryView struct {
	Name     string
	Subtypes []string
}

// formView drives the form template for whichever phase is current.
type formView struct {
	Phase        string
	Categories   []categoryView
	Subtypes     subtypesView
	PaymentModes []string
	Draft        core.Draft
	Values       map[string]string
	Errors       map[string]string
	Balance      core.Money
}

type tableView struct {
	From, To string
	Expenses []core.Expense
	Empty    string
}

type summaryView struct {
	From, To string
	Summary  core.Summary
}

type indexView struct {
	Form  formView
	Table tableView
}

func taxonomyViews() []categoryView {
	cats := core.Categories()
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		subs, _ := core.Subtypes(c)
		out[i] = categoryView{Name: string(c), Subtypes: subs}
	}
	return out
}

func paymentModeNames() []string {
	modes := core.PaymentModes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

// newFormView prepares the form for phase. values and errs echo a rejected
// submission back to the user.
func newFormView(phase workflow.Phase, draft core.Draft, values, errs map[string]string) formView {
	if values == nil {
		values = map[string]string{}
	}
	v := formView{
		Phase:        phase.String(),
		Categories:   taxonomyViews(),
		PaymentModes: paymentModeNames(),
		Draft:        draft,
		Values:       values,
		Errors:       errs,
		Balance:      core.PreviewBalance(values[core.FieldTotal], values[core.FieldPaid]),
	}
	v.Subtypes = newSubtypesView(values[core.FieldCategory], values[core.FieldSubtype])
	return v
}

func newSubtypesView(category, selected string) subtypesView {
	v := subtypesView{Selected: selected}
	if c, ok := core.ParseCategory(category); ok {
		v.Options, _ = core.Subtypes(c)
	}
	return v
}

func newTableView(r workflow.DateRange, expenses []core.Expense) tableView {
	v := tableView{From: formatDay(r.From), To: formatDay(r.To), Expenses: expenses}
	if len(expenses) == 0 {
		if r.IsOpen() {
			v.Empty = emptyNoRange
		} else {
			v.Empty = emptyNoResult
		}
	}
	return v
}

func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
