package core

import "iter"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Count  int
	Amount Money
}

// Summary is the report over a set of expenses.
type Summary struct {
	Count      int
	Total      Money
	Paid       Money
	ByCategory []CategoryAmount
}

// Balance is what is still owed across the summarized expenses.
func (s Summary) Balance() Money {
	return s.Total.Sub(s.Paid)
}

// Summarize totals the expenses yielded by seq. Categories appear in
// taxonomy order and only when at least one expense falls in them.
func Summarize(seq iter.Seq[Expense]) Summary {
	var s Summary
	byCat := make(map[Category]*CategoryAmount)
	for e := range seq {
		s.Count++
		s.Total = s.Total.Add(e.Total)
		s.Paid = s.Paid.Add(e.Paid)
		ca, ok := byCat[e.Category]
		if !ok {
			ca = &CategoryAmount{Name: string(e.Category)}
			byCat[e.Category] = ca
		}
		ca.Count++
		ca.Amount = ca.Amount.Add(e.Total)
	}
	for _, c := range Categories() {
		if ca, ok := byCat[c]; ok {
			s.ByCategory = append(s.ByCategory, *ca)
		}
	}
	return s
}
