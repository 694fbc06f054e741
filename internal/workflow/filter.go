package workflow

import (
	"iter"
	"time"

	"expensedesk/internal/core"
)

// DateRange bounds a listing. Nil bounds are open; set bounds are inclusive
// and compared at day precision, so To covers its whole day.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d core.Date) bool {
	day := d.DateOnly()
	if r.From != nil && day.Before(core.DayOf(*r.From)) {
		return false
	}
	if r.To != nil && day.After(core.DayOf(*r.To)) {
		return false
	}
	return true
}

// Filter yields the items inside r in their original order. The returned
// sequence is lazy and can be ranged over any number of times.
func Filter(items []core.Expense, r DateRange) iter.Seq[core.Expense] {
	return func(yield func(core.Expense) bool) {
		for _, e := range items {
			if !r.Contains(e.Date) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
