// Package memory keeps expenses in process memory. It is the default store;
// nothing survives a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"expensedesk/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New() *Store {
	return &Store{}
}

// seedExpense is the on-disk shape of a seeded expense.
type seedExpense struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Subtype     string `json:"subtype"`
	Description string `json:"description"`
	PayerName   string `json:"payer_name"`
	PayerMobile string `json:"payer_mobile"`
	PaymentMode string `json:"payment_mode"`
	Total       string `json:"total"`
	Paid        string `json:"paid"`
}

// NewFromFile creates a store pre-filled from a JSON array of expenses.
// A missing file yields an empty store; malformed entries are an error.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedExpense
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, se := range seeds {
		e, err := se.expense(int64(i + 1))
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if _, err := s.Append(context.Background(), e); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return s, nil
}

func (se seedExpense) expense(id int64) (core.Expense, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(se.Date))
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", se.Date, err)
	}
	draft, err := core.Details{
		Category:    se.Category,
		Subtype:     se.Subtype,
		PayerName:   se.PayerName,
		PayerMobile: se.PayerMobile,
		Description: se.Description,
	}.Validate()
	if err != nil {
		return core.Expense{}, err
	}
	mode, total, paid, err := core.Payment{PaymentMode: se.PaymentMode, Total: se.Total, Paid: se.Paid}.Validate()
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          id,
		Date:        core.Date{Time: d},
		Category:    draft.Category,
		Subtype:     draft.Subtype,
		Description: draft.Description,
		PayerName:   draft.PayerName,
		PayerMobile: draft.PayerMobile,
		PaymentMode: mode,
		Total:       total,
		Paid:        paid,
	}, nil
}

// Append stores the expense under its own ID and returns it.
func (s *Store) Append(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return e.ID, nil
}

// ListAll returns every expense in insertion order.
func (s *Store) ListAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}
