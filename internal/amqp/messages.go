package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expensedesk/internal/core"

	"github.com/google/uuid"
)

// ErrInvalidPayload marks a message that can never be processed. Consumers
// drop it instead of requeueing.
var ErrInvalidPayload = errors.New("invalid expense payload")

// ExpenseCreatedMessage announces a committed expense. It carries the full
// record so consumers never need to read the producer's store.
type ExpenseCreatedMessage struct {
	MessageID string         `json:"message_id"`
	Expense   ExpensePayload `json:"expense"`
	Timestamp time.Time      `json:"timestamp"`
}

// ExpensePayload is the wire shape of core.Expense. Amounts travel as cents.
type ExpensePayload struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Subtype     string `json:"subtype"`
	Description string `json:"description"`
	PayerName   string `json:"payer_name,omitempty"`
	PayerMobile string `json:"payer_mobile,omitempty"`
	PaymentMode string `json:"payment_mode"`
	TotalCents  int64  `json:"total_cents"`
	PaidCents   int64  `json:"paid_cents"`
}

func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		MessageID: uuid.NewString(),
		Expense: ExpensePayload{
			ID:          e.ID,
			Date:        e.Date.DateOnly().Format(time.DateOnly),
			Category:    string(e.Category),
			Subtype:     e.Subtype,
			Description: e.Description,
			PayerName:   e.PayerName,
			PayerMobile: e.PayerMobile,
			PaymentMode: string(e.PaymentMode),
			TotalCents:  e.Total.Cents,
			PaidCents:   e.Paid.Cents,
		},
		Timestamp: time.Now(),
	}
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToExpense rebuilds and validates the carried expense.
func (p ExpensePayload) ToExpense() (core.Expense, error) {
	d, err := time.Parse(time.DateOnly, p.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: parse date %q: %w", ErrInvalidPayload, p.Date, err)
	}
	e := core.Expense{
		ID:          p.ID,
		Date:        core.Date{Time: d},
		Category:    core.Category(p.Category),
		Subtype:     p.Subtype,
		Description: p.Description,
		PayerName:   p.PayerName,
		PayerMobile: p.PayerMobile,
		PaymentMode: core.PaymentMode(p.PaymentMode),
		Total:       core.Money{Cents: p.TotalCents},
		Paid:        core.Money{Cents: p.PaidCents},
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return e, nil
}
