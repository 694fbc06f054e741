package workflow

import (
	"context"

	"expensedesk/internal/core"
)

// Ports for outbound collaborators.
type (
	// Store persists created expenses. Append returns the stored expense ID.
	Store interface {
		Append(ctx context.Context, e core.Expense) (int64, error)
		ListAll(ctx context.Context) ([]core.Expense, error)
	}

	// Notifier observes committed expenses. It cannot veto a commit.
	Notifier interface {
		ExpenseCreated(ctx context.Context, e core.Expense) error
	}
)
