package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensedesk/internal/core"
)

// Messages shown to the user around the two steps.
const (
	DetailsAcceptedTitle   = "Step 1 Complete"
	DetailsAcceptedMessage = "Now complete the payment details."
	CreatedTitle           = "Expense Created Successfully!"
)

// CreatedMessage is the human readable confirmation for e.
func CreatedMessage(e core.Expense) string {
	return fmt.Sprintf("%s expense of %s has been added.", e.Category, e.Total)
}

// LogNotifier records created expenses in the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) ExpenseCreated(ctx context.Context, e core.Expense) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, CreatedMessage(e), "id", e.ID, "component", "notifier")
	return nil
}

// Notifiers fans a notification out to every member, joining their errors.
type Notifiers []Notifier

func (ns Notifiers) ExpenseCreated(ctx context.Context, e core.Expense) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.ExpenseCreated(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
