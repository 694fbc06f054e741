// Package worker mirrors created expenses into a secondary sink.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensedesk/internal/amqp"
	"expensedesk/internal/core"
)

// Sink receives mirrored expenses. The Google Sheets client satisfies it.
type Sink interface {
	Append(ctx context.Context, e core.Expense) (int64, error)
	Contains(ctx context.Context, id int64) (bool, error)
}

// Source lists the expenses of the primary store.
type Source interface {
	ListAll(ctx context.Context) ([]core.Expense, error)
}

// MirrorWorker copies every created expense to a sink exactly once per ID.
type MirrorWorker struct {
	sink   Sink
	logger *slog.Logger
}

func NewMirrorWorker(sink Sink, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{sink: sink, logger: logger.With("component", "worker")}
}

// HandleCreated processes a single expense-created message. Redelivered
// messages for an ID already in the sink are acknowledged without writing.
func (w *MirrorWorker) HandleCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	e, err := msg.Expense.ToExpense()
	if err != nil {
		return fmt.Errorf("decode expense %d: %w", msg.Expense.ID, err)
	}

	w.logger.InfoContext(ctx, "Processing expense message",
		"id", e.ID,
		"message_id", msg.MessageID)

	return w.mirror(ctx, e)
}

// Reconcile appends every expense of src the sink is missing. It recovers
// messages lost while the worker was down.
func (w *MirrorWorker) Reconcile(ctx context.Context, src Source) error {
	items, err := src.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list source expenses: %w", err)
	}
	if len(items) == 0 {
		w.logger.InfoContext(ctx, "No expenses to reconcile")
		return nil
	}

	synced, failed := 0, 0
	for _, e := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror(ctx, e); err != nil {
			w.logger.ErrorContext(ctx, "Failed to reconcile expense", "id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		"total", len(items),
		"checked", synced,
		"errors", failed)
	return nil
}

func (w *MirrorWorker) mirror(ctx context.Context, e core.Expense) error {
	exists, err := w.sink.Contains(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("check sink for expense %d: %w", e.ID, err)
	}
	if exists {
		w.logger.DebugContext(ctx, "Expense already mirrored", "id", e.ID)
		return nil
	}
	if _, err := w.sink.Append(ctx, e); err != nil {
		return fmt.Errorf("append expense %d: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Mirrored expense",
		"id", e.ID,
		"total_cents", e.Total.Cents)
	return nil
}
