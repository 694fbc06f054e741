// Package workflow implements the two-step expense creation flow.
//
// A Workflow moves Idle -> CollectingDetails -> ConfirmingPayment -> Idle.
// Details are validated before payment is asked for, and an expense is only
// created once both steps pass validation in that order. Cancel drops the
// draft from any step.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"expensedesk/internal/core"
)

// Phase is the state of the creation flow.
type Phase int

const (
	Idle Phase = iota
	CollectingDetails
	ConfirmingPayment
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case CollectingDetails:
		return "collecting_details"
	case ConfirmingPayment:
		return "confirming_payment"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrInvalidTransition is returned when an operation is called in a phase
// that does not accept it.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Options configures optional collaborators of a Workflow.
type Options struct {
	Notifier Notifier
	Clock    func() time.Time
	Logger   *slog.Logger
}

// Workflow owns the expense collection and the creation state machine.
// It is the single writer of the collection; calls are serialized.
type Workflow struct {
	mu       sync.Mutex
	phase    Phase
	draft    core.Draft
	expenses []core.Expense
	nextID   int64

	store    Store
	notifier Notifier
	clock    func() time.Time
	logger   *slog.Logger
}

// New creates a Workflow seeded with everything the store already holds.
func New(ctx context.Context, store Store, opts Options) (*Workflow, error) {
	if store == nil {
		return nil, errors.New("workflow: nil store")
	}
	existing, err := store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	w := &Workflow{
		phase:    Idle,
		expenses: existing,
		store:    store,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	w.nextID = int64(len(existing)) + 1
	for _, e := range existing {
		if e.ID >= w.nextID {
			w.nextID = e.ID + 1
		}
	}
	if w.clock == nil {
		w.clock = time.Now
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("component", "workflow")
	return w, nil
}

// Phase returns the current phase.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Draft returns a copy of the accepted details, empty outside ConfirmingPayment.
func (w *Workflow) Draft() core.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Expenses returns a snapshot of the collection in insertion order.
func (w *Workflow) Expenses() []core.Expense {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.Expense(nil), w.expenses...)
}

// Len returns the number of created expenses.
func (w *Workflow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.expenses)
}

// StartCreation opens the details step with an empty draft.
func (w *Workflow) StartCreation() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != Idle {
		return w.transitionError("start creation")
	}
	w.draft = core.Draft{}
	w.phase = CollectingDetails
	w.logger.Debug("Expense creation started")
	return nil
}

// SubmitDetails validates the first step. On failure the phase is unchanged
// and the error is a *core.ValidationError.
func (w *Workflow) SubmitDetails(d core.Details) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != CollectingDetails {
		return w.transitionError("submit details")
	}
	draft, err := d.Validate()
	if err != nil {
		if errors.Is(err, core.ErrInvariantViolation) {
			w.logger.Warn("Details rejected by taxonomy invariant",
				"category", d.Category,
				"subtype", d.Subtype,
				"error", err)
		}
		return err
	}
	w.draft = draft
	w.phase = ConfirmingPayment
	w.logger.Debug("Expense details accepted",
		"category", draft.Category,
		"subtype", draft.Subtype)
	return nil
}

// SubmitPayment validates the second step, then commits the expense to the
// store and returns to Idle. Validation and store failures leave the phase
// and draft untouched.
func (w *Workflow) SubmitPayment(ctx context.Context, p core.Payment) (core.Expense, error) {
	w.mu.Lock()

	if w.phase != ConfirmingPayment {
		err := w.transitionError("submit payment")
		w.mu.Unlock()
		return core.Expense{}, err
	}
	mode, total, paid, err := p.Validate()
	if err != nil {
		w.mu.Unlock()
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:          w.nextID,
		Date:        core.Date{Time: w.clock()},
		Category:    w.draft.Category,
		Subtype:     w.draft.Subtype,
		Description: w.draft.Description,
		PayerName:   w.draft.PayerName,
		PayerMobile: w.draft.PayerMobile,
		PaymentMode: mode,
		Total:       total,
		Paid:        paid,
	}
	if err := e.Validate(); err != nil {
		w.mu.Unlock()
		return core.Expense{}, fmt.Errorf("%w: draft produced invalid expense: %v", core.ErrInvariantViolation, err)
	}

	id, err := w.store.Append(ctx, e)
	if err != nil {
		w.mu.Unlock()
		w.logger.ErrorContext(ctx, "Failed to save expense",
			"error", err,
			"category", e.Category,
			"amount_cents", e.Total.Cents)
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	if id > 0 {
		e.ID = id
	}
	w.nextID = max(w.nextID, e.ID) + 1

	w.expenses = append(w.expenses, e)
	w.draft = core.Draft{}
	w.phase = Idle
	notifier := w.notifier
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Expense created",
		"id", e.ID,
		"category", e.Category,
		"subtype", e.Subtype,
		"payment_mode", e.PaymentMode,
		"total_cents", e.Total.Cents,
		"balance_cents", e.Balance().Cents)

	if notifier != nil {
		if err := notifier.ExpenseCreated(ctx, e); err != nil {
			// The expense is committed; notification is observational only.
			w.logger.ErrorContext(ctx, "Failed to notify expense creation", "id", e.ID, "error", err)
		}
	}
	return e, nil
}

// Cancel discards the draft and returns to Idle. It is a no-op when Idle.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != Idle {
		w.logger.Debug("Expense creation cancelled", "phase", w.phase.String())
	}
	w.draft = core.Draft{}
	w.phase = Idle
}

// FilterByDateRange yields expenses dated within [from, to], either bound
// optional, in insertion order. The sequence reflects the collection as it
// was when FilterByDateRange was called.
func (w *Workflow) FilterByDateRange(from, to *time.Time) iter.Seq[core.Expense] {
	w.mu.Lock()
	items := w.expenses[:len(w.expenses):len(w.expenses)]
	w.mu.Unlock()
	return Filter(items, DateRange{From: from, To: to})
}

func (w *Workflow) transitionError(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, w.phase)
}
