package http

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"expensedesk/internal/core"
	applog "expensedesk/internal/log"
	"expensedesk/internal/workflow"
)

var noRange workflow.DateRange

// writeForm renders the form for the current phase through b, so callers can
// attach status and triggers first.
func (s *Server) writeForm(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, values, errs map[string]string) {
	phase := s.workflow.Phase()
	body, err := s.render(tmplForm, newFormView(phase, s.workflow.Draft(), values, errs))
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Form render failed",
			applog.FieldError, err,
			applog.FieldPhase, phase.String())
		InternalServerError("Error rendering form").Write(w)
		return
	}
	b.TriggerPhaseChanged(phase.String()).BodyHTML(string(body)).Write(w)
}

// writeWorkflowError maps workflow failures onto responses. values echo the
// rejected submission back into the form.
func (s *Server) writeWorkflowError(w http.ResponseWriter, r *http.Request, err error, values map[string]string) {
	logger := applog.FromContext(r.Context())

	if errors.Is(err, workflow.ErrInvalidTransition) {
		logger.WarnContext(r.Context(), "Workflow step out of order",
			applog.FieldPath, r.URL.Path,
			applog.FieldPhase, s.workflow.Phase().String(),
			applog.FieldError, err)
		s.writeForm(w, r, NewHTMXResponse().
			Status(http.StatusConflict).
			TriggerErrorNotification("That step is not available right now."), nil, nil)
		return
	}

	if verr, ok := core.AsValidation(err); ok {
		logger.DebugContext(r.Context(), "Workflow step rejected",
			applog.FieldPath, r.URL.Path,
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err)
		s.writeForm(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), values, verr.Messages())
		return
	}

	applog.NewStructuredLogger(logger.WithComponent(applog.ComponentWorkflow)).
		LogError(r.Context(), "Expense creation failed", err, applog.OpCreate, nil)
	InternalServerError("Error saving expense").
		TriggerErrorNotification("The expense could not be saved. Please try again.").
		Write(w)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.workflow.StartCreation(); err != nil {
		s.writeWorkflowError(w, r, err, nil)
		return
	}
	s.writeForm(w, r, NewHTMXResponse(), nil, nil)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	d := p.Details()
	if err := s.workflow.SubmitDetails(d); err != nil {
		s.writeWorkflowError(w, r, err, map[string]string{
			core.FieldCategory:    d.Category,
			core.FieldSubtype:     d.Subtype,
			core.FieldPayerName:   d.PayerName,
			core.FieldPayerMobile: d.PayerMobile,
			core.FieldDescription: d.Description,
		})
		return
	}
	s.writeForm(w, r, NewHTMXResponse().
		TriggerSuccessNotification(workflow.DetailsAcceptedTitle, workflow.DetailsAcceptedMessage), nil, nil)
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	pay := p.Payment()
	e, err := s.workflow.SubmitPayment(r.Context(), pay)
	if err != nil {
		s.writeWorkflowError(w, r, err, map[string]string{
			core.FieldPaymentMode: pay.PaymentMode,
			core.FieldTotal:       pay.Total,
			core.FieldPaid:        pay.Paid,
		})
		return
	}

	s.summaryCache.Clear()
	s.metrics.totalExpenses.Add(1)

	s.writeForm(w, r, NewHTMXResponse().
		TriggerExpenseCreated(e.ID).
		TriggerSuccessNotification(workflow.CreatedTitle, workflow.CreatedMessage(e)), nil, nil)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.workflow.Cancel()
	s.writeForm(w, r, NewHTMXResponse().
		TriggerNotification(NotificationInfo, "", "Expense creation cancelled.", 2000), nil, nil)
}

// handleListExpenses renders the expense table for the requested range.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	items := slices.Collect(s.workflow.FilterByDateRange(rng.From, rng.To))

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Expenses filtered",
		applog.FieldOperation, applog.OpFilter,
		applog.FieldFrom, formatDay(rng.From),
		applog.FieldTo, formatDay(rng.To),
		"count", len(items))

	body, err := s.render(tmplTable, newTableView(rng, items))
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Expense table render failed", applog.FieldError, err)
		InternalServerError("Error rendering expenses").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(string(body)).Write(w)
}

// handleSummary renders the report for a range. Summaries are cached per
// range and collection size.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	from, to := formatDay(rng.From), formatDay(rng.To)
	sum := s.summary(r, rng)

	body, err := s.render(tmplSummary, summaryView{From: from, To: to, Summary: sum})
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Summary render failed", applog.FieldError, err)
		InternalServerError("Error rendering summary").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(string(body)).Write(w)
}

func (s *Server) summary(r *http.Request, rng workflow.DateRange) core.Summary {
	// Read the count before taking the snapshot so the key never claims
	// more expenses than the summary saw.
	key := summaryKey(formatDay(rng.From), formatDay(rng.To), s.workflow.Len())
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentCache)

	if sum, ok := s.summaryCache.Get(key); ok {
		s.metrics.cacheHits.Add(1)
		logger.DebugContext(r.Context(), "Summary cache hit", "key", key)
		return sum
	}
	s.metrics.cacheMisses.Add(1)

	sum := core.Summarize(s.workflow.FilterByDateRange(rng.From, rng.To))
	s.summaryCache.Set(key, sum)
	logger.DebugContext(r.Context(), "Summary cached",
		"key", key,
		"count", sum.Count,
		applog.FieldTotalCents, sum.Total.Cents)
	return sum
}

type expenseJSON struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Subtype     string `json:"subtype"`
	Description string `json:"description"`
	PayerName   string `json:"payer_name,omitempty"`
	PayerMobile string `json:"payer_mobile,omitempty"`
	PaymentMode string `json:"payment_mode"`
	Total       string `json:"total"`
	Paid        string `json:"paid"`
	Balance     string `json:"balance"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Date:        e.Date.DateOnly().Format(time.DateOnly),
		Category:    string(e.Category),
		Subtype:     e.Subtype,
		Description: e.Description,
		PayerName:   e.PayerName,
		PayerMobile: e.PayerMobile,
		PaymentMode: string(e.PaymentMode),
		Total:       e.Total.Decimal().StringFixed(2),
		Paid:        e.Paid.Decimal().StringFixed(2),
		Balance:     e.Balance().Decimal().StringFixed(2),
	}
}

// handleAPIExpenses lists the filtered expenses as JSON.
func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	out := []expenseJSON{}
	for e := range s.workflow.FilterByDateRange(rng.From, rng.To) {
		out = append(out, toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}
