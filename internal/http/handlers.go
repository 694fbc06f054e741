package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"expensedesk/internal/core"
	applog "expensedesk/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.pinger == nil {
		checks["store"] = "ok"
	} else if err := s.pinger.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["workflow"] = map[string]any{
		"phase":    s.workflow.Phase().String(),
		"expenses": s.workflow.Len(),
	}
	checks["cache"] = map[string]any{
		"summary_entries": s.summaryCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP expenses_created_total Expenses created since start\n")
	fmt.Fprintf(w, "# TYPE expenses_created_total counter\n")
	fmt.Fprintf(w, "expenses_created_total %d\n\n", s.metrics.totalExpenses.Load())

	fmt.Fprintf(w, "# HELP expenses Expenses currently held\n")
	fmt.Fprintf(w, "# TYPE expenses gauge\n")
	fmt.Fprintf(w, "expenses %d\n\n", s.workflow.Len())

	fmt.Fprintf(w, "# HELP summary_cache_hits_total Summary cache hits\n")
	fmt.Fprintf(w, "# TYPE summary_cache_hits_total counter\n")
	fmt.Fprintf(w, "summary_cache_hits_total %d\n\n", s.metrics.cacheHits.Load())

	fmt.Fprintf(w, "# HELP summary_cache_misses_total Summary cache misses\n")
	fmt.Fprintf(w, "# TYPE summary_cache_misses_total counter\n")
	fmt.Fprintf(w, "summary_cache_misses_total %d\n\n", s.metrics.cacheMisses.Load())

	fmt.Fprintf(w, "# HELP summary_cache_entries Current summary cache entries\n")
	fmt.Fprintf(w, "# TYPE summary_cache_entries gauge\n")
	fmt.Fprintf(w, "summary_cache_entries %d\n\n", s.summaryCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.rateLimiter.Rejected())

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.uptime).Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	all := s.workflow.Expenses()
	data := indexView{
		Form:  newFormView(s.workflow.Phase(), s.workflow.Draft(), nil, nil),
		Table: newTableView(noRange, all),
	}
	body, err := s.render(tmplIndex, data)
	if err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err)
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(string(body)).Write(w)
}

// handleForm re-renders the form for the current phase, e.g. after a reload.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.writeForm(w, r, NewHTMXResponse(), nil, nil)
}

// handleSubtypes renders the subtype options for the chosen category.
func (s *Server) handleSubtypes(w http.ResponseWriter, r *http.Request) {
	body, err := s.render(tmplSubtypes, newSubtypesView(r.URL.Query().Get(core.FieldCategory), ""))
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Subtypes render failed", applog.FieldError, err)
		InternalServerError("Error rendering subtypes").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(string(body)).Write(w)
}

// handleBalance renders the live balance preview of the payment step.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	balance := core.PreviewBalance(q.Get(core.FieldTotal), q.Get(core.FieldPaid))
	class := "balance"
	if balance.IsPositive() {
		class += " balance-due"
	}
	NewHTMXResponse().
		BodyHTML(`<span id="balance-preview" class="` + class + `">` + template.HTMLEscapeString(balance.String()) + `</span>`).
		Write(w)
}

type taxonomyResponse struct {
	Categories   []categoryJSON `json:"categories"`
	PaymentModes []string       `json:"payment_modes"`
}

type categoryJSON struct {
	Name     string   `json:"name"`
	Subtypes []string `json:"subtypes"`
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	resp := taxonomyResponse{PaymentModes: paymentModeNames()}
	for _, c := range taxonomyViews() {
		resp.Categories = append(resp.Categories, categoryJSON{Name: c.Name, Subtypes: c.Subtypes})
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
