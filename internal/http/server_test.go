package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"expensedesk/internal/core"
	applog "expensedesk/internal/log"
	"expensedesk/internal/storage/memory"
	"expensedesk/internal/workflow"
)

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func newTestWorkflow(t *testing.T, store workflow.Store) *workflow.Workflow {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	wf, err := workflow.New(context.Background(), store, workflow.Options{
		Clock:  func() time.Time { return testNow },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	return wf
}

func newTestServer(t *testing.T, wf *workflow.Workflow, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	srv := NewServer(":0", wf, opts)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func postForm(t *testing.T, srv *Server, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

var validDetails = url.Values{
	"category":     {"Utilities"},
	"subtype":      {"Electricity"},
	"payer_name":   {"Asha"},
	"payer_mobile": {"9876543210"},
	"description":  {"March power bill"},
}

var validPayment = url.Values{
	"payment_mode": {"UPI"},
	"total_amount": {"1500"},
	"paid_amount":  {"500"},
}

// createExpense drives the full workflow once through HTTP.
func createExpense(t *testing.T, srv *Server) {
	t.Helper()
	if rr := postForm(t, srv, "/expenses/start", nil); rr.Code != http.StatusOK {
		t.Fatalf("start status=%d", rr.Code)
	}
	if rr := postForm(t, srv, "/expenses/details", validDetails); rr.Code != http.StatusOK {
		t.Fatalf("details status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := postForm(t, srv, "/expenses/payment", validPayment); rr.Code != http.StatusOK {
		t.Fatalf("payment status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	rr := get(t, srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Expense Desk", "Add Expense", emptyNoRange} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("request id not echoed")
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/static/app.js"} {
		rr := get(t, srv, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreationFlow(t *testing.T) {
	wf := newTestWorkflow(t, nil)
	srv := newTestServer(t, wf, Options{})

	rr := postForm(t, srv, "/expenses/start", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Step 1 of 2") {
		t.Fatalf("start: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"phase":"collecting_details"`) {
		t.Errorf("start trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	rr = postForm(t, srv, "/expenses/details", url.Values{"description": {"x"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing category: expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), core.ErrMissingCategory.Error()) {
		t.Errorf("422 body missing field message: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), ">x</textarea>") {
		t.Errorf("rejected description not echoed back")
	}

	crossed := url.Values{"category": {"Utilities"}, "subtype": {"Plumbing"}, "description": {"Leak"}}
	rr = postForm(t, srv, "/expenses/details", crossed)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("cross-category subtype: expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "is not a Utilities expense") {
		t.Errorf("422 body missing subtype message: %s", rr.Body.String())
	}
	if wf.Phase() != workflow.CollectingDetails {
		t.Fatalf("phase after rejected details = %v", wf.Phase())
	}

	rr = postForm(t, srv, "/expenses/details", validDetails)
	if rr.Code != http.StatusOK {
		t.Fatalf("details: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Step 2 of 2") || !strings.Contains(rr.Body.String(), "March power bill") {
		t.Errorf("payment step missing draft: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), workflow.DetailsAcceptedTitle) {
		t.Errorf("details trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	rr = postForm(t, srv, "/expenses/payment", url.Values{"payment_mode": {"UPI"}, "total_amount": {"abc"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad total: expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), core.ErrInvalidAmount.Error()) {
		t.Errorf("422 body missing amount message: %s", rr.Body.String())
	}
	if wf.Phase() != workflow.ConfirmingPayment {
		t.Fatalf("phase after rejected payment = %v", wf.Phase())
	}

	rr = postForm(t, srv, "/expenses/payment", validPayment)
	if rr.Code != http.StatusOK {
		t.Fatalf("payment: status=%d body=%s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{`"expense:created"`, `"id":1`, "has been added", `"phase":"idle"`} {
		if !strings.Contains(trigger, want) {
			t.Errorf("payment trigger missing %q: %s", want, trigger)
		}
	}
	if !strings.Contains(rr.Body.String(), "Add Expense") {
		t.Errorf("form not reset to idle: %s", rr.Body.String())
	}
	if wf.Len() != 1 || wf.Phase() != workflow.Idle {
		t.Fatalf("after create: len=%d phase=%v", wf.Len(), wf.Phase())
	}
	if got := wf.Expenses()[0]; got.Balance().Cents != 100000 || !got.Date.Equal(testNow) {
		t.Errorf("created expense = %+v", got)
	}
}

func TestWorkflowStepsOutOfOrder(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	for _, path := range []string{"/expenses/details", "/expenses/payment"} {
		rr := postForm(t, srv, path, validPayment)
		if rr.Code != http.StatusConflict {
			t.Errorf("%s while idle: expected 409, got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Add Expense") {
			t.Errorf("%s: conflict should re-render the idle form", path)
		}
	}

	postForm(t, srv, "/expenses/start", nil)
	if rr := postForm(t, srv, "/expenses/start", nil); rr.Code != http.StatusConflict {
		t.Errorf("double start: expected 409, got %d", rr.Code)
	}
}

func TestCancel(t *testing.T) {
	wf := newTestWorkflow(t, nil)
	srv := newTestServer(t, wf, Options{})

	postForm(t, srv, "/expenses/start", nil)
	postForm(t, srv, "/expenses/details", validDetails)

	rr := postForm(t, srv, "/expenses/cancel", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel status=%d", rr.Code)
	}
	if wf.Phase() != workflow.Idle || !wf.Draft().IsEmpty() {
		t.Fatalf("cancel left phase=%v draft=%+v", wf.Phase(), wf.Draft())
	}
	if wf.Len() != 0 {
		t.Fatalf("cancel created an expense")
	}

	// Cancelling while idle is harmless.
	if rr := postForm(t, srv, "/expenses/cancel", nil); rr.Code != http.StatusOK {
		t.Fatalf("idle cancel status=%d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	rr := get(t, srv, "/expenses/start")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestListExpenses(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		want       string
	}{
		{"empty without range", "/expenses", http.StatusOK, emptyNoRange},
		{"empty with range", "/expenses?from=2025-01-01&to=2025-01-31", http.StatusOK, emptyNoResult},
		{"malformed date", "/expenses?from=yesterday", http.StatusBadRequest, "invalid from date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d, want %d", rr.Code, tt.wantStatus)
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body missing %q: %s", tt.want, rr.Body.String())
			}
		})
	}

	createExpense(t, srv)

	rr := get(t, srv, "/expenses?from=2025-03-14&to=2025-03-14")
	if !strings.Contains(rr.Body.String(), "March power bill") {
		t.Errorf("same-day range should include the expense: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "₹1,000") {
		t.Errorf("balance column missing: %s", rr.Body.String())
	}

	rr = get(t, srv, "/expenses?from=2025-03-15")
	if !strings.Contains(rr.Body.String(), emptyNoResult) {
		t.Errorf("later range should be empty: %s", rr.Body.String())
	}
}

func TestSummaryCache(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	rr := get(t, srv, "/ui/summary")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "No expenses in this range") {
		t.Fatalf("empty summary: status=%d body=%s", rr.Code, rr.Body.String())
	}
	get(t, srv, "/ui/summary")
	if hits := srv.metrics.cacheHits.Load(); hits != 1 {
		t.Fatalf("cache hits = %d, want 1", hits)
	}

	createExpense(t, srv)
	if srv.summaryCache.Size() != 0 {
		t.Fatalf("summary cache not cleared on create")
	}

	rr = get(t, srv, "/ui/summary")
	body := rr.Body.String()
	for _, want := range []string{"₹1,500", "₹500", "₹1,000", "Utilities"} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q: %s", want, body)
		}
	}

	rr = get(t, srv, "/ui/summary?from=2025-04-01")
	if !strings.Contains(rr.Body.String(), "No expenses in this range") {
		t.Errorf("out-of-range summary should be empty: %s", rr.Body.String())
	}
}

func TestSummaryNotStaleAfterCommit(t *testing.T) {
	wf := newTestWorkflow(t, nil)
	srv := newTestServer(t, wf, Options{})

	if rr := get(t, srv, "/ui/summary"); !strings.Contains(rr.Body.String(), "No expenses in this range") {
		t.Fatalf("empty summary: %s", rr.Body.String())
	}

	// Commit without going through the payment handler, as when a summary
	// computed before the commit is stored after the handler cleared the cache.
	ctx := context.Background()
	if err := wf.StartCreation(); err != nil {
		t.Fatalf("StartCreation: %v", err)
	}
	if err := wf.SubmitDetails(core.Details{Category: "Utilities", Subtype: "Electricity", Description: "March power bill"}); err != nil {
		t.Fatalf("SubmitDetails: %v", err)
	}
	if _, err := wf.SubmitPayment(ctx, core.Payment{PaymentMode: "UPI", Total: "1,500", Paid: "500"}); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}

	rr := get(t, srv, "/ui/summary")
	if !strings.Contains(rr.Body.String(), "₹1,500") {
		t.Fatalf("summary served from before the commit: %s", rr.Body.String())
	}
}

func TestTaxonomyAPI(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	rr := get(t, srv, "/api/taxonomy")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp taxonomyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 10 || len(resp.PaymentModes) != 8 {
		t.Fatalf("got %d categories, %d modes", len(resp.Categories), len(resp.PaymentModes))
	}
	if resp.Categories[0].Name != "Maintenance" || resp.Categories[0].Subtypes[0] != "Plumbing" {
		t.Errorf("first category = %+v", resp.Categories[0])
	}
}

func TestAPIExpenses(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})
	createExpense(t, srv)

	rr := get(t, srv, "/api/expenses?to=2025-12-31")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got []expenseJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d expenses", len(got))
	}
	e := got[0]
	if e.ID != 1 || e.Date != "2025-03-14" || e.Total != "1500.00" || e.Paid != "500.00" || e.Balance != "1000.00" {
		t.Errorf("expense = %+v", e)
	}

	rr = get(t, srv, "/api/expenses?to=2025-01-01")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("empty result should be [], got %s", rr.Body.String())
	}

	rr = get(t, srv, "/api/expenses?to=bad")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad date status=%d", rr.Code)
	}
}

func TestPartials(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{})

	rr := get(t, srv, "/ui/subtypes?category=Utilities")
	if !strings.Contains(rr.Body.String(), "Electricity") {
		t.Errorf("subtypes missing Electricity: %s", rr.Body.String())
	}
	rr = get(t, srv, "/ui/subtypes?category=Nope")
	if strings.Count(rr.Body.String(), "<option") != 1 {
		t.Errorf("unknown category should only render the placeholder: %s", rr.Body.String())
	}

	rr = get(t, srv, "/ui/balance?total_amount=1500&paid_amount=200")
	if !strings.Contains(rr.Body.String(), "₹1,300") || !strings.Contains(rr.Body.String(), "balance-due") {
		t.Errorf("balance preview = %s", rr.Body.String())
	}
	rr = get(t, srv, "/ui/balance?total_amount=abc")
	if !strings.Contains(rr.Body.String(), "₹0") {
		t.Errorf("unparseable input should preview zero: %s", rr.Body.String())
	}

	rr = get(t, srv, "/ui/form")
	if !strings.Contains(rr.Body.String(), "Add Expense") {
		t.Errorf("form partial = %s", rr.Body.String())
	}
}

type failingStore struct{}

func (failingStore) Append(context.Context, core.Expense) (int64, error) {
	return 0, errors.New("disk full")
}
func (failingStore) ListAll(context.Context) ([]core.Expense, error) { return nil, nil }

func TestPaymentStoreFailure(t *testing.T) {
	wf := newTestWorkflow(t, failingStore{})
	srv := newTestServer(t, wf, Options{})

	postForm(t, srv, "/expenses/start", nil)
	postForm(t, srv, "/expenses/details", validDetails)
	rr := postForm(t, srv, "/expenses/payment", validPayment)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if wf.Phase() != workflow.ConfirmingPayment || wf.Len() != 0 {
		t.Fatalf("failed save changed state: phase=%v len=%d", wf.Phase(), wf.Len())
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestReadiness(t *testing.T) {
	t.Run("store down", func(t *testing.T) {
		srv := newTestServer(t, newTestWorkflow(t, nil), Options{Pinger: fakePinger{err: errors.New("closed")}})
		if rr := get(t, srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("templates missing", func(t *testing.T) {
		srv := newTestServer(t, newTestWorkflow(t, nil), Options{TemplateFS: fstest.MapFS{}})
		if rr := get(t, srv, "/"); rr.Code != http.StatusInternalServerError {
			t.Fatalf("index: expected 500, got %d", rr.Code)
		}
		if rr := get(t, srv, "/readyz"); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("readyz: expected 503, got %d", rr.Code)
		}
	})
}

func TestRateLimitAppliesToPOST(t *testing.T) {
	srv := newTestServer(t, newTestWorkflow(t, nil), Options{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := postForm(t, srv, "/expenses/cancel", nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := postForm(t, srv, "/expenses/cancel", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Errorf("Retry-After not set")
	}

	for i := 0; i < 3; i++ {
		if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK {
			t.Fatalf("GET should not be limited, got %d", rr.Code)
		}
	}
}
