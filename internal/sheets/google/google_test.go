package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"expensedesk/internal/core"

	goption "google.golang.org/api/option"
)

// fakeSheets serves the subset of the Sheets values API the client uses,
// backed by an in-memory grid.
type fakeSheets struct {
	mu   sync.Mutex
	rows [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, body.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Expenses!A2:K2", "updatedRows": len(body.Values)},
		})
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(f.rows) == 0 {
			f.rows = append(f.rows, body.Values...)
		} else {
			f.rows[0] = body.Values[0]
		}
		json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodGet:
		values := f.rows
		switch {
		case strings.Contains(path, "A1:K1"):
			values = values[:min(1, len(values))]
		case strings.Contains(path, "A2:"):
			if len(values) > 0 {
				values = values[1:]
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"values": values})
	default:
		io.Copy(io.Discard, r.Body)
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "service account") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestClient_AppendAndList(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)
	ctx := context.Background()

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader twice: %v", err)
	}
	if len(f.rows) != 1 || f.rows[0][0] != "ID" {
		t.Fatalf("header not written once: %v", f.rows)
	}

	e := sampleExpense()
	id, err := c.Append(ctx, e)
	if err != nil || id != e.ID {
		t.Fatalf("Append: id=%d err=%v", id, err)
	}
	// A blank and a junk row are skipped on read.
	f.rows = append(f.rows, []any{"", ""}, []any{"x", "not a row"})

	got, err := c.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 expense, got %d: %+v", len(got), got)
	}
	if got[0].ID != e.ID || got[0].Total != e.Total || got[0].Paid != e.Paid || got[0].Subtype != e.Subtype {
		t.Fatalf("round trip mismatch: %+v", got[0])
	}

	ok, err := c.Contains(ctx, e.ID)
	if err != nil || !ok {
		t.Fatalf("Contains(%d) = %v, %v", e.ID, ok, err)
	}
	ok, _ = c.Contains(ctx, 99)
	if ok {
		t.Fatal("Contains(99) should be false")
	}
}

func TestClient_AppendValidates(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	bad := sampleExpense()
	bad.PaymentMode = ""
	_, err := c.Append(context.Background(), bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, ok := core.AsValidation(err); !ok {
		t.Fatalf("expected validation error, got %T", err)
	}
}
