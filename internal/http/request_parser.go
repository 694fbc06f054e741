// This file implements utilities for parsing and validating HTTP request data.
// Workflow steps accept either form-encoded bodies (what HTMX sends) or JSON.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expensedesk/internal/core"
	"expensedesk/internal/workflow"
)

const maxBodyBytes = 64 << 10

// ParseDateRange reads the optional from and to query values as YYYY-MM-DD.
// Empty values leave the bound open.
func ParseDateRange(query url.Values) (workflow.DateRange, error) {
	var r workflow.DateRange
	from, err := parseDay(query.Get("from"))
	if err != nil {
		return r, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := parseDay(query.Get("to"))
	if err != nil {
		return r, fmt.Errorf("invalid to date: %w", err)
	}
	r.From, r.To = from, to
	return r, nil
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// formatDay renders an optional bound back into its query form.
func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, capped at maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.IsJSONContent() || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSONContent reports whether the request declared a JSON body.
func (p *RequestBodyParser) IsJSONContent() bool {
	return strings.HasPrefix(strings.ToLower(p.contentType), "application/json")
}

// Details builds the first workflow step from the parsed body.
func (p *RequestBodyParser) Details() core.Details {
	return core.Details{
		Category:    p.Get(core.FieldCategory),
		Subtype:     p.Get(core.FieldSubtype),
		PayerName:   p.Get(core.FieldPayerName),
		PayerMobile: p.Get(core.FieldPayerMobile),
		Description: p.Get(core.FieldDescription),
	}
}

// Payment builds the second workflow step from the parsed body.
func (p *RequestBodyParser) Payment() core.Payment {
	return core.Payment{
		PaymentMode: p.Get(core.FieldPaymentMode),
		Total:       p.Get(core.FieldTotal),
		Paid:        p.Get(core.FieldPaid),
	}
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
