// Package backend builds the persistence and notification collaborators
// selected by configuration.
package backend

import (
	"context"

	"expensedesk/internal/workflow"
)

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result holds the collaborators handed to the workflow.
type Result struct {
	Store    workflow.Store
	Notifier workflow.Notifier
	// Pinger is nil when the store has no health check.
	Pinger  Pinger
	Cleanup CleanupFunc
}

// Close runs Cleanup if set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory specific; empty starts with no expenses
	SeedFile string

	// SQLite specific
	SQLiteDBPath string

	// AMQP notifier; an empty URL publishes nothing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
