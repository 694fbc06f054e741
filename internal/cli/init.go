// Package cli provides common initialization and output helpers shared by
// cmd/expensedesk, cmd/expensedesk-mirror and cmd/expensectl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"expensedesk/internal/config"
	applog "expensedesk/internal/log"
	"expensedesk/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads .env and the configuration, then installs a logger built
// from LOG_LEVEL and LOG_FORMAT as the slog default.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
	return cfg, logger
}

// Fatal logs err and exits the process.
func Fatal(logger *applog.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{applog.FieldError, err}, args...)...)
	os.Exit(1)
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		Fatal(logger, "Failed to initialize SQLite repository", err, "path", dbPath)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
