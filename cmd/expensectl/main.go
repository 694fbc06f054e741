package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"expensedesk/internal/cli"
	"expensedesk/internal/core"
	applog "expensedesk/internal/log"
)

const usage = `Usage: expensectl <command> [flags]

Commands:
  list     List expenses stored in SQLite
  report   Summarize expenses stored in SQLite

Flags:
  -from YYYY-MM-DD   first day, inclusive
  -to   YYYY-MM-DD   last day, inclusive
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]
	if cmd != "list" && cmd != "report" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := cli.Bootstrap(applog.ComponentCLI)

	fromDay, err := parseDay(*from)
	if err != nil {
		cli.Fatal(logger, "Invalid from date", err)
	}
	toDay, err := parseDay(*to)
	if err != nil {
		cli.Fatal(logger, "Invalid to date", err)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	items, err := repo.ListBetween(context.Background(), fromDay, toDay)
	if err != nil {
		cli.Fatal(logger, "Failed to list expenses", err)
	}

	switch cmd {
	case "list":
		err = cli.WriteExpenses(os.Stdout, items)
	case "report":
		err = cli.WriteSummary(os.Stdout, *from, *to, core.Summarize(slices.Values(items)))
	}
	if err != nil {
		cli.Fatal(logger, "Failed to write output", err)
	}
}

// parseDay returns the zero time for an empty value, which leaves that bound open.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
