// Command taskdag-demo runs a handful of worked examples against the
// taskdag scheduler, printing what each one computed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/me/taskdag/internal/config"
	"github.com/me/taskdag/internal/logging"
	"github.com/me/taskdag/internal/store"
)

var scenarios = map[string]func(context.Context, *slog.Logger, *store.Store) error{
	"ordering":           scenarioOrdering,
	"field-independence": scenarioFieldIndependence,
	"handle-chaining":    scenarioHandleChaining,
}

var scenarioOrder = []string{"ordering", "field-independence", "handle-chaining"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultRuntimeConfig()
	logLevel := defaults.LogLevel
	logFormat := defaults.LogFormat
	dbPath := ""
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		logFormat = "json"
	}

	cmd := &cobra.Command{
		Use:   "taskdag-demo [scenario]",
		Short: "Run a worked taskdag example",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.ParseLevel(logLevel), logFormat)

			var st *store.Store
			if dbPath != "" {
				var err error
				st, err = store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
			}

			names := args
			if len(names) == 0 {
				names = scenarioOrder
			}
			return runAll(cmd.Context(), logger, st, names)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&logLevel, "log-level", logLevel, "debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", logFormat, "text or json")
	flags.StringVar(&dbPath, "db", dbPath, "sqlite path to record region history to (empty = don't record)")
	return cmd
}

func runAll(ctx context.Context, logger *slog.Logger, st *store.Store, names []string) error {
	for _, name := range names {
		fn, ok := scenarios[name]
		if !ok {
			return fmt.Errorf("unknown scenario %q", name)
		}
		start := time.Now()
		if err := fn(ctx, logger, st); err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
		fmt.Printf("  (started %s)\n", humanize.Time(start))
	}
	return nil
}
