// Command taskdag-server runs the read-only region-history introspection
// API over a sqlite-backed store.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/taskdag/internal/config"
	"github.com/me/taskdag/internal/logging"
	"github.com/me/taskdag/internal/server"
	"github.com/me/taskdag/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultRuntimeConfig()
	cfg := defaults

	cmd := &cobra.Command{
		Use:   "taskdag-server",
		Short: "Serve the taskdag region-history introspection API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Addr, "addr", defaults.Addr, "listen address")
	flags.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "debug, info, warn, error")
	flags.StringVar(&cfg.LogFormat, "log-format", defaults.LogFormat, "text or json")
	flags.StringVar(&cfg.DBPath, "db", defaults.DBPath, "sqlite history database path")
	return cmd
}

func run(cfg config.RuntimeConfig) error {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(logger, st)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("introspection server listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
