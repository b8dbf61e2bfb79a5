// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     cmd
// Description: CLI command that runs the ingest receiver
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/internal/ingest"
	"github.com/msto63/logflow/pkg/core/logging"
	"github.com/msto63/logflow/pkg/core/sinks"
)

var (
	serveAddr      string
	serveFailFirst int
	serveDedupe    int
	serveDedupeTTL time.Duration
	serveNoColor   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs an ingest receiver for remote batches",
	Long: `Runs an HTTP receiver that accepts batches from a remote sink on
POST /logs and prints every record to stdout. Batches are deduplicated
by their X-Batch-ID header; GET /healthz reports counters.

--fail-first answers the first N batches with 503 so the retry and
backoff behaviour of a sender can be observed.

Examples:
  logflow serve
  logflow serve --addr :9000 --fail-first 2`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	def := ingest.DefaultConfig()
	serveCmd.Flags().StringVar(&serveAddr, "addr", def.Addr, "Listen address")
	serveCmd.Flags().IntVar(&serveFailFirst, "fail-first", 0, "Answer the first N batches with 503")
	serveCmd.Flags().IntVar(&serveDedupe, "dedupe", def.DedupeCapacity, "Number of batch IDs remembered")
	serveCmd.Flags().DurationVar(&serveDedupeTTL, "dedupe-ttl", def.DedupeTTL, "How long a batch ID is remembered")
	serveCmd.Flags().BoolVar(&serveNoColor, "no-color", false, "Disable level colors")
}

func runServe(cmd *cobra.Command, args []string) error {
	console, err := sinks.NewConsoleSink(sinks.ConsoleConfig{
		Stream: sinks.StreamStdout,
		Stdout: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	console.SetPresentation(log.Presentation{
		Colors:    !serveNoColor,
		Timestamp: true,
		Levels:    log.DefaultLevels(),
	})

	diagLevel := log.LevelInfo
	if verbose {
		diagLevel = log.LevelDebug
	}
	diag, err := logging.NewConsoleLogger("ingest", diagLevel)
	if err != nil {
		return err
	}

	cfg := ingest.DefaultConfig()
	cfg.Addr = serveAddr
	cfg.FailFirst = serveFailFirst
	cfg.DedupeCapacity = serveDedupe
	cfg.DedupeTTL = serveDedupeTTL

	srv, err := ingest.New(cfg, console, diag)
	if err != nil {
		printError("receiver not created", err)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	diag.Info(fmt.Sprintf("Listening on %s%s", serveAddr, ingest.IngestPath))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			printError("receiver stopped", err)
		}
		return err
	case <-sigCh:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	stats := srv.Stats()
	diag.Info("Receiver stopped", map[string]any{
		"batches":    stats.Batches,
		"records":    stats.Records,
		"duplicates": stats.Duplicates,
		"rejected":   stats.Rejected,
	})
	return nil
}
