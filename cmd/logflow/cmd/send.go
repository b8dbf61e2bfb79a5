// ============================================================================
// logflow - Structured logging pipeline
// ============================================================================
//
// Package:     cmd
// Description: CLI command that logs messages through the configured pipeline
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package cmd

import (
	"bufio"
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
	"github.com/msto63/logflow/pkg/core/logging"
)

var (
	sendLevel   string
	sendFields  []string
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Logs messages through the configured sinks",
	Long: `Logs each argument as one message through the configured pipeline.
Without arguments, every non-empty line on stdin becomes a message.

Buffered sinks are flushed before the command exits.

Examples:
  logflow send "deploy finished" --level info
  logflow send --field service=api --field region=eu "cache cold"
  tail -f app.out | logflow send --level debug --config logflow.toml`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendLevel, "level", "l", "INFO", "Log level")
	sendCmd.Flags().StringArrayVarP(&sendFields, "field", "f", nil, "Field as key=value (repeatable)")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "Time allowed for pending deliveries on exit")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config not loaded", err)
		return err
	}

	pipeline, err := logging.NewPipeline(cfg, logging.Options{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		printError("pipeline not built", err)
		return err
	}

	level := logging.ParseLevel(sendLevel)
	if _, ok := log.FindLevel(pipeline.Logger.Levels(), level); !ok {
		pipeline.Shutdown(context.Background())
		return lferror.New("unknown level").
			WithCode(lferror.CodeInvalidInput).
			WithOperation("cmd.send").
			WithDetail("level", level)
	}

	fields, err := parseFields(sendFields)
	if err != nil {
		pipeline.Shutdown(context.Background())
		return err
	}
	var extra []any
	if fields != nil {
		extra = append(extra, fields)
	}

	send := func(msg string) {
		pipeline.Logger.LogDepth(1, level, msg, extra...)
	}

	if len(args) > 0 {
		for _, msg := range args {
			send(msg)
		}
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				send(line)
			}
		}
		if err := scanner.Err(); err != nil {
			printError("reading stdin", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := pipeline.Shutdown(ctx); err != nil {
		printError("shutdown incomplete", err)
		return err
	}
	return nil
}

// parseFields turns key=value pairs into a map argument
func parseFields(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	kv := make([]any, 0, len(pairs)*2)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, lferror.New("field must be key=value").
				WithCode(lferror.CodeInvalidInput).
				WithOperation("cmd.send").
				WithDetail("field", pair)
		}
		kv = append(kv, key, value)
	}
	return logging.Fields(kv...), nil
}
