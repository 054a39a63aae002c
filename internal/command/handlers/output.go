// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package handlers implements the built-in gateway commands.
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/embergate/embergate/internal/command"
)

// writeOutput writes a line to the command output and logs any write failure.
// Connection write errors never fail the command.
func writeOutput(ctx context.Context, exec *command.Execution, cmd, msg string) {
	if n, err := fmt.Fprintln(exec.Output, msg); err != nil {
		logOutputError(ctx, cmd, exec.ConnID.String(), n, err)
	}
}

// writeOutputf writes a formatted line to the command output and logs any
// write failure.
func writeOutputf(ctx context.Context, exec *command.Execution, cmd, format string, args ...any) {
	if n, err := fmt.Fprintf(exec.Output, format, args...); err != nil {
		logOutputError(ctx, cmd, exec.ConnID.String(), n, err)
	}
}

func logOutputError(ctx context.Context, cmd, connID string, bytesWritten int, err error) {
	slog.WarnContext(ctx, "failed to write command output",
		"command", cmd,
		"conn_id", connID,
		"bytes_written", bytesWritten,
		"error", err,
	)
}
