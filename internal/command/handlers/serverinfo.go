// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package handlers

import (
	"context"

	"github.com/embergate/embergate/internal/command"
)

// ServerInfoHandler reports uptime and population counts. It requires no
// authentication.
func ServerInfoHandler(ctx context.Context, exec *command.Execution) error {
	snap := exec.Services.Status.Snapshot(ctx)

	writeOutput(ctx, exec, "server_info", "Embergate Server")
	writeOutputf(ctx, exec, "server_info", "Uptime:             %s\n", snap.Uptime)
	writeOutputf(ctx, exec, "server_info", "Connected sessions: %d\n", snap.ConnectedUsers)
	writeOutputf(ctx, exec, "server_info", "Registered users:   %d\n", snap.TotalUsers)
	return nil
}
