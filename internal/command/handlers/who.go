// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/embergate/embergate/internal/command"
)

// WhoHandler lists all live sessions in the order they connected, marking
// the caller's own session. Guests are shown alongside authenticated users.
func WhoHandler(ctx context.Context, exec *command.Execution) error {
	sessions := exec.Services.Sessions.List()
	now := time.Now()

	writeOutput(ctx, exec, "who", "Connected Sessions:")
	writeOutput(ctx, exec, "who", "-------------------")
	for _, sess := range sessions {
		marker := ""
		if sess.ConnID == exec.ConnID {
			marker = "  (you)"
		}
		label := sess.Username
		if !sess.Authenticated() {
			label = "[guest]"
		}
		writeOutputf(ctx, exec, "who", "  %-20s  on %s%s\n",
			label, formatConnectedTime(now.Sub(sess.ConnectedAt)), marker)
	}
	writeOutput(ctx, exec, "who", "-------------------")
	if len(sessions) == 1 {
		writeOutput(ctx, exec, "who", "1 session connected.")
	} else {
		writeOutputf(ctx, exec, "who", "%d sessions connected.\n", len(sessions))
	}
	return nil
}

// formatConnectedTime formats a duration as a compact connected time.
func formatConnectedTime(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	d = d.Round(time.Second)

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
