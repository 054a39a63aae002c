// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package handlers

import (
	"context"

	"github.com/embergate/embergate/internal/command"
)

// CharactersHandler lists the caller's active characters in creation order.
// Dispatch guarantees the session is authenticated before this runs.
func CharactersHandler(ctx context.Context, exec *command.Execution) error {
	chars, err := exec.Services.Characters.ListByAccount(ctx, *exec.Session.AccountID)
	if err != nil {
		return err
	}

	if len(chars) == 0 {
		writeOutput(ctx, exec, "characters", "You have no characters yet. Use 'create <name>' to make one.")
		return nil
	}

	writeOutput(ctx, exec, "characters", "Your characters:")
	for _, char := range chars {
		if char.Description != "" {
			writeOutputf(ctx, exec, "characters", "  %-20s  level %d  %s\n",
				char.Name, char.Level, char.Description)
		} else {
			writeOutputf(ctx, exec, "characters", "  %-20s  level %d\n",
				char.Name, char.Level)
		}
	}
	return nil
}
