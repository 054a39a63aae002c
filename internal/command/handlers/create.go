// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/embergate/embergate/internal/command"
)

const createUsage = "create <name> [description]"

// CreateHandler creates a new character owned by the caller's account.
// The first word is the character name; anything after it becomes the
// description.
func CreateHandler(ctx context.Context, exec *command.Execution) error {
	name, description, _ := strings.Cut(exec.Args, " ")
	if name == "" {
		return command.ErrInvalidArgs("create", createUsage)
	}
	description = strings.TrimSpace(description)

	char, err := exec.Services.Characters.Create(ctx, *exec.Session.AccountID, name, description)
	if err != nil {
		return err
	}

	writeOutputf(ctx, exec, "create", "Character %s created.\n", char.Name)
	return nil
}
