// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package handlers

import (
	"github.com/embergate/embergate/internal/command"
)

// RegisterAll registers the built-in commands with the registry.
func RegisterAll(reg *command.Registry) {
	reg.Register(command.Entry{
		Name:    "who",
		Handler: WhoHandler,
		Help:    "List connected sessions",
		Usage:   "who",
	})

	reg.Register(command.Entry{
		Name:    "server_info",
		Handler: ServerInfoHandler,
		Help:    "Show server uptime and counts",
		Usage:   "server_info",
	})

	reg.Register(command.Entry{
		Name:         "characters",
		Handler:      CharactersHandler,
		RequiresAuth: true,
		Help:         "List your characters",
		Usage:        "characters",
	})

	reg.Register(command.Entry{
		Name:         "create",
		Handler:      CreateHandler,
		RequiresAuth: true,
		Help:         "Create a new character",
		Usage:        createUsage,
	})
}
