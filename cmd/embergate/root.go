// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/embergate/embergate/internal/xdg"
)

// configFile is the global --config flag shared by all subcommands.
var configFile string

// resolveConfigFile returns the --config value, or the XDG default
// location when the flag is unset and a file exists there.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	return xdg.DefaultConfigPath()
}

// NewRootCmd creates the root command for the Embergate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embergate",
		Short: "Embergate - account and realtime session server",
		Long: `Embergate is an account authentication and realtime session server.
It serves an HTTP API for signup, email verification, and login, and a
persistent TCP gateway for authenticated realtime sessions.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
