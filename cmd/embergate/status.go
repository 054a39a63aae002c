// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/embergate/embergate/internal/status"
)

// statusConfig holds configuration for the status command.
type statusConfig struct {
	addr       string
	jsonOutput bool
}

func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running Embergate server",
		Long:  `Query a running server's status endpoint and report uptime and population.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", "http://localhost:8000", "server base URL")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	snapshot, err := fetchStatus(cfg.addr)
	if err != nil {
		return err
	}

	if cfg.jsonOutput {
		raw, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return oops.Wrap(err)
		}
		cmd.Println(string(raw))
		return nil
	}

	cmd.Println(formatStatusTable(snapshot))
	return nil
}

func fetchStatus(baseURL string) (*status.Snapshot, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	url := strings.TrimRight(baseURL, "/") + "/server-status"
	resp, err := client.Get(url)
	if err != nil {
		return nil, oops.Code("STATUS_UNREACHABLE").With("url", url).Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, oops.Code("STATUS_UNEXPECTED").Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var snapshot status.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, oops.Code("STATUS_INVALID").Wrap(err)
	}
	return &snapshot, nil
}

func formatStatusTable(s *status.Snapshot) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "STATUS\tUPTIME\tCONNECTED\tREGISTERED\n")
	fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.Status, s.Uptime, s.ConnectedUsers, s.TotalUsers)

	_ = w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
