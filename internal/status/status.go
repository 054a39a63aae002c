// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package status reports server uptime and population counts.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/embergate/embergate/internal/session"
)

// AccountCounter reports how many accounts exist.
type AccountCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Snapshot is a point-in-time view of the server's state.
type Snapshot struct {
	Uptime         string  `json:"uptime"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	ConnectedUsers int     `json:"connected_users"`
	TotalUsers     int64   `json:"total_users"`
	Status         string  `json:"status"`
}

// Reporter produces server status snapshots.
type Reporter struct {
	startedAt time.Time
	sessions  *session.Registry
	accounts  AccountCounter
}

// NewReporter creates a Reporter. The uptime clock starts now.
func NewReporter(sessions *session.Registry, accounts AccountCounter) *Reporter {
	return &Reporter{
		startedAt: time.Now(),
		sessions:  sessions,
		accounts:  accounts,
	}
}

// StartedAt returns the process start time the reporter measures uptime from.
func (r *Reporter) StartedAt() time.Time {
	return r.startedAt
}

// Snapshot returns the current server status. A failed account count is
// logged and reported as zero rather than failing the snapshot.
func (r *Reporter) Snapshot(ctx context.Context) Snapshot {
	uptime := time.Since(r.startedAt)

	total, err := r.accounts.Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to count accounts for status snapshot",
			"error", err)
		total = 0
	}

	return Snapshot{
		Uptime:         formatUptime(uptime),
		UptimeSeconds:  uptime.Seconds(),
		ConnectedUsers: r.sessions.Count(),
		TotalUsers:     total,
		Status:         "online",
	}
}

// formatUptime renders a duration as "Xd Xh Xm Xs" with leading zero units
// omitted.
func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
