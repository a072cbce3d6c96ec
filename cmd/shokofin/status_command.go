package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shokofin/internal/config"
	"shokofin/internal/daemon"
	"shokofin/internal/daemonctl"
	"shokofin/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			snapshot := collectStatus(checkCtx, cfg)
			snapshot.ConfigPath = ctx.configPath
			if jsonOut {
				return writeJSON(cmd, snapshot)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Daemon", colorize)
			lines = append(lines, daemonStatusLines(snapshot, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			for _, check := range snapshot.Checks {
				lines = append(lines, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print status as JSON")
	return cmd
}

type statusCheck struct {
	Name          string `json:"name"`
	Passed        bool   `json:"passed"`
	Detail        string `json:"detail"`
	Informational bool   `json:"informational,omitempty"`
}

type statusSnapshot struct {
	ConfigPath    string         `json:"config_path,omitempty"`
	DaemonRunning bool           `json:"daemon_running"`
	DaemonPID     int            `json:"daemon_pid,omitempty"`
	DaemonError   string         `json:"daemon_error,omitempty"`
	APIAddress    string         `json:"api_address,omitempty"`
	Daemon        *daemon.Status `json:"daemon,omitempty"`
	Checks        []statusCheck  `json:"checks"`
}

func collectStatus(ctx context.Context, cfg *config.Config) statusSnapshot {
	snapshot := statusSnapshot{}

	if pid, err := daemonctl.ReadPID(cfg); err == nil && daemonctl.ProcessAlive(pid) {
		snapshot.DaemonPID = pid
	}
	if client, err := daemonctl.NewClient(cfg); err != nil {
		snapshot.DaemonError = err.Error()
	} else {
		snapshot.APIAddress = client.BaseURL()
		status, err := client.Status(ctx)
		switch {
		case err == nil:
			snapshot.DaemonRunning = status.Running
			snapshot.Daemon = status
		case errors.Is(err, daemonctl.ErrDaemonNotRunning):
		default:
			snapshot.DaemonError = err.Error()
		}
	}

	for _, result := range preflight.RunAll(ctx, cfg) {
		snapshot.Checks = append(snapshot.Checks, statusCheck{Name: result.Name, Passed: result.Passed, Detail: result.Detail})
	}
	feed := preflight.EventFeedFromConfig(cfg)
	snapshot.Checks = append(snapshot.Checks, statusCheck{Name: feed.Name, Passed: feed.Passed, Detail: feed.Detail, Informational: true})
	return snapshot
}

func daemonStatusLines(snapshot statusSnapshot, colorize bool) []string {
	var lines []string
	switch {
	case snapshot.DaemonError != "":
		lines = append(lines, renderStatusLine("Daemon", statusError, snapshot.DaemonError, colorize))
	case snapshot.DaemonRunning:
		message := "Running"
		if snapshot.DaemonPID > 0 {
			message = fmt.Sprintf("Running (pid %d)", snapshot.DaemonPID)
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, message, colorize))
	default:
		lines = append(lines, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
	}
	if status := snapshot.Daemon; status != nil {
		feedKind, feedMessage := statusInfo, "Disabled"
		if status.FeedEnabled {
			feedKind, feedMessage = statusWarn, "Disconnected"
			if status.FeedConnected {
				feedKind, feedMessage = statusOK, "Connected"
			}
		}
		lines = append(lines,
			renderStatusLine("Change Feed", feedKind, feedMessage, colorize),
			renderStatusLine("Notifications", statusInfo, fmt.Sprintf("%d received", status.Notifications), colorize),
			renderStatusLine("Tracked Files", statusInfo, fmt.Sprintf("%d", status.TrackedFiles), colorize),
			renderStatusLine("Active Lookups", statusInfo, fmt.Sprintf("%d", len(status.Active)), colorize),
		)
		if status.ReferenceConflicts > 0 {
			lines = append(lines, renderStatusLine("Ref Conflicts", statusWarn,
				fmt.Sprintf("%d payloads carried both reference keys", status.ReferenceConflicts), colorize))
		}
	}
	if snapshot.APIAddress != "" {
		lines = append(lines, renderStatusLine("API", statusInfo, snapshot.APIAddress, colorize))
	}
	if snapshot.ConfigPath != "" {
		lines = append(lines, renderStatusLine("Config", statusInfo, snapshot.ConfigPath, colorize))
	}
	return lines
}

func checkKind(check statusCheck) statusKind {
	switch {
	case check.Informational:
		return statusInfo
	case check.Passed:
		return statusOK
	default:
		return statusError
	}
}
