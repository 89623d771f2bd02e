package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photobooth/internal/api"
	"photobooth/internal/preflight"
)

type statusCheckJSON struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type statusJSON struct {
	Reachable bool              `json:"reachable"`
	Error     string            `json:"error,omitempty"`
	Daemon    *api.DaemonStatus `json:"daemon,omitempty"`
	Checks    []statusCheckJSON `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and dependency health",
		Args:  cobra.NoArgs,
	}
	jsonOut := addJSONFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		status, statusErr := ctx.client().Status(cmd.Context())
		checks := preflight.RunAll(cmd.Context(), cfg)

		if *jsonOut {
			payload := statusJSON{Reachable: statusErr == nil}
			if statusErr != nil {
				payload.Error = statusErr.Error()
			} else {
				payload.Daemon = &status
			}
			for _, check := range checks {
				payload.Checks = append(payload.Checks, statusCheckJSON{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
			}
			return writeJSON(cmd, payload)
		}

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out)
		var lines []string
		lines = append(lines, renderSectionHeader("Daemon", colorize)...)
		if statusErr != nil {
			lines = append(lines, renderStatusLine("Daemon", statusError,
				fmt.Sprintf("not reachable at %s (start it with `photobooth serve`)", ctx.apiAddress()), colorize))
		} else {
			lines = append(lines, daemonStatusLines(status, colorize)...)
		}
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
		for _, check := range checks {
			kind := statusOK
			if !check.Passed {
				kind = statusError
			}
			lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
		fmt.Fprintln(out, strings.Join(lines, "\n"))
		return nil
	}
	return cmd
}

func daemonStatusLines(status api.DaemonStatus, colorize bool) []string {
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize),
	}
	if status.Busy {
		lines = append(lines, renderStatusLine("Job", statusWarn, "Busy (delivery in progress)", colorize))
	} else {
		lines = append(lines, renderStatusLine("Job", statusInfo, "Idle", colorize))
	}

	if status.Still.Loaded {
		message := fmt.Sprintf("%dx%d", status.Still.Width, status.Still.Height)
		if captured := api.ParseTime(status.Still.CapturedAt); !captured.IsZero() {
			message += " captured " + captured.Local().Format("15:04:05")
		}
		lines = append(lines, renderStatusLine("Still", statusOK, message, colorize))
	} else {
		lines = append(lines, renderStatusLine("Still", statusWarn, "none captured", colorize))
	}

	if status.LatestVideo != "" {
		lines = append(lines, renderStatusLine("Latest video", statusOK, status.LatestVideo, colorize))
	} else {
		lines = append(lines, renderStatusLine("Latest video", statusWarn, "none in "+status.CaptureDir, colorize))
	}
	lines = append(lines, renderStatusLine("Upload provider", statusInfo, status.UploadProvider, colorize))
	lines = append(lines, renderStatusLine("Mailer configured", statusInfo, yesNo(status.MailerConfigured), colorize))
	if status.Artifact.Available {
		lines = append(lines, renderStatusLine("Artifact", statusInfo, status.Artifact.URL, colorize))
	}
	if last := status.LastOutcome; last != nil {
		message := fmt.Sprintf("%s %s (%s)", last.Selection, last.Status, last.JobID)
		if last.Code != "" {
			message += " " + last.Code
		}
		lines = append(lines, renderStatusLine("Last job", deliveryStatusKind(last.Status), message, colorize))
	}
	return lines
}
