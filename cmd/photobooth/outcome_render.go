package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"photobooth/internal/api"
)

var titleCaser = cases.Title(language.English)

func stageLabel(stage string) string {
	return titleCaser.String(strings.ReplaceAll(stage, "_", " "))
}

func renderOutcome(outcome api.DeliveryOutcome, colorize bool) string {
	var b strings.Builder
	headline := fmt.Sprintf("%s delivery", stageLabel(outcome.Selection))
	if outcome.JobID != "" {
		headline += " " + outcome.JobID
	}
	b.WriteString(renderStatusLine("Job", deliveryStatusKind(outcome.Status), headline+": "+outcome.Status, colorize))
	b.WriteByte('\n')
	if outcome.Recipient != "" {
		b.WriteString(renderStatusLine("Recipient", statusInfo, outcome.Recipient, colorize))
		b.WriteByte('\n')
	}
	if outcome.VideoURL != "" {
		b.WriteString(renderStatusLine("Video URL", statusInfo, outcome.VideoURL, colorize))
		b.WriteByte('\n')
	}
	if outcome.Error != "" {
		b.WriteString(renderStatusLine("Error", statusError, outcome.Error, colorize))
		b.WriteByte('\n')
	}
	if len(outcome.Stages) == 0 {
		return b.String()
	}

	rows := make([][]string, 0, len(outcome.Stages))
	for _, stage := range outcome.Stages {
		attempts := ""
		if stage.Attempts > 0 {
			attempts = strconv.Itoa(stage.Attempts)
		}
		detail := stage.Detail
		if stage.Code != "" {
			detail = stage.Code + ": " + detail
		}
		rows = append(rows, []string{
			stageLabel(stage.Stage),
			stageLabel(stage.State),
			attempts,
			formatMillis(stage.DurationMS),
			detail,
		})
	}
	b.WriteString(renderTable([]tableColumn{
		{header: "Stage"},
		{header: "State"},
		{header: "Attempts", align: alignRight},
		{header: "Duration", align: alignRight},
		{header: "Detail", maxWidth: 60},
	}, rows))
	b.WriteByte('\n')
	return b.String()
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return (time.Duration(ms) * time.Millisecond).Round(time.Millisecond).String()
}
