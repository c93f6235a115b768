package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subfix/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List transcription jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var payload struct {
				Jobs []api.JobSummary `json:"jobs"`
			}
			if err := client.getJSON(cmd.Context(), "/api/jobs", &payload); err != nil {
				return err
			}
			if len(payload.Jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs.")
				return nil
			}

			headers := []string{"ID", "File", "Status", "Progress", "Anomalies", "Created"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
			rows := make([][]string, 0, len(payload.Jobs))
			for _, job := range payload.Jobs {
				rows = append(rows, []string{
					shortID(job.ID),
					job.FileName,
					statusLabel(job.Status),
					strconv.Itoa(job.Progress) + "%",
					anomalySummary(job),
					job.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func anomalySummary(job api.JobSummary) string {
	if job.AnomalyCount == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%d open)", job.AnomalyCount, job.UnresolvedCount)
}
