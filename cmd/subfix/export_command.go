package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subfix/internal/api"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "export <job-id>",
		Short: "Download a job's subtitles as an SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			jobID, err := resolveJobID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			body, headers, err := client.get(cmd.Context(), "/api/jobs/"+jobID+"/export")
			if err != nil {
				return err
			}

			output := outputFlag
			if output == "" {
				output = fileNameFromDisposition(headers.Get("Content-Disposition"))
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", output, len(body))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path (\"-\" for stdout)")
	return cmd
}

// resolveJobID accepts a full job id or a unique prefix of one, matching the
// truncated ids shown by the jobs table.
func resolveJobID(ctx context.Context, client *apiClient, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("job id is required")
	}
	var payload struct {
		Jobs []api.JobSummary `json:"jobs"`
	}
	if err := client.getJSON(ctx, "/api/jobs", &payload); err != nil {
		return "", err
	}
	var matches []string
	for _, job := range payload.Jobs {
		if job.ID == arg {
			return job.ID, nil
		}
		if strings.HasPrefix(job.ID, arg) {
			matches = append(matches, job.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no job matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d jobs, use a longer prefix", arg, len(matches))
	}
}

func fileNameFromDisposition(disposition string) string {
	const marker = "filename="
	index := strings.Index(disposition, marker)
	if index < 0 {
		return ""
	}
	name := strings.TrimSpace(disposition[index+len(marker):])
	return strings.Trim(name, `"`)
}
