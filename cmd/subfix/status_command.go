package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"subfix/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			var status daemon.Status
			if err := client.getJSON(cmd.Context(), "/api/status", &status); err != nil {
				return err
			}

			colorize := isatty.IsTerminal(os.Stdout.Fd())
			kind := statusOK
			label := "running"
			if !status.Running {
				kind = statusError
				label = "stopped"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Daemon", kind, label, colorize))
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Job database", statusInfo, status.JobDBPath, colorize))
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
			return nil
		},
	}
}
