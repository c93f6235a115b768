package main

import (
	"github.com/spf13/cobra"

	"subfix/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var addrFlag string

	ctx := &commandContext{configFlag: &configFlag, addrFlag: &addrFlag}

	rootCmd := &cobra.Command{
		Use:           "subfix",
		Short:         "Subfix subtitle service CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Daemon API address (host:port)")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// commandContext lazily loads configuration shared by the subcommands.
type commandContext struct {
	configFlag *string
	addrFlag   *string
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) client() (*apiClient, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	addr := cfg.Paths.APIBind
	if *c.addrFlag != "" {
		addr = *c.addrFlag
	}
	return newAPIClient(addr, cfg.Paths.APIToken), nil
}
