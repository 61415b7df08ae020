package main

import (
	"context"

	"osintrecon/cmd/osintrecon/scan"
	"osintrecon/cmd/osintrecon/server"
	"osintrecon/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func Execute() error {
	var (
		configFile string
		verbose    bool
		noColor    bool
	)

	var rootCmd = &cobra.Command{
		Use:   "osintrecon",
		Short: "OSINT reconnaissance with containerised theHarvester and Amass",
		Long:  `osintrecon runs OSINT tools in disposable containers, extracts their findings and serves the scan history over a REST API`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			} else {
				logger.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: search ./config, /etc/osintrecon, $HOME/.osintrecon)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Plain tables without styling")

	rootCmd.AddCommand(server.NewServerCommand())
	rootCmd.AddCommand(scan.NewScanCommand())
	rootCmd.AddCommand(scan.NewParseCommand())
	rootCmd.AddCommand(scan.NewToolsCommand())
	return rootCmd.ExecuteContext(context.Background())
}
