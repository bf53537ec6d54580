// Package cmd defines and implements the CLI commands for the jobscraper
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobscraper",
		Short: "Harvests job postings from employer career pages.",
		Long: `jobscraper collects open roles from a configured roster of employer
career pages. Sites are routed to a static extraction strategy where
possible and escalated to a headless browser when static extraction
fails or comes back empty.`,
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.Init()
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/jobscraper, $HOME/.jobscraper)")

	cmd.AddCommand(newScrapeCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
