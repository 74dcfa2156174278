package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Read-only on-chain yield tracker",
	Long: `YieldSentinel samples the balances of one watched address, books positive
day-over-day changes as earnings and queues larger changes for review.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
}
