package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.scheduler.RunOnce(context.WithoutCancel(cmd.Context()))
		out := cmd.OutOrStdout()
		if r.Error != "" {
			return fmt.Errorf("scan failed: %s", r.Error)
		}
		for _, res := range r.Results {
			switch {
			case res.Error != "":
				fmt.Fprintf(out, "%-14s error: %s\n", res.Strategy, res.Error)
			default:
				fmt.Fprintf(out, "%-14s earned %s, queued %d, auto-approved %d\n",
					res.Strategy, res.Earned.StringFixed(8), len(res.Queued), res.AutoApproved)
			}
		}
		fmt.Fprintf(out, "total earned %s in %s\n", r.Earned().StringFixed(8), r.Duration)
		if n := r.Failed(); n > 0 {
			return fmt.Errorf("%d strategy(ies) failed", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
