package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"YieldSentinel/internal/report"

	"github.com/spf13/cobra"
)

var totalsDays int

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show earnings totals and a per-source breakdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		if totalsDays <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		now := time.Now()
		t, err := a.store.Totals(ctx, now)
		if err != nil {
			return err
		}
		earnings, err := a.store.ListEarnings(ctx, now.AddDate(0, 0, -totalsDays))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "all time     %s\n", t.AllTime.StringFixed(8))
		fmt.Fprintf(out, "last 7 days  %s\n", t.Last7Days.StringFixed(8))
		fmt.Fprintf(out, "pending      %d\n\n", t.Pending)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SOURCE (last %d days)\tAMOUNT\n", totalsDays)
		for _, s := range report.BySource(earnings) {
			fmt.Fprintf(w, "%s\t%s\n", s.Source, s.Amount.StringFixed(8))
		}
		fmt.Fprintln(w, "\t")
		fmt.Fprintln(w, "DAY\tAMOUNT")
		for _, d := range report.ByDay(earnings) {
			fmt.Fprintf(w, "%s\t%s\n", d.Day, d.Amount.StringFixed(8))
		}
		return w.Flush()
	},
}

func init() {
	totalsCmd.Flags().IntVar(&totalsDays, "days", 30, "breakdown window in days")
	rootCmd.AddCommand(totalsCmd)
}
