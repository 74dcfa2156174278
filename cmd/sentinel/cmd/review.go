package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"YieldSentinel/internal/model"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List decisions awaiting review",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.decisions.Pending(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no pending decisions")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSTRATEGY\tACTION\tESTIMATED")
		for _, d := range list {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.ID, d.CreatedAt.UTC().Format("2006-01-02 15:04"), d.Strategy, d.Action, d.EstimatedValue.StringFixed(8))
		}
		return w.Flush()
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve ID",
	Short: "Approve a pending decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return review(cmd, args[0], model.StatusApproved)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject ID",
	Short: "Reject a pending decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return review(cmd, args[0], model.StatusRejected)
	},
}

func review(cmd *cobra.Command, arg string, to model.DecisionStatus) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid decision id %q", arg)
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var ok bool
	if to == model.StatusApproved {
		ok, err = a.decisions.Approve(cmd.Context(), id)
	} else {
		ok, err = a.decisions.Reject(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("decision %d is missing or already reviewed", id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "decision %d %s\n", id, to)
	return nil
}

func init() {
	rootCmd.AddCommand(pendingCmd, approveCmd, rejectCmd)
}
