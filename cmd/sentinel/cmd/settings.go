package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet [ADDRESS]",
	Short: "Show or set the watched address",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			if err := a.settings.SetWalletAddress(cmd.Context(), args[0]); err != nil {
				return err
			}
		}
		addr, err := a.settings.WalletAddress(cmd.Context())
		if err != nil {
			return err
		}
		if addr == "" {
			addr = "(none)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr)
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show runtime settings and strategy switches",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		addr, err := a.settings.WalletAddress(ctx)
		if err != nil {
			return err
		}
		policy, err := a.settings.AutoApprove(ctx)
		if err != nil {
			return err
		}
		threshold := "off"
		if d, on, err := a.settings.ProposalMinDelta(ctx); err != nil {
			return err
		} else if on {
			threshold = d.String()
		}
		catalog, err := a.strategies.Catalog(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "wallet\t%s\n", addr)
		fmt.Fprintf(w, "auto-approve\t%t (cap %s)\n", policy.Enabled, policy.Cap)
		fmt.Fprintf(w, "proposal threshold\t%s\n", threshold)
		fmt.Fprintln(w, "\t")
		fmt.Fprintln(w, "STRATEGY\tLABEL\tENABLED")
		for _, e := range catalog {
			fmt.Fprintf(w, "%s\t%s\t%t\n", e.Key, e.Label, e.Enabled)
		}
		return w.Flush()
	},
}

var autoApproveCmd = &cobra.Command{
	Use:   "auto-approve on|off [CAP]",
	Short: "Switch auto-approval and optionally set its cap",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		limit := ""
		if len(args) == 2 {
			limit = args[1]
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.settings.SetAutoApprove(cmd.Context(), on, limit)
	},
}

var strategyCmd = &cobra.Command{
	Use:   "strategy KEY on|off",
	Short: "Enable or disable a strategy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseSwitch(args[1])
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.strategies.SetEnabled(cmd.Context(), args[0], on)
	},
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold VALUE",
	Short: "Set the delta that raises a review proposal (0 disables)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.settings.SetProposalMinDelta(cmd.Context(), args[0])
	},
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

func init() {
	settingsCmd.AddCommand(autoApproveCmd, strategyCmd, thresholdCmd)
	rootCmd.AddCommand(walletCmd, settingsCmd)
}
