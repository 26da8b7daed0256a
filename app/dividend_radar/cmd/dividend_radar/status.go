package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var marketStatusCmd = &cobra.Command{
	Use:   "market-status",
	Short: "Show whether the US market is open",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if a.comps.Providers.Status == nil {
				return errors.New("no market status source configured")
			}
			st, err := a.comps.Providers.Status.MarketStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to fetch market status: %w", err)
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Market is %s (last trading day %s)\n", st.MarketStatus, st.LastUpdated)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(marketStatusCmd)
}
