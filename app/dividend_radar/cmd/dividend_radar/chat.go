package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

var chatCmd = &cobra.Command{
	Use:     "chat <question>",
	Short:   "Ask the AI financial consultant",
	Example: `  dividend_radar chat "What is the current price of SCHD?"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := workflow.TextInput(strings.Join(args, " "))
		return withApp(cmd, func(a *app) error {
			return printState(cmd, a.run(cmd.Context(), req))
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
