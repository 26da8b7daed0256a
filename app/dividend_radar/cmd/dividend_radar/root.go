package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "dividend_radar",
	Short:         "Dividend investment research and AI consultant",
	Long:          `dividend_radar finds dividend ETFs and stocks matching your preferences and answers investment questions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("json", false, "Print the final workflow state as JSON")
}

// withApp 为子命令初始化依赖
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	path, _ := cmd.Flags().GetString("config")
	a, err := bootstrap(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
