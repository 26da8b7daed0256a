package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

var researchCmd = &cobra.Command{
	Use:   "research [json]",
	Short: "Generate a dividend research report",
	Long: `Runs the research workflow. Preferences come from flags, or from a JSON research
request passed as the only argument.`,
	Example: `  dividend_radar research --sectors Technology,Utilities --regions USA --yield-min 3 --yield-max 6
  dividend_radar research '{"sectors":["tech"],"regions":["usa"],"yieldRange":[2,5]}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := researchRequest(cmd, args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			return printState(cmd, a.run(cmd.Context(), req))
		})
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
	addResearchFlags(researchCmd)
}

func addResearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("sectors", nil, "Preferred sectors, e.g. Technology,Healthcare")
	f.StringSlice("regions", nil, "Preferred regions, e.g. USA,Europe")
	f.Float64("yield-min", 0, "Minimum dividend yield in percent")
	f.Float64("yield-max", 0, "Maximum dividend yield in percent")
	f.StringSlice("types", nil, "Investment types: ETF, STOCK")
	f.Float64("pe-max", 0, "Maximum P/E ratio (0 disables)")
}

// researchRequest 参数优先，否则由 flag 组装请求
func researchRequest(cmd *cobra.Command, args []string) (workflow.Request, error) {
	if len(args) == 1 {
		return workflow.TextInput(args[0]), nil
	}

	f := cmd.Flags()
	sectors, _ := f.GetStringSlice("sectors")
	regions, _ := f.GetStringSlice("regions")
	if len(sectors) == 0 || len(regions) == 0 {
		return workflow.Request{}, errors.New("--sectors and --regions are required when no JSON request is given")
	}
	yieldMin, _ := f.GetFloat64("yield-min")
	yieldMax, _ := f.GetFloat64("yield-max")
	types, _ := f.GetStringSlice("types")
	peMax, _ := f.GetFloat64("pe-max")

	req := model.ResearchRequest{
		Sectors:    sectors,
		Regions:    regions,
		YieldRange: []float64{yieldMin, yieldMax},
	}
	for _, t := range types {
		req.InvestmentTypes = append(req.InvestmentTypes, model.InvestmentType(strings.ToUpper(strings.TrimSpace(t))))
	}
	if peMax > 0 {
		req.PERatioMax = model.Float(peMax)
	}
	return workflow.ResearchInput(req), nil
}
