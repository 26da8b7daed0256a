package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

// printState 输出最终状态，失败时返回工作流错误
func printState(cmd *cobra.Command, s workflow.State) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return err
		}
	} else if s.Report != nil {
		fmt.Fprint(out, renderTerminal(reportMarkdown(s.Report)))
	}

	if s.Status == workflow.PhaseError {
		return errors.New(s.Error)
	}
	return nil
}

// renderTerminal 渲染失败时原样输出 Markdown
func renderTerminal(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// reportMarkdown 将报告转为 Markdown
func reportMarkdown(r *model.SummaryReport) string {
	var sb strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", r.Title)
	}
	sb.WriteString(r.Summary)
	sb.WriteString("\n")

	if len(r.TopPicks) > 0 {
		sb.WriteString("\n## Top Picks\n\n")
		sb.WriteString("| Symbol | Name | Yield | Type | Sector | Region |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, p := range r.TopPicks {
			fmt.Fprintf(&sb, "| %s | %s | %.2f%% | %s | %s | %s |\n",
				p.Symbol, cell(p.Name), p.DividendYield, p.Type, cell(p.Sector), cell(p.Region))
		}
	}

	if m := r.Metadata; m != nil {
		fmt.Fprintf(&sb, "\n_Analyzed %d investments (%d ETFs, %d stocks), average yield %.2f%%, data quality %s._\n",
			m.TotalAnalyzed, m.ETFCount, m.StockCount, m.AverageYield, m.DataQuality)
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "/")
}
