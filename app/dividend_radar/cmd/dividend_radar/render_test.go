package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/model"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/workflow"
)

func TestReportMarkdown(t *testing.T) {
	r := &model.SummaryReport{
		Title:   "Dividend Investment Research Report",
		Summary: "Found 1 ETF.",
		TopPicks: []model.InvestmentRecord{
			{Symbol: "VYM", Name: "Vanguard High Dividend Yield ETF", DividendYield: 2.9, Type: model.TypeETF, Sector: "Diversified"},
		},
		Metadata: &model.ReportMetadata{TotalAnalyzed: 3, AverageYield: 2.9, DataQuality: model.QualityLow, ETFCount: 1, StockCount: 2},
	}

	md := reportMarkdown(r)
	assert.Contains(t, md, "# Dividend Investment Research Report\n\nFound 1 ETF.\n")
	assert.Contains(t, md, "| VYM | Vanguard High Dividend Yield ETF | 2.90% | ETF | Diversified | - |")
	assert.Contains(t, md, "Analyzed 3 investments (1 ETFs, 2 stocks), average yield 2.90%, data quality low.")
}

func TestReportMarkdown_NoPicks(t *testing.T) {
	md := reportMarkdown(&model.SummaryReport{Summary: "Hello"})
	assert.Equal(t, "Hello\n", md)
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestPrintState_ErrorReturnsMessage(t *testing.T) {
	cmd, buf := testCommand()
	err := printState(cmd, workflow.State{Status: workflow.PhaseError, Error: "Invalid yield range"})
	require.EqualError(t, err, "Invalid yield range")
	assert.Empty(t, buf.String())
}

func TestPrintState_JSON(t *testing.T) {
	cmd, buf := testCommand()
	require.NoError(t, cmd.Flags().Set("json", "true"))

	err := printState(cmd, workflow.State{RunID: "r1", Status: workflow.PhaseComplete, Report: &model.SummaryReport{Summary: "ok"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"runId": "r1"`)
	assert.Contains(t, buf.String(), `"status": "complete"`)
}

func TestResearchRequest(t *testing.T) {
	cmd := &cobra.Command{}
	addResearchFlags(cmd)
	require.NoError(t, cmd.Flags().Set("sectors", "Technology,Utilities"))
	require.NoError(t, cmd.Flags().Set("regions", "USA"))
	require.NoError(t, cmd.Flags().Set("yield-min", "2"))
	require.NoError(t, cmd.Flags().Set("yield-max", "6"))
	require.NoError(t, cmd.Flags().Set("types", "etf"))

	req, err := researchRequest(cmd, nil)
	require.NoError(t, err)
	require.NotNil(t, req.Research)
	assert.Equal(t, []string{"Technology", "Utilities"}, req.Research.Sectors)
	assert.Equal(t, []float64{2, 6}, req.Research.YieldRange)
	assert.Equal(t, []model.InvestmentType{model.TypeETF}, req.Research.InvestmentTypes)
	assert.Nil(t, req.Research.PERatioMax)
}

func TestResearchRequest_JSONArgument(t *testing.T) {
	req, err := researchRequest(&cobra.Command{}, []string{`{"sectors":["tech"]}`})
	require.NoError(t, err)
	require.NotNil(t, req.UserInput)
	assert.Equal(t, `{"sectors":["tech"]}`, *req.UserInput)
}

func TestResearchRequest_MissingFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addResearchFlags(cmd)
	_, err := researchRequest(cmd, nil)
	assert.Error(t, err)
}
