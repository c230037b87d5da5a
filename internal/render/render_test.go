package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridpm/internal/domain"
	"gridpm/internal/view"
)

var sample = []domain.AssetRecord{
	{AssetID: "AST-0042", AssetType: "Transformer", Location: "North Grid", FailureProbability: 0.91, RiskLevel: domain.RiskHigh, ExpectedCost: 120000, VoltageLevel: "138kV"},
	{AssetID: "AST-0007", AssetType: "Power Line", Location: "Central Hub", FailureProbability: 0.3, RiskLevel: domain.RiskLow, ExpectedCost: 5000, VoltageLevel: "13.8kV"},
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, " csv ": FormatCSV, "markdown": FormatMarkdown} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestTableRendersTitleAndMoney(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatTable).Render(&buf, sample, AssetsTable("Assets", sample)))
	out := buf.String()
	assert.Contains(t, out, "Assets")
	assert.Contains(t, out, "AST-0042")
	assert.Contains(t, out, "$120,000")
	assert.Contains(t, out, "91.0%")
	assert.Contains(t, out, "$125,000")
	assert.Contains(t, out, "2 ASSETS")
	assert.NotContains(t, out, "MANUFACTURER")
}

func TestRichColumnsAppearWhenPresent(t *testing.T) {
	rich := []domain.AssetRecord{{AssetID: "AST-0001", AssetType: "Generator", Location: "Plant A", Manufacturer: "ABB", InstallDate: "2010-01-02", CustomerImpact: 1500, RiskLevel: domain.RiskMedium}}
	var buf bytes.Buffer
	require.NoError(t, New(FormatTable).Render(&buf, nil, AssetsTable("", rich)))
	assert.Contains(t, buf.String(), "MANUFACTURER")
	assert.Contains(t, buf.String(), "1,500")
}

func TestCSVHasHeaderAndOneLinePerRow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatCSV).Render(&buf, nil, CrewsTable([]domain.Crew{{ID: "Alpha-01", Status: "available", Efficiency: 96}})))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Crew,Status"))
	assert.Contains(t, lines[1], "Alpha-01")
}

func TestMarkdownPrefixesTitles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatMarkdown).Render(&buf, nil, ImpactTables(domain.BusinessImpact{
		Headline:      []domain.Metric{{Name: "Annual Savings", Value: "$2,300,000", Delta: "+$20,000 this month"}},
		CostBreakdown: []domain.CostCategory{{Category: "Insurance", AnnualSavings: 30000, Percentage: 1.3}},
	})...))
	out := buf.String()
	assert.Contains(t, out, "### Business Impact")
	assert.Contains(t, out, "### Cost Savings Breakdown")
	assert.Contains(t, out, "| Annual Savings |")
}

func TestJSONEncodesPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON).Render(&buf, sample, AssetsTable("ignored", sample)))
	var decoded []domain.AssetRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sample, decoded)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestSummaryAndROITables(t *testing.T) {
	s, err := view.Summarize(sample)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, New(FormatTable).Render(&buf, nil, SummaryTable(s), ROITable(domain.ROIProjection{
		Points:         []domain.ROIPoint{{Month: 1, CumulativeSavings: 190, NetBenefit: -635}},
		BreakEvenMonth: 0,
		FinalROIPct:    "-77",
	})))
	out := buf.String()
	assert.Contains(t, out, "$125000")
	assert.Contains(t, out, "High risk")
	assert.Contains(t, out, "NOT REACHED")
	assert.Contains(t, out, "ROI -77%")
}

func TestPipelineTable(t *testing.T) {
	var buf bytes.Buffer
	p := domain.PipelinePerformance{LatencyMS: 201, ThroughputPerMin: 850, ModelAccuracy: 0.941, Uptime: 0.998}
	require.NoError(t, New(FormatMarkdown).Render(&buf, p, PipelineTable(p)))
	out := buf.String()
	assert.Contains(t, out, "### Live Pipeline Performance")
	assert.Contains(t, out, "201ms")
	assert.Contains(t, out, "850/min")
	assert.Contains(t, out, "94.1%")
	assert.Contains(t, out, "99.8%")
}
