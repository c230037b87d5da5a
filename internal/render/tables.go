package render

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"gridpm/internal/domain"
	"gridpm/internal/view"
)

// Money formats whole dollars with thousands separators.
func Money(v int) string {
	return "$" + humanize.Comma(int64(v))
}

func thousands(k int) string {
	return "$" + humanize.Comma(int64(k)) + "K"
}

func pct(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// AssetsTable lists records in the order given. Columns for rich fields are
// only emitted when at least one record carries them.
func AssetsTable(title string, assets []domain.AssetRecord) Table {
	rich := false
	for _, a := range assets {
		if a.Manufacturer != "" || a.InstallDate != "" || a.CustomerImpact != 0 {
			rich = true
			break
		}
	}
	t := Table{Title: title, Right: []string{"Probability", "Expected Cost"}}
	if rich {
		t.Header = table.Row{"Asset", "Type", "Location", "Manufacturer", "Installed", "Last Maint.", "Probability", "Risk", "Expected Cost", "Voltage", "Customers", "Confidence", "Crew"}
		t.Right = append(t.Right, "Customers", "Confidence", "Crew")
	} else {
		t.Header = table.Row{"Asset", "Type", "Location", "Probability", "Risk", "Expected Cost", "Voltage"}
	}
	total := 0
	for _, a := range assets {
		total += a.ExpectedCost
		if rich {
			t.Rows = append(t.Rows, table.Row{
				a.AssetID, a.AssetType, a.Location, orDash(a.Manufacturer), orDash(a.InstallDate), orDash(a.LastMaintenance),
				pct(a.FailureProbability), string(a.RiskLevel), Money(a.ExpectedCost), orDash(a.VoltageLevel),
				humanize.Comma(int64(a.CustomerImpact)), pct(a.ConfidenceScore), a.CrewPriority,
			})
			continue
		}
		t.Rows = append(t.Rows, table.Row{
			a.AssetID, a.AssetType, a.Location, pct(a.FailureProbability), string(a.RiskLevel), Money(a.ExpectedCost), orDash(a.VoltageLevel),
		})
	}
	if len(assets) > 0 {
		footer := make(table.Row, len(t.Header))
		footer[0] = fmt.Sprintf("%d assets", len(assets))
		for i, h := range t.Header {
			if h == "Expected Cost" {
				footer[i] = Money(total)
			}
		}
		t.Footer = footer
	}
	return t
}

func SummaryTable(s view.Summary) Table {
	t := Table{Title: "Batch Summary", Header: table.Row{"Metric", "Value"}, Right: []string{"Value"}}
	t.Rows = append(t.Rows, table.Row{"Assets", humanize.Comma(int64(s.Total))})
	for _, lvl := range domain.RiskLevels {
		t.Rows = append(t.Rows, table.Row{string(lvl) + " risk", s.Counts[lvl]})
	}
	t.Rows = append(t.Rows,
		table.Row{"Total expected cost", "$" + s.TotalExpectedCost},
		table.Row{"High-risk cost", "$" + s.HighRiskCost},
		table.Row{"Exposure", "$" + s.Exposure},
		table.Row{"Mean probability", s.MeanProbability},
	)
	return t
}

func TrendTable(points []domain.TrendPoint) Table {
	t := Table{Title: "Risk Trend", Header: table.Row{"Date", "High-Risk Assets", "Model Accuracy"}, Right: []string{"High-Risk Assets", "Model Accuracy"}}
	for _, p := range points {
		t.Rows = append(t.Rows, table.Row{p.Date, p.HighRiskCount, pct(p.ModelAccuracy)})
	}
	return t
}

func StatusTable(s domain.SystemStatus) Table {
	return Table{
		Title:  "System Status",
		Header: table.Row{"Metric", "Value"},
		Rows: []table.Row{
			{"Refreshed", s.RefreshedAt},
			{"Ensemble accuracy", fmt.Sprintf("%s (%+.1f%%)", pct(s.EnsembleAccuracy), s.AccuracyDelta*100)},
			{"Recall", pct(s.RecallRate)},
			{"Assets monitored", humanize.Comma(int64(s.AssetsMonitored))},
			{"Pods", fmt.Sprintf("%d/%d", s.Pods.Running, s.Pods.Desired)},
			{"CPU", fmt.Sprintf("%d%%", s.CPUPercent)},
			{"Memory", fmt.Sprintf("%d%%", s.MemoryPercent)},
			{"Retrain DAG", s.RetrainDAG},
			{"High-risk assets", s.HighRiskAssets},
			{"Crews available", s.CrewsAvailable},
			{"Savings this month", thousands(s.SavingsThousands)},
		},
	}
}

func PipelineTable(p domain.PipelinePerformance) Table {
	return Table{
		Title:  "Live Pipeline Performance",
		Header: table.Row{"Metric", "Value"},
		Rows: []table.Row{
			{"End-to-end latency", fmt.Sprintf("%dms", p.LatencyMS)},
			{"Prediction throughput", fmt.Sprintf("%d/min", p.ThroughputPerMin)},
			{"Model accuracy", pct(p.ModelAccuracy)},
			{"System uptime", pct(p.Uptime)},
		},
	}
}

func ImpactTables(b domain.BusinessImpact) []Table {
	head := Table{Title: "Business Impact", Header: table.Row{"Metric", "Value", "Change"}}
	for _, m := range b.Headline {
		head.Rows = append(head.Rows, table.Row{m.Name, m.Value, m.Delta})
	}
	costs := Table{Title: "Cost Savings Breakdown", Header: table.Row{"Category", "Annual Savings", "Share"}, Right: []string{"Annual Savings", "Share"}}
	total := 0
	for _, c := range b.CostBreakdown {
		total += c.AnnualSavings
		costs.Rows = append(costs.Rows, table.Row{c.Category, Money(c.AnnualSavings), fmt.Sprintf("%.1f%%", c.Percentage)})
	}
	costs.Footer = table.Row{"Total", Money(total), ""}
	types := Table{
		Title:  "Asset Type Impact",
		Header: table.Row{"Asset Type", "Failure Reduction", "Avg Cost / Failure", "Failures Prevented"},
		Right:  []string{"Failure Reduction", "Avg Cost / Failure", "Failures Prevented"},
	}
	for _, a := range b.AssetImpact {
		types.Rows = append(types.Rows, table.Row{a.AssetType, fmt.Sprintf("%d%%", a.FailureRateReductionPct), Money(a.AvgCostPerFailure), a.AnnualFailuresPrevented})
	}
	return []Table{head, costs, types}
}

func CrewsTable(crews []domain.Crew) Table {
	t := Table{
		Title:  "Field Crews",
		Header: table.Row{"Crew", "Status", "Assignment", "Next Priority", "ETA", "Efficiency", "Specialization"},
		Right:  []string{"Efficiency"},
	}
	for _, c := range crews {
		t.Rows = append(t.Rows, table.Row{c.ID, c.Status, c.Assignment, c.NextPriority, c.ETA, fmt.Sprintf("%d%%", c.Efficiency), c.Specialization})
	}
	return t
}

func EnsembleTable(e domain.EnsembleEstimate) Table {
	t := Table{
		Title:  "Ensemble Estimate",
		Header: table.Row{"Metric", "Value"},
		Rows: []table.Row{
			{"XGBoost weight", fmt.Sprintf("%.2f", e.Weights.XGBoost)},
			{"TensorFlow weight", fmt.Sprintf("%.2f", e.Weights.TensorFlow)},
			{"Random Forest weight", fmt.Sprintf("%.2f", e.Weights.RandomForest)},
			{"Weight sum", fmt.Sprintf("%.2f", e.WeightSum)},
			{"Expected accuracy", pct(e.Accuracy)},
			{"Expected recall", pct(e.Recall)},
		},
	}
	if e.Warning != "" {
		t.Rows = append(t.Rows, table.Row{"Warning", e.Warning})
	}
	return t
}

func ROITable(p domain.ROIProjection) Table {
	t := Table{
		Title:  "ROI Projection",
		Header: table.Row{"Month", "Cumulative Savings", "Net Benefit"},
		Right:  []string{"Month", "Cumulative Savings", "Net Benefit"},
	}
	for _, pt := range p.Points {
		t.Rows = append(t.Rows, table.Row{pt.Month, thousands(pt.CumulativeSavings), thousands(pt.NetBenefit)})
	}
	breakEven := "not reached"
	if p.BreakEvenMonth > 0 {
		breakEven = fmt.Sprintf("month %d", p.BreakEvenMonth)
	}
	t.Footer = table.Row{"ROI " + p.FinalROIPct + "%", "break-even", breakEven}
	return t
}

func BatchesTable(batches []domain.BatchInfo) Table {
	t := Table{
		Title:  "Exported Batches",
		Header: table.Row{"Batch", "Profile", "Generated", "Exported", "Assets", "High"},
		Right:  []string{"Assets", "High"},
	}
	for _, b := range batches {
		t.Rows = append(t.Rows, table.Row{b.ID, b.Profile, b.GeneratedAt, b.ExportedAt, b.AssetCount, b.HighCount})
	}
	return t
}

func EventsTable(events []domain.Event) Table {
	t := Table{Title: "Events", Header: table.Row{"ID", "Time", "Type", "Batch", "Actor"}, Right: []string{"ID"}}
	for _, e := range events {
		t.Rows = append(t.Rows, table.Row{e.ID, e.TS, e.Type, orDash(e.BatchID), e.ActorID})
	}
	return t
}
