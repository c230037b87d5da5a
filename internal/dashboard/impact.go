package dashboard

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"gridpm/internal/domain"
	"gridpm/internal/entropy"
)

var costBreakdown = []domain.CostCategory{
	{Category: "Equipment Replacement", AnnualSavings: 1200000, Percentage: 52.2},
	{Category: "Emergency Repairs", AnnualSavings: 580000, Percentage: 25.2},
	{Category: "Crew Optimization", AnnualSavings: 340000, Percentage: 14.8},
	{Category: "Outage Prevention", AnnualSavings: 150000, Percentage: 6.5},
	{Category: "Insurance", AnnualSavings: 30000, Percentage: 1.3},
}

var assetImpact = []domain.AssetTypeImpact{
	{AssetType: "Transformers", FailureRateReductionPct: 67, AvgCostPerFailure: 125000, AnnualFailuresPrevented: 18},
	{AssetType: "Circuit Breakers", FailureRateReductionPct: 52, AvgCostPerFailure: 45000, AnnualFailuresPrevented: 31},
	{AssetType: "Power Lines", FailureRateReductionPct: 43, AvgCostPerFailure: 35000, AnnualFailuresPrevented: 22},
	{AssetType: "Substations", FailureRateReductionPct: 71, AvgCostPerFailure: 180000, AnnualFailuresPrevented: 8},
	{AssetType: "Generators", FailureRateReductionPct: 58, AvgCostPerFailure: 95000, AnnualFailuresPrevented: 12},
}

// Impact returns the four headline cards plus the static breakdown tables.
func Impact(src entropy.Source) domain.BusinessImpact {
	savings := entropy.IntBetween(src, 2200000, 2400000)
	downtime := entropy.IntBetween(src, 75, 82)
	efficiency := entropy.IntBetween(src, 32, 37)
	precision := entropy.IntBetween(src, 86, 91)
	headline := []domain.Metric{
		{
			Name:  "Annual Savings",
			Value: "$" + humanize.Comma(int64(savings)),
			Delta: fmt.Sprintf("+$%s this month", humanize.Comma(int64(entropy.IntBetween(src, 15000, 25000)))),
		},
		{
			Name:  "Downtime Reduction",
			Value: fmt.Sprintf("%d%%", downtime),
			Delta: fmt.Sprintf("+%d%% vs baseline", entropy.IntBetween(src, 1, 3)),
		},
		{
			Name:  "Crew Efficiency",
			Value: fmt.Sprintf("+%d%%", efficiency),
			Delta: fmt.Sprintf("+%d%% this quarter", entropy.IntBetween(src, 1, 2)),
		},
		{
			Name:  "Alert Precision",
			Value: fmt.Sprintf("%d%%", precision),
			Delta: fmt.Sprintf("+%d%% improvement", entropy.IntBetween(src, 2, 4)),
		},
	}
	return domain.BusinessImpact{
		Headline:      headline,
		CostBreakdown: append([]domain.CostCategory(nil), costBreakdown...),
		AssetImpact:   append([]domain.AssetTypeImpact(nil), assetImpact...),
	}
}

var crewRoster = []domain.Crew{
	{ID: "Alpha-01", Status: "maintenance", Assignment: "AST-8847 Transformer", NextPriority: "AST-7721", ETA: "45 min", Efficiency: 96, Specialization: "HV Transformer"},
	{ID: "Beta-02", Status: "traveling", Assignment: "Transit to Grid-North", NextPriority: "AST-6654", ETA: "15 min", Efficiency: 89, Specialization: "Distribution"},
	{ID: "Gamma-03", Status: "available", Assignment: "Ready for dispatch", NextPriority: "AST-5443", ETA: "Ready", Efficiency: 94, Specialization: "General"},
	{ID: "Delta-04", Status: "emergency", Assignment: "AST-9234 Circuit Breaker", NextPriority: "AST-8901", ETA: "2.5 hours", Efficiency: 91, Specialization: "Protection"},
	{ID: "Echo-05", Status: "break", Assignment: "Lunch break", NextPriority: "AST-7334", ETA: "30 min", Efficiency: 88, Specialization: "Substation"},
}

// Crews returns the fixed crew roster.
func Crews() []domain.Crew {
	return append([]domain.Crew(nil), crewRoster...)
}
