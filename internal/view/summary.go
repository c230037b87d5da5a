package view

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"gridpm/internal/domain"
)

var decimalCtx = apd.BaseContext.WithPrecision(34)

// Summary aggregates a batch for the metric cards above the asset list.
type Summary struct {
	Total             int                      `json:"total"`
	Counts            map[domain.RiskLevel]int `json:"counts"`
	TotalExpectedCost string                   `json:"total_expected_cost"`
	HighRiskCost      string                   `json:"high_risk_cost"`
	Exposure          string                   `json:"exposure"`
	MeanProbability   string                   `json:"mean_probability"`
}

// Summarize totals costs exactly and reports exposure (probability-weighted
// cost) rounded to cents and the mean probability rounded to four places.
func Summarize(assets []domain.AssetRecord) (Summary, error) {
	var total, high, exposure, probSum apd.Decimal
	for _, a := range assets {
		cost := apd.New(int64(a.ExpectedCost), 0)
		if _, err := decimalCtx.Add(&total, &total, cost); err != nil {
			return Summary{}, fmt.Errorf("sum cost: %w", err)
		}
		if a.RiskLevel == domain.RiskHigh {
			if _, err := decimalCtx.Add(&high, &high, cost); err != nil {
				return Summary{}, fmt.Errorf("sum high-risk cost: %w", err)
			}
		}
		var prob, weighted apd.Decimal
		if _, err := prob.SetFloat64(a.FailureProbability); err != nil {
			return Summary{}, fmt.Errorf("probability %v: %w", a.FailureProbability, err)
		}
		if _, err := decimalCtx.Mul(&weighted, &prob, cost); err != nil {
			return Summary{}, fmt.Errorf("weight cost: %w", err)
		}
		if _, err := decimalCtx.Add(&exposure, &exposure, &weighted); err != nil {
			return Summary{}, fmt.Errorf("sum exposure: %w", err)
		}
		if _, err := decimalCtx.Add(&probSum, &probSum, &prob); err != nil {
			return Summary{}, fmt.Errorf("sum probability: %w", err)
		}
	}
	var mean apd.Decimal
	if len(assets) > 0 {
		if _, err := decimalCtx.Quo(&mean, &probSum, apd.New(int64(len(assets)), 0)); err != nil {
			return Summary{}, fmt.Errorf("mean probability: %w", err)
		}
	}
	if err := round(&exposure, 2); err != nil {
		return Summary{}, err
	}
	if err := round(&mean, 4); err != nil {
		return Summary{}, err
	}
	return Summary{
		Total:             len(assets),
		Counts:            CountByRiskLevel(assets),
		TotalExpectedCost: total.Text('f'),
		HighRiskCost:      high.Text('f'),
		Exposure:          exposure.Text('f'),
		MeanProbability:   mean.Text('f'),
	}, nil
}

func round(d *apd.Decimal, places int32) error {
	if _, err := decimalCtx.Quantize(d, d, -places); err != nil {
		return fmt.Errorf("round: %w", err)
	}
	return nil
}
