// Package dashboard produces the fabricated operational figures that sit
// around the asset list: trend lines, the live status sidebar, business
// impact cards, the pipeline performance cards, the ensemble weight estimator, the ROI projection and the
// crew roster. None of it is measured; every figure is a draw from the
// supplied entropy source or a fixed literal.
package dashboard

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gridpm/internal/domain"
	"gridpm/internal/entropy"
)

// ErrInvalidInput marks caller-supplied parameters outside their allowed range.
var ErrInvalidInput = errors.New("invalid input")

const (
	AssetsMonitored    = 9247
	baseHighRiskAssets = 146
	minTrendHighRisk   = 100
	baseModelAccuracy  = 0.94
	DefaultTrendDays   = 30
	MaxTrendDays       = 365
	desiredPods        = 15
	perfectRecall      = 1.0
	liveAccuracyFloor  = 0.90
	trendAccuracyFloor = 0.85
	accuracyCeiling    = 0.99
	weightSumTolerance = 0.01
)

var dagStates = []string{"success", "running", "queued"}

// Trend returns one point per day for the last days days, oldest first.
func Trend(src entropy.Source, now time.Time, days int) ([]domain.TrendPoint, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidInput, MaxTrendDays)
	}
	points := make([]domain.TrendPoint, 0, days)
	for i := days; i > 0; i-- {
		high := baseHighRiskAssets + entropy.IntBetween(src, -15, 15)
		acc := baseModelAccuracy + entropy.Uniform(src, -0.03, 0.02)
		points = append(points, domain.TrendPoint{
			Date:          now.AddDate(0, 0, -i).Format(domain.DateLayout),
			HighRiskCount: max(minTrendHighRisk, high),
			ModelAccuracy: clamp(acc, trendAccuracyFloor, accuracyCeiling),
		})
	}
	return points, nil
}

// LiveStatus fills the sidebar and the metric cards over the asset list.
func LiveStatus(src entropy.Source, now time.Time) domain.SystemStatus {
	delta := entropy.Uniform(src, -0.02, 0.02)
	return domain.SystemStatus{
		RefreshedAt:      now.UTC().Format(time.RFC3339),
		EnsembleAccuracy: clamp(baseModelAccuracy+delta, liveAccuracyFloor, accuracyCeiling),
		AccuracyDelta:    delta,
		RecallRate:       perfectRecall,
		AssetsMonitored:  AssetsMonitored,
		Pods: domain.PodStatus{
			Running: entropy.IntBetween(src, 10, desiredPods),
			Desired: desiredPods,
		},
		CPUPercent:       entropy.IntBetween(src, 18, 35),
		MemoryPercent:    entropy.IntBetween(src, 60, 75),
		RetrainDAG:       entropy.Choice(src, dagStates),
		HighRiskAssets:   baseHighRiskAssets + entropy.IntBetween(src, -5, 8),
		CrewsAvailable:   entropy.IntBetween(src, 20, 25),
		SavingsThousands: entropy.IntBetween(src, 450, 520),
	}
}

// PipelinePerformance fills the live pipeline cards under the architecture view.
func PipelinePerformance(src entropy.Source) domain.PipelinePerformance {
	return domain.PipelinePerformance{
		LatencyMS:        entropy.IntBetween(src, 180, 220),
		ThroughputPerMin: entropy.IntBetween(src, 840, 880),
		ModelAccuracy:    entropy.Uniform(src, 0.938, 0.945),
		Uptime:           entropy.Uniform(src, 0.997, 0.999),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
