package dashboard

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"

	"gridpm/internal/domain"
)

// Benchmark scores the ensemble estimator weighs. They are constants, not
// evaluations of any model.
var (
	modelAccuracy = domain.EnsembleWeights{XGBoost: 0.912, TensorFlow: 0.897, RandomForest: 0.889}
	modelRecall   = domain.EnsembleWeights{XGBoost: 0.978, TensorFlow: 1.000, RandomForest: 0.942}
)

// DefaultWeights are the slider positions the dashboard opens with.
var DefaultWeights = domain.EnsembleWeights{XGBoost: 0.40, TensorFlow: 0.35, RandomForest: 0.25}

// EstimateEnsemble blends the benchmark scores linearly by w. Weights that
// do not sum to 1 (within 0.01) still produce an estimate, flagged with a warning.
func EstimateEnsemble(w domain.EnsembleWeights) (domain.EnsembleEstimate, error) {
	for name, v := range map[string]float64{
		"xgboost":       w.XGBoost,
		"tensorflow":    w.TensorFlow,
		"random_forest": w.RandomForest,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return domain.EnsembleEstimate{}, fmt.Errorf("%w: %s weight %v outside [0,1]", ErrInvalidInput, name, v)
		}
	}
	sum := w.XGBoost + w.TensorFlow + w.RandomForest
	est := domain.EnsembleEstimate{
		Weights:   w,
		WeightSum: sum,
		Balanced:  math.Abs(sum-1.0) <= weightSumTolerance,
		Accuracy:  blend(modelAccuracy, w),
		Recall:    blend(modelRecall, w),
	}
	if !est.Balanced {
		est.Warning = fmt.Sprintf("weights sum to %.2f, should equal 1.0", sum)
	}
	return est, nil
}

func blend(scores, w domain.EnsembleWeights) float64 {
	return scores.XGBoost*w.XGBoost + scores.TensorFlow*w.TensorFlow + scores.RandomForest*w.RandomForest
}

// DefaultROIInput mirrors the calculator's initial slider positions.
var DefaultROIInput = domain.ROIInput{ImplementationCostK: 825, MonthlySavingsK: 190, Months: 24}

const maxROIMonths = 120

// ProjectROI accumulates monthly savings against the one-off implementation
// cost. BreakEvenMonth is the first month with a positive net benefit, 0 if
// none falls inside the projection.
func ProjectROI(in domain.ROIInput) (domain.ROIProjection, error) {
	if in.ImplementationCostK <= 0 {
		return domain.ROIProjection{}, fmt.Errorf("%w: implementation cost must be positive", ErrInvalidInput)
	}
	if in.MonthlySavingsK < 0 {
		return domain.ROIProjection{}, fmt.Errorf("%w: monthly savings must not be negative", ErrInvalidInput)
	}
	if in.Months < 1 || in.Months > maxROIMonths {
		return domain.ROIProjection{}, fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidInput, maxROIMonths)
	}
	proj := domain.ROIProjection{Input: in, Points: make([]domain.ROIPoint, 0, in.Months)}
	for m := 1; m <= in.Months; m++ {
		cumulative := m * in.MonthlySavingsK
		net := cumulative - in.ImplementationCostK
		proj.Points = append(proj.Points, domain.ROIPoint{Month: m, CumulativeSavings: cumulative, NetBenefit: net})
		if proj.BreakEvenMonth == 0 && net > 0 {
			proj.BreakEvenMonth = m
		}
	}
	last := proj.Points[len(proj.Points)-1].NetBenefit
	pct, err := percentOf(int64(last), int64(in.ImplementationCostK))
	if err != nil {
		return domain.ROIProjection{}, err
	}
	proj.FinalROIPct = pct
	return proj, nil
}

// percentOf returns num/den*100 rounded half-even to a whole percent.
func percentOf(num, den int64) (string, error) {
	ctx := apd.BaseContext.WithPrecision(34)
	var q apd.Decimal
	if _, err := ctx.Quo(&q, apd.New(num*100, 0), apd.New(den, 0)); err != nil {
		return "", fmt.Errorf("roi: %w", err)
	}
	ctx.Rounding = apd.RoundHalfEven
	if _, err := ctx.Quantize(&q, &q, 0); err != nil {
		return "", fmt.Errorf("roi: %w", err)
	}
	return q.Text('f'), nil
}
