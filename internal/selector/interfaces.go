// Package selector implements pairwise feature reduction with importance thresholding.
// Adjacent feature columns are compared two at a time by their model-supplied importance,
// the weaker member of each pair is dropped, and the survivors are pruned against a
// fixed importance cutoff.
//
// The selector is stateful: the importance vector captured at fit time is shrunk in place
// by every transform, and the support mask describes the columns of the matrix as it
// looked after pairwise reduction, not the caller's original columns.
package selector

import "gonum.org/v1/gonum/mat"

// Estimator defines the model the selector borrows importance scores from.
// Implementations are fitted on (X, y) and must then report one importance per column
// of X, in column order.
type Estimator interface {
	// Fit trains the estimator on the feature matrix and aligned labels.
	Fit(X mat.Matrix, y []float64) error

	// FeatureImportances returns the per-feature importance scores of the last fit.
	FeatureImportances() []float64
}

// MetricsInterface receives selector activity counters.
type MetricsInterface interface {
	FitsInc()
	FitFailuresInc()
	TransformsInc()
	PairwiseDroppedAdd(n int)
	ThresholdPrunedAdd(n int)
	TransformDurationObserve(seconds float64)
}

type noopMetrics struct{}

func (noopMetrics) FitsInc()                         {}
func (noopMetrics) FitFailuresInc()                  {}
func (noopMetrics) TransformsInc()                   {}
func (noopMetrics) PairwiseDroppedAdd(int)           {}
func (noopMetrics) ThresholdPrunedAdd(int)           {}
func (noopMetrics) TransformDurationObserve(float64) {}
