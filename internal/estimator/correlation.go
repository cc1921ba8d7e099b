package estimator

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlation scores each feature by the absolute Pearson correlation with the target.
type Correlation struct {
	importances []float64
}

func NewCorrelation() *Correlation {
	return &Correlation{}
}

func (c *Correlation) Fit(X mat.Matrix, y []float64) error {
	_, cols, err := checkInput(X, y)
	if err != nil {
		return err
	}

	importances := make([]float64, cols)
	if stat.Variance(y, nil) == 0 {
		c.importances = importances
		return nil
	}

	for j := range importances {
		col := mat.Col(nil, j, X)
		if stat.Variance(col, nil) == 0 {
			continue
		}
		r := stat.Correlation(col, y, nil)
		if math.IsNaN(r) {
			continue
		}
		importances[j] = math.Abs(r)
	}

	c.importances = importances
	return nil
}

func (c *Correlation) FeatureImportances() []float64 {
	return append([]float64(nil), c.importances...)
}
