package selector

import "gonum.org/v1/gonum/mat"

// applyThreshold keeps the columns whose importance is strictly above threshold.
// When nothing survives the result is an empty matrix.
func applyThreshold(X *mat.Dense, importances []float64, threshold float64) (*mat.Dense, []bool) {
	mask := make([]bool, len(importances))
	kept := 0
	for j, v := range importances {
		if v > threshold {
			mask[j] = true
			kept++
		}
	}

	if kept == 0 {
		return &mat.Dense{}, mask
	}

	r, _ := X.Dims()
	out := mat.NewDense(r, kept, nil)
	col := make([]float64, r)
	k := 0
	for j, keep := range mask {
		if !keep {
			continue
		}
		out.SetCol(k, mat.Col(col, j, X))
		k++
	}
	return out, mask
}
