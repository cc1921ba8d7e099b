package selector

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PairDecision records one pairwise comparison. Indices refer to the column space as it
// was when the pair was examined, before the loser was removed.
type PairDecision struct {
	Index             int     `json:"index"`
	Kept              int     `json:"kept"`
	Dropped           int     `json:"dropped"`
	KeptImportance    float64 `json:"kept_importance"`
	DroppedImportance float64 `json:"dropped_importance"`
}

// derivePairCount returns the default number of adjacent pairs to examine.
func derivePairCount(columns, importances int) int {
	return max(1, min(columns/2, importances/2))
}

// reducePairs walks adjacent column pairs from the left and drops the weaker member of each.
// The right bound is re-read from the shrinking matrix on every iteration.
func reducePairs(X *mat.Dense, importances []float64, pairs int, normalize bool) (*mat.Dense, []float64, []PairDecision) {
	_, origCols := X.Dims()
	limit := min(pairs, origCols/2) * 2

	var trace []PairDecision
	for i := 0; i < limit; i += 2 {
		if _, c := X.Dims(); i+1 >= c {
			break
		}

		kept, loser := i+1, i
		if importances[i] > importances[i+1] {
			kept, loser = i, i+1
		}

		if normalize {
			normalizeColumn(X, loser)
		}

		trace = append(trace, PairDecision{
			Index:             i,
			Kept:              kept,
			Dropped:           loser,
			KeptImportance:    importances[kept],
			DroppedImportance: importances[loser],
		})
		log.Debug().
			Int("pair", i).
			Int("dropped", loser).
			Float64("kept_importance", importances[kept]).
			Float64("dropped_importance", importances[loser]).
			Msg("pairwise feature dropped")

		X = dropColumn(X, loser)
		importances = append(importances[:loser:loser], importances[loser+1:]...)
	}

	return X, importances, trace
}

// normalizeColumn scales column j to unit L2 norm in place. A zero column is left as is.
func normalizeColumn(X *mat.Dense, j int) {
	col := mat.Col(nil, j, X)
	norm := math.Sqrt(floats.Dot(col, col))
	if norm == 0 {
		return
	}
	for i := range col {
		col[i] /= norm
	}
	X.SetCol(j, col)
}

// dropColumn returns a copy of X without column j. X must have at least two columns.
func dropColumn(X *mat.Dense, j int) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c-1, nil)
	if j > 0 {
		out.Slice(0, r, 0, j).(*mat.Dense).Copy(X.Slice(0, r, 0, j))
	}
	if j < c-1 {
		out.Slice(0, r, j, c-1).(*mat.Dense).Copy(X.Slice(0, r, j+1, c))
	}
	return out
}
