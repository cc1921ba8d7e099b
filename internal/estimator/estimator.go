// Package estimator provides importance providers that can back a selector.Selector:
// an impurity based decision tree, absolute target correlation, and a static vector
// for importances computed elsewhere.
package estimator

import (
	"errors"
	"fmt"

	"featsel/internal/selector"

	"gonum.org/v1/gonum/mat"
)

const (
	KindTree        = "tree"
	KindCorrelation = "correlation"
	KindStatic      = "static"
)

var (
	ErrEmptyInput     = errors.New("estimator: empty input")
	ErrLengthMismatch = errors.New("estimator: length mismatch")
	ErrUnknownKind    = errors.New("estimator: unknown kind")
)

// Config holds the hyperparameters used by New.
type Config struct {
	MaxDepth        int `yaml:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split"`
	MinSamplesLeaf  int `yaml:"min_samples_leaf"`
}

// New builds an estimator by kind.
func New(kind string, config Config) (selector.Estimator, error) {
	switch kind {
	case KindTree:
		return NewDecisionTree(
			WithMaxDepth(config.MaxDepth),
			WithMinSamplesSplit(config.MinSamplesSplit),
			WithMinSamplesLeaf(config.MinSamplesLeaf),
		), nil
	case KindCorrelation:
		return NewCorrelation(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Static reports a fixed importance vector.
type Static struct {
	importances []float64
}

// NewStatic returns an estimator that always reports importances.
func NewStatic(importances []float64) *Static {
	return &Static{importances: append([]float64(nil), importances...)}
}

// Fit only checks that the vector matches the column count.
func (s *Static) Fit(X mat.Matrix, y []float64) error {
	_, cols := X.Dims()
	if cols != len(s.importances) {
		return fmt.Errorf("%w: %d importances for %d columns", ErrLengthMismatch, len(s.importances), cols)
	}
	return nil
}

func (s *Static) FeatureImportances() []float64 {
	return append([]float64(nil), s.importances...)
}

func checkInput(X mat.Matrix, y []float64) (rows, cols int, err error) {
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, ErrEmptyInput
	}
	if len(y) != rows {
		return 0, 0, fmt.Errorf("%w: %d labels for %d rows", ErrLengthMismatch, len(y), rows)
	}
	return rows, cols, nil
}
