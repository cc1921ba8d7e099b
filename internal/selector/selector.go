package selector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// DefaultThreshold is the minimum importance a feature needs to survive pruning.
const DefaultThreshold = 0.1

// Config configures a Selector.
type Config struct {
	// NumberLogs is the number of adjacent pairs examined per transform.
	// Zero means derive it at the first fit.
	NumberLogs         int     `yaml:"number_logs" json:"number_logs"`
	Threshold          float64 `yaml:"threshold" json:"threshold"`
	ApplyNormalization bool    `yaml:"apply_normalization" json:"apply_normalization"`
}

// DefaultConfig returns the selector defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:          DefaultThreshold,
		ApplyNormalization: true,
	}
}

// reductionState is owned by the selector. Fit replaces it, Transform mutates it.
type reductionState struct {
	version     int
	importances []float64
	support     []bool
	trace       []PairDecision
	inputCols   int
}

// Selector reduces a feature matrix by pairwise elimination followed by thresholding.
type Selector struct {
	mu sync.Mutex

	estimator  Estimator
	numberLogs int
	threshold  float64
	normalize  bool
	metrics    MetricsInterface

	fitted bool
	state  reductionState
}

// New creates a selector around the given estimator.
func New(estimator Estimator, config Config) (*Selector, error) {
	return NewWithMetrics(estimator, config, nil)
}

// NewWithMetrics creates a selector that reports activity to metrics.
func NewWithMetrics(estimator Estimator, config Config, metrics MetricsInterface) (*Selector, error) {
	if estimator == nil {
		return nil, ErrNilEstimator
	}
	if config.NumberLogs < 0 {
		return nil, fmt.Errorf("%w: number_logs must be positive, got %d", ErrInvalidConfig, config.NumberLogs)
	}
	if math.IsNaN(config.Threshold) {
		return nil, fmt.Errorf("%w: threshold is NaN", ErrInvalidConfig)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Selector{
		estimator:  estimator,
		numberLogs: config.NumberLogs,
		threshold:  config.Threshold,
		normalize:  config.ApplyNormalization,
		metrics:    metrics,
	}, nil
}

// Fit trains the estimator on (X, y) and captures its importances.
// Estimator errors are returned as is and leave the selector unchanged.
func (s *Selector) Fit(X mat.Matrix, y []float64) (*Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.estimator.Fit(X, y); err != nil {
		s.metrics.FitFailuresInc()
		return nil, err
	}

	importances := append([]float64(nil), s.estimator.FeatureImportances()...)
	_, cols := X.Dims()
	if s.numberLogs == 0 {
		s.numberLogs = derivePairCount(cols, len(importances))
	}

	s.state = reductionState{
		version:     s.state.version + 1,
		importances: importances,
	}
	s.fitted = true
	s.metrics.FitsInc()

	log.Debug().
		Int("columns", cols).
		Int("importances", len(importances)).
		Int("number_logs", s.numberLogs).
		Int("version", s.state.version).
		Msg("selector fitted")

	return s, nil
}

// Transform runs pairwise reduction and thresholding on a copy of X.
// The stored importance vector shrinks with every call; a second Transform without Fit
// continues from the already reduced vector.
func (s *Selector) Transform(X mat.Matrix) (*mat.Dense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fitted {
		return nil, ErrNotFitted
	}

	start := time.Now()

	work := &mat.Dense{}
	rows, cols := X.Dims()
	if rows == 0 && cols > 0 {
		return nil, fmt.Errorf("%w: 0 rows for %d columns", ErrNoRows, cols)
	}
	if rows > 0 && cols > 0 {
		work = mat.DenseCopyOf(X)
	}

	if len(s.state.importances) != cols {
		return nil, fmt.Errorf("%w: %d importances for %d columns", ErrDimensionMismatch, len(s.state.importances), cols)
	}

	var trace []PairDecision
	importances := s.state.importances
	if cols > 0 {
		work, importances, trace = reducePairs(work, importances, s.numberLogs, s.normalize)
	}
	out, mask := applyThreshold(work, importances, s.threshold)

	s.state.importances = importances
	s.state.support = mask
	s.state.trace = trace
	s.state.inputCols = cols

	_, outCols := out.Dims()
	pruned := len(mask) - outCols
	s.metrics.TransformsInc()
	s.metrics.PairwiseDroppedAdd(len(trace))
	s.metrics.ThresholdPrunedAdd(pruned)
	s.metrics.TransformDurationObserve(time.Since(start).Seconds())

	log.Debug().
		Int("input_columns", cols).
		Int("pairwise_dropped", len(trace)).
		Int("threshold_pruned", pruned).
		Int("output_columns", outCols).
		Msg("selector transform complete")

	return out, nil
}

// FitTransform is Fit followed by Transform on the same matrix.
func (s *Selector) FitTransform(X mat.Matrix, y []float64) (*mat.Dense, error) {
	if _, err := s.Fit(X, y); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// Support returns the keep-mask of the last transform. The mask indexes the columns left
// after pairwise reduction, so it cannot be applied to the original matrix directly.
func (s *Selector) Support() ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.support == nil {
		return nil, ErrNotFitted
	}
	return append([]bool{}, s.state.support...), nil
}

// Trace returns the pairwise decisions of the last transform.
func (s *Selector) Trace() ([]PairDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.support == nil {
		return nil, ErrNotFitted
	}
	return append([]PairDecision{}, s.state.trace...), nil
}

// ReducedNames replays the last transform's pairwise deletions on a list of column names,
// giving the names the support mask refers to.
func (s *Selector) ReducedNames(names []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.support == nil {
		return nil, ErrNotFitted
	}
	if len(names) != s.state.inputCols {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrDimensionMismatch, len(names), s.state.inputCols)
	}

	reduced := append([]string{}, names...)
	for _, d := range s.state.trace {
		reduced = append(reduced[:d.Dropped], reduced[d.Dropped+1:]...)
	}
	return reduced, nil
}

// Importances returns a copy of the current importance vector, nil before Fit.
func (s *Selector) Importances() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fitted {
		return nil
	}
	return append([]float64{}, s.state.importances...)
}

// NumberLogs returns the configured or derived pair count. It is zero until the first
// fit when it was not configured.
func (s *Selector) NumberLogs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numberLogs
}

// Threshold returns the pruning cutoff.
func (s *Selector) Threshold() float64 {
	return s.threshold
}

// Version counts successful fits.
func (s *Selector) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.version
}
