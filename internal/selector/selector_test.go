package selector

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// MockEstimator returns fixed importances and records fit calls.
type MockEstimator struct {
	importances []float64
	err         error
	fitCalls    int
	lastCols    int
}

func (m *MockEstimator) Fit(X mat.Matrix, y []float64) error {
	m.fitCalls++
	if m.err != nil {
		return m.err
	}
	_, m.lastCols = X.Dims()
	return nil
}

func (m *MockEstimator) FeatureImportances() []float64 {
	return m.importances
}

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu              sync.Mutex
	fits            int
	fitFailures     int
	transforms      int
	pairwiseDropped int
	thresholdPruned int
	durations       []float64
}

func (m *MockMetrics) FitsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fits++
}

func (m *MockMetrics) FitFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fitFailures++
}

func (m *MockMetrics) TransformsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transforms++
}

func (m *MockMetrics) PairwiseDroppedAdd(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairwiseDropped += n
}

func (m *MockMetrics) ThresholdPrunedAdd(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholdPruned += n
}

func (m *MockMetrics) TransformDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, v)
}

// columnMatrix builds a rows x len(ids) matrix where every cell of column j equals ids[j]
// plus the row index, so columns can be identified after reduction.
func columnMatrix(rows int, ids ...float64) *mat.Dense {
	X := mat.NewDense(rows, len(ids), nil)
	for i := 0; i < rows; i++ {
		for j, id := range ids {
			X.Set(i, j, id+float64(i))
		}
	}
	return X
}

func columnIDs(t *testing.T, X *mat.Dense) []float64 {
	t.Helper()
	if X.IsEmpty() {
		return []float64{}
	}
	_, c := X.Dims()
	ids := make([]float64, c)
	for j := range ids {
		ids[j] = X.At(0, j)
	}
	return ids
}

func newSelector(t *testing.T, importances []float64, config Config) (*Selector, *MockEstimator) {
	t.Helper()
	est := &MockEstimator{importances: importances}
	s, err := New(est, config)
	require.NoError(t, err)
	return s, est
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilEstimator)

	config := DefaultConfig()
	config.NumberLogs = -1
	_, err = New(&MockEstimator{}, config)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := New(&MockEstimator{}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, s.Threshold())
	assert.True(t, s.normalize)
	assert.Zero(t, s.NumberLogs())
}

func TestFit_DerivesPairCount(t *testing.T) {
	tests := []struct {
		name        string
		cols        int
		importances int
		want        int
	}{
		{"four columns", 4, 4, 2},
		{"odd columns", 7, 7, 3},
		{"two columns", 2, 2, 1},
		{"single column floors at one", 1, 1, 1},
		{"shorter importance vector wins", 8, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSelector(t, make([]float64, tt.importances), DefaultConfig())
			_, err := s.Fit(mat.NewDense(3, tt.cols, nil), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.NumberLogs())
		})
	}
}

func TestFit_KeepsConfiguredPairCount(t *testing.T) {
	config := DefaultConfig()
	config.NumberLogs = 5
	s, _ := newSelector(t, []float64{1, 1, 1, 1}, config)

	_, err := s.Fit(mat.NewDense(2, 4, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, s.NumberLogs())
}

func TestFit_PairCountSurvivesRefit(t *testing.T) {
	s, est := newSelector(t, make([]float64, 6), DefaultConfig())
	_, err := s.Fit(mat.NewDense(2, 6, nil), nil)
	require.NoError(t, err)
	require.Equal(t, 3, s.NumberLogs())

	est.importances = make([]float64, 2)
	_, err = s.Fit(mat.NewDense(2, 2, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumberLogs())
	assert.Equal(t, 2, s.Version())
}

func TestFit_PropagatesEstimatorError(t *testing.T) {
	fitErr := errors.New("estimator exploded")
	metrics := &MockMetrics{}
	est := &MockEstimator{err: fitErr}
	s, err := NewWithMetrics(est, DefaultConfig(), metrics)
	require.NoError(t, err)

	got, err := s.Fit(mat.NewDense(2, 2, nil), []float64{0, 1})
	assert.Nil(t, got)
	assert.Equal(t, fitErr, err)
	assert.Equal(t, 1, est.fitCalls)
	assert.Equal(t, 1, metrics.fitFailures)

	_, err = s.Transform(mat.NewDense(2, 2, nil))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestTransform_ConcreteScenario(t *testing.T) {
	s, _ := newSelector(t, []float64{0.3, 0.1, 0.4, 0.2}, DefaultConfig())
	X := columnMatrix(5, 100, 200, 300, 400)

	out, err := s.FitTransform(X, []float64{0, 1, 0, 1, 0})
	require.NoError(t, err)

	assert.Equal(t, 2, s.NumberLogs())
	r, c := out.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{100, 300, 400}, columnIDs(t, out))
	assert.Equal(t, []float64{0.3, 0.4, 0.2}, s.Importances())

	support, err := s.Support()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, support)

	trace, err := s.Trace()
	require.NoError(t, err)
	require.Len(t, trace, 1)
	assert.Equal(t, PairDecision{Index: 0, Kept: 0, Dropped: 1, KeptImportance: 0.3, DroppedImportance: 0.1}, trace[0])
}

func TestTransform_LoserSelection(t *testing.T) {
	tests := []struct {
		name        string
		importances []float64
		wantIDs     []float64
	}{
		{"left stronger drops right", []float64{0.9, 0.2}, []float64{10}},
		{"right stronger drops left", []float64{0.2, 0.9}, []float64{20}},
		{"tie drops left", []float64{0.5, 0.5}, []float64{20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSelector(t, tt.importances, DefaultConfig())
			out, err := s.FitTransform(columnMatrix(3, 10, 20), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, columnIDs(t, out))
		})
	}
}

func TestTransform_DoesNotSortByImportance(t *testing.T) {
	// Column order decides which features are compared.
	s, _ := newSelector(t, []float64{0.8, 0.9, 0.2, 0.3}, DefaultConfig())
	out, err := s.FitTransform(columnMatrix(2, 1, 2, 3, 4), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, columnIDs(t, out))
}

func TestTransform_EarlyStopOnShrinkingColumns(t *testing.T) {
	tests := []struct {
		name        string
		importances []float64
		numberLogs  int
		wantPairs   int
		wantIDs     []float64
	}{
		{
			name:        "four columns stop after first pair",
			importances: []float64{0.3, 0.1, 0.4, 0.2},
			wantPairs:   1,
			wantIDs:     []float64{1, 3, 4},
		},
		{
			name:        "six columns stop after second pair",
			importances: []float64{0.5, 0.4, 0.3, 0.6, 0.7, 0.2},
			numberLogs:  3,
			wantPairs:   2,
			wantIDs:     []float64{1, 3, 5, 6},
		},
		{
			name:        "pair count limits the walk",
			importances: []float64{0.5, 0.4, 0.3, 0.6, 0.7, 0.2, 0.9, 0.8},
			numberLogs:  1,
			wantPairs:   1,
			wantIDs:     []float64{1, 3, 4, 5, 6, 7, 8},
		},
		{
			name:        "odd column count",
			importances: []float64{0.2, 0.4, 0.6, 0.8, 0.9},
			numberLogs:  10,
			wantPairs:   2,
			wantIDs:     []float64{2, 3, 5},
		},
		{
			name:        "largest pair count",
			importances: []float64{0.9, 0.2, 0.8, 0.3},
			numberLogs:  math.MaxInt,
			wantPairs:   1,
			wantIDs:     []float64{1, 3, 4},
		},
		{
			name:        "pair count above half of MaxInt",
			importances: []float64{0.9, 0.2, 0.8, 0.3},
			numberLogs:  math.MaxInt/2 + 1,
			wantPairs:   1,
			wantIDs:     []float64{1, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.NumberLogs = tt.numberLogs
			config.Threshold = 0
			s, _ := newSelector(t, tt.importances, config)

			ids := make([]float64, len(tt.importances))
			for j := range ids {
				ids[j] = float64(j + 1)
			}
			out, err := s.FitTransform(columnMatrix(1, ids...), nil)
			require.NoError(t, err)

			trace, err := s.Trace()
			require.NoError(t, err)
			assert.Len(t, trace, tt.wantPairs)
			assert.Equal(t, tt.wantIDs, columnIDs(t, out))
		})
	}
}

func TestTransform_NormalizationDoesNotLeakIntoOutput(t *testing.T) {
	X := mat.NewDense(3, 4, []float64{
		3, 1, 5, 2,
		4, 2, 6, 2,
		0, 2, 7, 1,
	})
	importances := []float64{0.3, 0.1, 0.4, 0.2}

	withNorm, _ := newSelector(t, importances, DefaultConfig())
	outNorm, err := withNorm.FitTransform(X, nil)
	require.NoError(t, err)

	config := DefaultConfig()
	config.ApplyNormalization = false
	withoutNorm, _ := newSelector(t, importances, config)
	outPlain, err := withoutNorm.FitTransform(X, nil)
	require.NoError(t, err)

	assert.True(t, mat.Equal(outNorm, outPlain))
	assert.Equal(t, 1.0, X.At(0, 1), "input matrix must not be modified")
}

func TestNormalizeColumn(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{3, 0, 4, 0})

	normalizeColumn(X, 0)
	assert.InDelta(t, 0.6, X.At(0, 0), 1e-12)
	assert.InDelta(t, 0.8, X.At(1, 0), 1e-12)

	normalizeColumn(X, 1)
	assert.Equal(t, 0.0, X.At(0, 1))
	assert.Equal(t, 0.0, X.At(1, 1))
}

func TestDropColumn(t *testing.T) {
	X := columnMatrix(2, 1, 2, 3)

	assert.Equal(t, []float64{2, 3}, columnIDs(t, dropColumn(X, 0)))
	assert.Equal(t, []float64{1, 3}, columnIDs(t, dropColumn(X, 1)))
	assert.Equal(t, []float64{1, 2}, columnIDs(t, dropColumn(X, 2)))
}

func TestTransform_ThresholdPrunesEverything(t *testing.T) {
	config := DefaultConfig()
	config.Threshold = 0.5
	s, _ := newSelector(t, []float64{0.3, 0.1, 0.4, 0.2}, config)

	out, err := s.FitTransform(columnMatrix(2, 1, 2, 3, 4), nil)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())

	support, err := s.Support()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, support)
}

func TestTransform_ThresholdIsStrict(t *testing.T) {
	config := DefaultConfig()
	config.NumberLogs = 1
	s, _ := newSelector(t, []float64{0.1, 0.05, 0.1000001}, config)

	out, err := s.FitTransform(columnMatrix(2, 1, 2, 3), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, columnIDs(t, out))

	support, err := s.Support()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, support)
}

func TestTransform_EmptyMatrix(t *testing.T) {
	s, _ := newSelector(t, []float64{}, DefaultConfig())

	out, err := s.FitTransform(&mat.Dense{}, nil)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())

	support, err := s.Support()
	require.NoError(t, err)
	assert.Empty(t, support)
	assert.NotNil(t, support)
}

// rowless is a matrix with columns but no rows, which mat.Dense cannot represent.
type rowless struct{ cols int }

func (m rowless) Dims() (int, int)    { return 0, m.cols }
func (m rowless) At(i, j int) float64 { panic(mat.ErrIndexOutOfRange) }
func (m rowless) T() mat.Matrix       { return mat.Transpose{Matrix: m} }

func TestTransform_NoRows(t *testing.T) {
	s, _ := newSelector(t, []float64{0.3, 0.1, 0.4}, DefaultConfig())
	_, err := s.Fit(columnMatrix(2, 1, 2, 3), nil)
	require.NoError(t, err)

	_, err = s.Transform(rowless{cols: 3})
	assert.ErrorIs(t, err, ErrNoRows)
	assert.ErrorContains(t, err, "3 columns")
	assert.NotErrorIs(t, err, ErrDimensionMismatch)
}

func TestTransform_SingleColumn(t *testing.T) {
	s, _ := newSelector(t, []float64{0.7}, DefaultConfig())

	out, err := s.FitTransform(columnMatrix(4, 9), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, columnIDs(t, out))
	assert.Equal(t, 1, s.NumberLogs())
}

func TestTransform_RepeatedCallsReuseShrunkImportances(t *testing.T) {
	s, _ := newSelector(t, []float64{0.3, 0.1, 0.4, 0.2}, DefaultConfig())
	X := columnMatrix(2, 1, 2, 3, 4)

	first, err := s.FitTransform(X, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 3, 4}, columnIDs(t, first))

	second, err := s.Transform(first)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, columnIDs(t, second))
	assert.Equal(t, []float64{0.4, 0.2}, s.Importances())

	support, err := s.Support()
	require.NoError(t, err)
	assert.Len(t, support, 2)

	_, err = s.Transform(X)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFit_ResetsReductionState(t *testing.T) {
	s, _ := newSelector(t, []float64{0.3, 0.1, 0.4, 0.2}, DefaultConfig())
	X := columnMatrix(2, 1, 2, 3, 4)

	_, err := s.FitTransform(X, nil)
	require.NoError(t, err)
	require.Len(t, s.Importances(), 3)

	_, err = s.Fit(X, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.1, 0.4, 0.2}, s.Importances())

	_, err = s.Support()
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = s.Transform(X)
	assert.NoError(t, err)
}

func TestSupport_BeforeTransform(t *testing.T) {
	s, _ := newSelector(t, []float64{0.5, 0.5}, DefaultConfig())

	_, err := s.Support()
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = s.Fit(mat.NewDense(2, 2, nil), nil)
	require.NoError(t, err)

	_, err = s.Support()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = s.Trace()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestSupport_ReturnsCopy(t *testing.T) {
	s, _ := newSelector(t, []float64{0.3, 0.1, 0.4, 0.2}, DefaultConfig())
	_, err := s.FitTransform(columnMatrix(2, 1, 2, 3, 4), nil)
	require.NoError(t, err)

	support, err := s.Support()
	require.NoError(t, err)
	support[0] = false

	again, err := s.Support()
	require.NoError(t, err)
	assert.True(t, again[0])
}

func TestReducedNames(t *testing.T) {
	config := DefaultConfig()
	config.NumberLogs = 3
	s, _ := newSelector(t, []float64{0.5, 0.4, 0.3, 0.6, 0.7, 0.2}, config)

	_, err := s.ReducedNames([]string{"a"})
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = s.FitTransform(columnMatrix(2, 1, 2, 3, 4, 5, 6), nil)
	require.NoError(t, err)

	names, err := s.ReducedNames([]string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "e", "f"}, names)

	_, err = s.ReducedNames([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTransform_ReportsMetrics(t *testing.T) {
	metrics := &MockMetrics{}
	config := DefaultConfig()
	config.Threshold = 0.25
	s, err := NewWithMetrics(&MockEstimator{importances: []float64{0.3, 0.1, 0.4, 0.2}}, config, metrics)
	require.NoError(t, err)

	_, err = s.FitTransform(columnMatrix(2, 1, 2, 3, 4), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.fits)
	assert.Equal(t, 1, metrics.transforms)
	assert.Equal(t, 1, metrics.pairwiseDropped)
	assert.Equal(t, 1, metrics.thresholdPruned)
	assert.Len(t, metrics.durations, 1)
}

func TestTransform_RandomizedInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for n := 0; n < 200; n++ {
		cols := 1 + rnd.Intn(12)
		rows := 1 + rnd.Intn(6)
		importances := make([]float64, cols)
		for j := range importances {
			importances[j] = rnd.Float64() * 0.3
		}
		data := make([]float64, rows*cols)
		for i := range data {
			data[i] = rnd.NormFloat64()
		}

		config := DefaultConfig()
		config.NumberLogs = rnd.Intn(cols + 1)
		config.ApplyNormalization = rnd.Intn(2) == 0
		s, _ := newSelector(t, importances, config)

		out, err := s.FitTransform(mat.NewDense(rows, cols, data), nil)
		require.NoError(t, err)

		outCols := 0
		if !out.IsEmpty() {
			_, outCols = out.Dims()
		}
		assert.LessOrEqual(t, outCols, cols)

		support, err := s.Support()
		require.NoError(t, err)
		kept := 0
		for _, v := range support {
			if v {
				kept++
			}
		}
		assert.Equal(t, outCols, kept)
		assert.Len(t, s.Importances(), len(support))
	}
}
