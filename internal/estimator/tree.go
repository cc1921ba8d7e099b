package estimator

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DecisionTree grows a CART classifier with the gini criterion and reports the mean
// decrease in impurity of every feature, normalized to sum to one.
// Labels are class ids; any distinct float value is its own class.
type DecisionTree struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int

	importances []float64
	splits      int
}

// Option functional config
type Option func(*DecisionTree)

func WithMaxDepth(d int) Option { return func(t *DecisionTree) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTree) {
		if n > 0 {
			t.MinSamplesSplit = n
		}
	}
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTree) {
		if n > 0 {
			t.MinSamplesLeaf = n
		}
	}
}

// NewDecisionTree returns a tree with sensible defaults.
func NewDecisionTree(opts ...Option) *DecisionTree {
	t := &DecisionTree{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// treeData is the column-major view of the training set shared by the recursion.
type treeData struct {
	columns  [][]float64
	labels   []int
	nClasses int
	total    float64
}

type split struct {
	feature int
	gain    float64
	left    []int
	right   []int
}

func (t *DecisionTree) Fit(X mat.Matrix, y []float64) error {
	rows, cols, err := checkInput(X, y)
	if err != nil {
		return err
	}

	labels, nClasses := encodeLabels(y)
	data := &treeData{
		columns:  make([][]float64, cols),
		labels:   labels,
		nClasses: nClasses,
		total:    float64(rows),
	}
	for j := range data.columns {
		data.columns[j] = mat.Col(nil, j, X)
	}

	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}

	t.importances = make([]float64, cols)
	t.splits = 0
	t.grow(data, idx, 0)

	if sum := floats.Sum(t.importances); sum > 0 {
		floats.Scale(1/sum, t.importances)
	}
	return nil
}

func (t *DecisionTree) FeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

// Splits returns the number of internal nodes of the last fitted tree.
func (t *DecisionTree) Splits() int {
	return t.splits
}

func (t *DecisionTree) grow(data *treeData, idx []int, depth int) {
	if len(idx) < t.MinSamplesSplit || len(idx) < 2*t.MinSamplesLeaf {
		return
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return
	}

	counts := make([]int, data.nClasses)
	for _, i := range idx {
		counts[data.labels[i]]++
	}
	parent := gini(counts, len(idx))
	if parent == 0 {
		return
	}

	best := split{feature: -1}
	for f := range data.columns {
		if s, ok := t.bestSplitForFeature(data, idx, f, counts, parent); ok && s.gain > best.gain {
			best = s
		}
	}
	if best.feature < 0 {
		return
	}

	t.importances[best.feature] += best.gain / data.total
	t.splits++

	t.grow(data, best.left, depth+1)
	t.grow(data, best.right, depth+1)
}

// bestSplitForFeature sweeps the sorted values of feature f keeping running class counts.
// gain is the weighted impurity decrease n*parent - nL*left - nR*right.
func (t *DecisionTree) bestSplitForFeature(data *treeData, idx []int, f int, counts []int, parent float64) (split, bool) {
	col := data.columns[f]
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(a, b int) bool { return col[sorted[a]] < col[sorted[b]] })

	n := len(sorted)
	left := make([]int, data.nClasses)
	right := append([]int(nil), counts...)

	bestGain, bestPos := 0.0, -1
	for pos := 0; pos < n-1; pos++ {
		c := data.labels[sorted[pos]]
		left[c]++
		right[c]--

		nl := pos + 1
		nr := n - nl
		if nl < t.MinSamplesLeaf || nr < t.MinSamplesLeaf {
			continue
		}
		if col[sorted[pos]] == col[sorted[pos+1]] {
			continue
		}

		gain := float64(n)*parent - float64(nl)*gini(left, nl) - float64(nr)*gini(right, nr)
		if gain > bestGain {
			bestGain, bestPos = gain, pos
		}
	}
	if bestPos < 0 {
		return split{}, false
	}

	return split{
		feature: f,
		gain:    bestGain,
		left:    sorted[:bestPos+1],
		right:   sorted[bestPos+1:],
	}, true
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

// encodeLabels maps labels to dense class indices in ascending label order.
func encodeLabels(y []float64) ([]int, int) {
	uniq := append([]float64(nil), y...)
	sort.Float64s(uniq)
	classes := make(map[float64]int)
	for _, v := range uniq {
		if _, ok := classes[v]; !ok {
			classes[v] = len(classes)
		}
	}

	labels := make([]int, len(y))
	for i, v := range y {
		labels[i] = classes[v]
	}
	return labels, len(classes)
}
