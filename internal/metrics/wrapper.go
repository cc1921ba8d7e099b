package metrics

import "strconv"

// Wrapper adapts Metrics to selector.MetricsInterface so the selector does not depend on
// Prometheus types.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) FitsInc() {
	w.m.Fits.Inc()
}

func (w *Wrapper) FitFailuresInc() {
	w.m.FitFailures.Inc()
}

func (w *Wrapper) TransformsInc() {
	w.m.Transforms.Inc()
}

func (w *Wrapper) PairwiseDroppedAdd(n int) {
	w.m.PairwiseDropped.Add(float64(n))
}

func (w *Wrapper) ThresholdPrunedAdd(n int) {
	w.m.ThresholdPruned.Add(float64(n))
}

func (w *Wrapper) TransformDurationObserve(seconds float64) {
	w.m.TransformDuration.Observe(seconds)
}

func (w *Wrapper) RunsStoredInc() {
	w.m.RunsStored.Inc()
}

func (w *Wrapper) HTTPRequestInc(handler string, code int) {
	w.m.HTTPRequests.WithLabelValues(handler, strconv.Itoa(code)).Inc()
}
