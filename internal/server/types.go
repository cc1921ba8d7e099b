package server

import (
	"time"

	"featsel/internal/selector"
)

// SelectRequest is the body of POST /select. Nil pointers fall back to the server's
// configured selector settings. When Importances is set the estimator is skipped and
// that vector is used as is; Labels are then optional.
type SelectRequest struct {
	Features           [][]float64 `json:"features"`
	Labels             []float64   `json:"labels,omitempty"`
	FeatureNames       []string    `json:"feature_names,omitempty"`
	Threshold          *float64    `json:"threshold,omitempty"`
	NumberLogs         *int        `json:"number_logs,omitempty"`
	ApplyNormalization *bool       `json:"apply_normalization,omitempty"`
	Estimator          string      `json:"estimator,omitempty"`
	Importances        []float64   `json:"importances,omitempty"`
	RequestID          string      `json:"request_id,omitempty"`
}

// SelectResponse is the result of one fit and transform.
type SelectResponse struct {
	Features      [][]float64             `json:"features"`
	Support       []bool                  `json:"support"`
	SelectedNames []string                `json:"selected_names"`
	ReducedNames  []string                `json:"reduced_names"`
	Importances   []float64               `json:"importances"`
	NumberLogs    int                     `json:"number_logs"`
	Threshold     float64                 `json:"threshold"`
	Estimator     string                  `json:"estimator"`
	Trace         []selector.PairDecision `json:"trace"`
	RunID         string                  `json:"run_id,omitempty"`
	RequestID     string                  `json:"request_id,omitempty"`
	Latency       float64                 `json:"latency_ms"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Estimator string    `json:"estimator"`
	Storage   bool      `json:"storage"`
	Timestamp time.Time `json:"timestamp"`
}
