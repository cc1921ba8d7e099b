// Package batch runs one selection over a CSV file: load, fit, transform, write the
// reduced matrix and record the run.
package batch

import (
	"errors"
	"fmt"
	"time"

	"featsel/internal/cfg"
	"featsel/internal/dataset"
	"featsel/internal/estimator"
	"featsel/internal/selector"
	"featsel/internal/storage"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var ErrNoInput = errors.New("batch: no input path")

// RunStore is the part of storage.Store a batch run needs.
type RunStore interface {
	SaveRun(run storage.RunRecord) (storage.RunRecord, error)
}

// Result is the outcome of a batch run.
type Result struct {
	Output        *mat.Dense
	ReducedNames  []string
	SelectedNames []string
	Support       []bool
	Importances   []float64
	NumberLogs    int
	RunID         string
	Duration      time.Duration
}

// Run selects features from settings.InputPath. The reduced matrix is written to
// settings.OutputPath when set and the run is saved when store is not nil.
func Run(settings cfg.Settings, store RunStore, m selector.MetricsInterface) (*Result, error) {
	if settings.InputPath == "" {
		return nil, ErrNoInput
	}
	start := time.Now()

	ds, err := dataset.LoadCSV(settings.InputPath, settings.LabelColumn)
	if err != nil {
		return nil, err
	}

	est, err := estimator.New(settings.Estimator, settings.EstimatorConfig())
	if err != nil {
		return nil, err
	}
	sel, err := selector.NewWithMetrics(est, settings.SelectorConfig(), m)
	if err != nil {
		return nil, err
	}

	out, err := sel.FitTransform(ds.X, ds.Y)
	if err != nil {
		return nil, fmt.Errorf("selection failed: %w", err)
	}

	support, err := sel.Support()
	if err != nil {
		return nil, err
	}
	reduced, err := sel.ReducedNames(ds.Names)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Output:        out,
		ReducedNames:  reduced,
		SelectedNames: dataset.Select(reduced, support),
		Support:       support,
		Importances:   sel.Importances(),
		NumberLogs:    sel.NumberLogs(),
	}

	if settings.OutputPath != "" {
		if err := dataset.WriteCSV(settings.OutputPath, res.SelectedNames, out); err != nil {
			return nil, err
		}
		log.Info().Str("path", settings.OutputPath).Int("columns", len(res.SelectedNames)).Msg("Reduced dataset written")
	}

	if store != nil {
		run, err := store.SaveRun(storage.RunRecord{
			Source:             settings.InputPath,
			Estimator:          settings.Estimator,
			InputColumns:       ds.Names,
			ReducedColumns:     reduced,
			OutputColumns:      res.SelectedNames,
			Importances:        res.Importances,
			Support:            support,
			NumberLogs:         res.NumberLogs,
			Threshold:          sel.Threshold(),
			ApplyNormalization: settings.ApplyNormalization,
			Rows:               len(ds.Y),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store run: %w", err)
		}
		res.RunID = run.ID
	}

	res.Duration = time.Since(start)
	return res, nil
}
