// Package dataset loads labelled feature matrices from CSV and writes reduced ones back.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoLabelColumn = errors.New("dataset: label column not found")
	ErrNoRows        = errors.New("dataset: no data rows")
	ErrNonFinite     = errors.New("dataset: value is not finite")
)

// Dataset is a feature matrix with column names and optional labels.
type Dataset struct {
	Names []string
	X     *mat.Dense
	Y     []float64
}

// LoadCSV reads a CSV file with a header row. When labelColumn is not empty that column
// becomes Y and is removed from the features.
func LoadCSV(path, labelColumn string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file, labelColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(ds.Y)).
		Int("features", len(ds.Names)).
		Msg("Dataset loaded")

	return ds, nil
}

// ReadCSV parses CSV data from r. See LoadCSV.
func ReadCSV(r io.Reader, labelColumn string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	labelIdx := -1
	names := make([]string, 0, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if labelColumn != "" && col == labelColumn {
			labelIdx = i
			continue
		}
		names = append(names, col)
	}
	if labelColumn != "" && labelIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoLabelColumn, labelColumn)
	}

	var data, labels []float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d column %q: %w: %s", line, header[i], ErrNonFinite, cell)
			}
			if i == labelIdx {
				labels = append(labels, v)
				continue
			}
			data = append(data, v)
		}
	}

	rows := line - 1
	if rows == 0 {
		return nil, ErrNoRows
	}

	ds := &Dataset{Names: names, Y: labels}
	if len(names) > 0 {
		ds.X = mat.NewDense(rows, len(names), data)
	} else {
		ds.X = &mat.Dense{}
	}
	return ds, nil
}

// WriteCSV writes names as the header followed by the rows of X.
func WriteCSV(path string, names []string, X mat.Matrix) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := EncodeCSV(file, names, X); err != nil {
		return err
	}
	return file.Close()
}

// EncodeCSV writes names and the rows of X to w.
func EncodeCSV(w io.Writer, names []string, X mat.Matrix) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rows, cols := X.Dims()
	if cols != len(names) {
		return fmt.Errorf("dataset: %d names for %d columns", len(names), cols)
	}
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(X.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Select returns the names whose mask entry is true.
func Select(names []string, mask []bool) []string {
	out := make([]string, 0, len(names))
	for i, keep := range mask {
		if keep && i < len(names) {
			out = append(out, names[i])
		}
	}
	return out
}

// Rows converts X to a slice of rows. An empty matrix yields nil.
func Rows(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil
	}
	out := make([][]float64, rows)
	for i := range out {
		out[i] = mat.Row(nil, i, X)
	}
	return out
}

// FromRows builds a dense matrix from equally sized rows.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &mat.Dense{}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("dataset: row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
