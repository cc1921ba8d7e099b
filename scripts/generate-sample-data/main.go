package main

import (
	"flag"
	"fmt"
	"math/rand/v2"

	"featsel/internal/dataset"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

func main() {
	var (
		outputPath  = flag.String("output", "sample.csv", "CSV file to write")
		rows        = flag.Int("rows", 500, "Number of rows to generate")
		informative = flag.Int("informative", 3, "Columns that carry the label")
		noise       = flag.Int("noise", 5, "Columns of pure noise")
		seed        = flag.Uint64("seed", 1, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating sample dataset...\n")
	fmt.Printf("  Rows: %d\n", *rows)
	fmt.Printf("  Informative: %d, Noise: %d\n", *informative, *noise)

	names, X := generate(rand.New(rand.NewPCG(*seed, *seed)), *rows, *informative, *noise)
	if err := dataset.WriteCSV(*outputPath, names, X); err != nil {
		log.Fatal().Err(err).Msg("Failed to write dataset")
	}

	fmt.Printf("✓ Wrote %s\n", *outputPath)
}

// generate interleaves informative and noise columns so pairwise reduction has to
// choose between them. The last column is the binary label.
func generate(r *rand.Rand, rows, informative, noise int) ([]string, *mat.Dense) {
	cols := informative + noise
	names := make([]string, 0, cols+1)
	kinds := make([]bool, 0, cols)
	for i, j := 0, 0; i < informative || j < noise; {
		if i < informative {
			names = append(names, fmt.Sprintf("signal_%d", i))
			kinds = append(kinds, true)
			i++
		}
		if j < noise {
			names = append(names, fmt.Sprintf("noise_%d", j))
			kinds = append(kinds, false)
			j++
		}
	}
	names = append(names, "label")

	X := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		label := float64(r.IntN(2))
		for j, signal := range kinds {
			v := r.NormFloat64()
			if signal {
				v += 2 * label
			}
			X.Set(i, j, v)
		}
		X.Set(i, cols, label)
	}
	return names, X
}
