package main

import (
	"flag"
	"fmt"
	"strings"

	"featsel/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Data directory path")
		limit    = flag.Int("limit", 10, "Number of runs to show")
		id       = flag.String("id", "", "Show a single run")
		remove   = flag.Bool("delete", false, "Delete the run given by -id")
	)
	flag.Parse()

	fmt.Printf("Inspecting runs in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	if *remove {
		if *id == "" {
			log.Fatal().Msg("-delete requires -id")
		}
		if err := store.DeleteRun(*id); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete run")
		}
		fmt.Printf("Deleted run %s\n", *id)
		return
	}

	if *id != "" {
		run, err := store.GetRun(*id)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch run")
		}
		printRun(run)
		return
	}

	runs, err := store.ListRuns(*limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored.")
		return
	}
	for _, run := range runs {
		printRun(run)
	}
}

func printRun(run storage.RunRecord) {
	fmt.Printf("\n%s  %s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Source: %s (%d rows), estimator %s\n", run.Source, run.Rows, run.Estimator)
	fmt.Printf("  Pairs: %d, threshold %.3f, normalization %v\n", run.NumberLogs, run.Threshold, run.ApplyNormalization)
	fmt.Printf("  Input:    %s\n", strings.Join(run.InputColumns, ", "))
	fmt.Printf("  Reduced:  %s\n", strings.Join(run.ReducedColumns, ", "))
	fmt.Printf("  Selected: %s\n", strings.Join(run.OutputColumns, ", "))
}
