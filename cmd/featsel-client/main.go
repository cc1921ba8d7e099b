package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"featsel/internal/cfg"
	"featsel/internal/client"
	"featsel/internal/dataset"
	"featsel/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		serverURL = flag.String("server", "", "Selection server URL (overrides SERVER_URL)")
		inputPath = flag.String("input", "", "CSV file with a header row")
		labelCol  = flag.String("label", "", "Label column name")
		estimator = flag.String("estimator", "", "Estimator to request")
		threshold = flag.Float64("threshold", -1, "Importance threshold, negative keeps the server default")
		pairs     = flag.Int("pairs", 0, "Number of adjacent pairs, 0 keeps the server default")
		health    = flag.Bool("health", false, "Only check server health")
		runs      = flag.Int("runs", 0, "List the N most recent stored runs")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *serverURL != "" {
		config.ServerURL = *serverURL
	}
	if *labelCol != "" {
		config.LabelColumn = *labelCol
	}

	c := client.New(config.ServerURL, config.RequestTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout+5*time.Second)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch {
	case *health:
		resp, err := c.Health(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Health check failed")
		}
		enc.Encode(resp)
		return
	case *runs > 0:
		resp, err := c.Runs(ctx, *runs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list runs")
		}
		enc.Encode(resp)
		return
	}

	if *inputPath == "" {
		log.Fatal().Msg("-input is required")
	}
	ds, err := dataset.LoadCSV(*inputPath, config.LabelColumn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}

	req := server.SelectRequest{
		Features:     dataset.Rows(ds.X),
		Labels:       ds.Y,
		FeatureNames: ds.Names,
		Estimator:    *estimator,
	}
	if *threshold >= 0 {
		req.Threshold = threshold
	}
	if *pairs > 0 {
		req.NumberLogs = pairs
	}

	resp, err := c.Select(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Selection request failed")
	}
	enc.Encode(resp)
}
