package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"featsel/internal/batch"
	"featsel/internal/cfg"
	"featsel/internal/common"
	"featsel/internal/metrics"
	"featsel/internal/server"
	"featsel/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		configPath = flag.String("config", "", "Path to YAML config (overrides CONFIG_FILE)")
		inputPath  = flag.String("input", "", "CSV file with a header row")
		labelCol   = flag.String("label", "", "Label column name")
		outputPath = flag.String("output", "", "Where to write the reduced CSV")
		estimator  = flag.String("estimator", "", "Importance estimator: tree, correlation")
		logLevel   = flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
		serve      = flag.Bool("serve", false, "Run the HTTP selection API instead of a batch run")
	)
	flag.Parse()

	if *configPath != "" {
		os.Setenv(common.EnvConfigFile, *configPath)
	}

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Override config with command line arguments
	if *inputPath != "" {
		config.InputPath = *inputPath
	}
	if *labelCol != "" {
		config.LabelColumn = *labelCol
	}
	if *outputPath != "" {
		config.OutputPath = *outputPath
	}
	if *estimator != "" {
		config.Estimator = *estimator
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}

	// Setup logging
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(config, *serve); err != nil {
		log.Error().Err(err).Bool("serve", *serve).Msg("featsel failed")
		os.Exit(1)
	}
}

// run owns the run store. It is closed before run returns, ahead of any os.Exit in main.
func run(config cfg.Settings, serve bool) error {
	var store *storage.Store
	if config.DataPath != "" {
		var err error
		store, err = storage.New(config.DataPath)
		if err != nil {
			return fmt.Errorf("failed to open run store %s: %w", config.DataPath, err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close run store")
			}
		}()
	}

	if serve {
		return runServer(config, store)
	}
	return runBatch(config, store)
}

func runBatch(config cfg.Settings, store *storage.Store) error {
	m := metrics.NewWrapper(metrics.NewWithRegistry(prometheus.NewRegistry()))

	var runs batch.RunStore
	if store != nil {
		runs = store
	}

	res, err := batch.Run(config, runs, m)
	if err != nil {
		return err
	}

	fmt.Println("=== Feature Selection ===")
	fmt.Printf("Input:          %s\n", config.InputPath)
	fmt.Printf("Estimator:      %s\n", config.Estimator)
	fmt.Printf("Pairs:          %d\n", res.NumberLogs)
	fmt.Printf("After pairwise: %s\n", strings.Join(res.ReducedNames, ", "))
	fmt.Printf("Selected:       %s\n", strings.Join(res.SelectedNames, ", "))
	if res.RunID != "" {
		fmt.Printf("Run ID:         %s\n", res.RunID)
	}
	fmt.Println("=========================")

	log.Info().
		Int("selected", len(res.SelectedNames)).
		Dur("duration", res.Duration).
		Msg("Selection completed successfully")
	return nil
}

func runServer(config cfg.Settings, store *storage.Store) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(config, store, prometheus.NewRegistry())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
