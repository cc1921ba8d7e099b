package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"featsel/internal/common"
	"featsel/internal/estimator"
	"featsel/internal/selector"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	InputPath           string
	LabelColumn         string
	OutputPath          string
	DataPath            string
	Estimator           string
	TreeMaxDepth        int
	TreeMinSamplesSplit int
	TreeMinSamplesLeaf  int
	Threshold           float64
	NumberLogs          int
	ApplyNormalization  bool
	ServerPort          int
	ServerURL           string
	RequestTimeout      time.Duration
	LogLevel            string
}

type ConfigFile struct {
	Input struct {
		Path        string `yaml:"path"`
		LabelColumn string `yaml:"labelColumn"`
	} `yaml:"input"`

	Output struct {
		Path string `yaml:"path"`
	} `yaml:"output"`

	Selector struct {
		Threshold          *float64 `yaml:"threshold"`
		NumberLogs         int      `yaml:"numberLogs"`
		ApplyNormalization *bool    `yaml:"applyNormalization"`
	} `yaml:"selector"`

	Estimator struct {
		Kind            string `yaml:"kind"`
		MaxDepth        int    `yaml:"maxDepth"`
		MinSamplesSplit int    `yaml:"minSamplesSplit"`
		MinSamplesLeaf  int    `yaml:"minSamplesLeaf"`
	} `yaml:"estimator"`

	Server struct {
		Port           int    `yaml:"port"`
		URL            string `yaml:"url"`
		RequestTimeout string `yaml:"requestTimeout"`
	} `yaml:"server"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Values already present in the environment win over the .env file
	if err := godotenv.Load(common.DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load %s: %w", common.DefaultEnvFile, err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout = 30 * time.Second
	}

	threshold := common.DefaultThreshold
	if config.Selector.Threshold != nil {
		threshold = *config.Selector.Threshold
	}
	normalize := common.DefaultApplyNormalization
	if config.Selector.ApplyNormalization != nil {
		normalize = *config.Selector.ApplyNormalization
	}

	settings := Settings{
		InputPath:           getEnvOrDefault(common.EnvInputPath, config.Input.Path),
		LabelColumn:         getEnvOrDefault(common.EnvLabelColumn, orDefault(config.Input.LabelColumn, common.DefaultLabelColumn)),
		OutputPath:          getEnvOrDefault(common.EnvOutputPath, config.Output.Path),
		DataPath:            getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		Estimator:           getEnvOrDefault(common.EnvEstimator, orDefault(config.Estimator.Kind, common.DefaultEstimator)),
		TreeMaxDepth:        getIntFromEnvOrConfig(common.EnvTreeMaxDepth, config.Estimator.MaxDepth, common.DefaultTreeMaxDepth),
		TreeMinSamplesSplit: getIntFromEnvOrConfig(common.EnvTreeMinSamplesSplit, config.Estimator.MinSamplesSplit, common.DefaultTreeMinSamplesSplit),
		TreeMinSamplesLeaf:  getIntFromEnvOrConfig(common.EnvTreeMinSamplesLeaf, config.Estimator.MinSamplesLeaf, common.DefaultTreeMinSamplesLeaf),
		Threshold:           getFloatOrDefault(common.EnvThreshold, threshold),
		NumberLogs:          getIntFromEnvOrConfig(common.EnvNumberLogs, config.Selector.NumberLogs, 0),
		ApplyNormalization:  getBoolOrDefault(common.EnvApplyNormalization, normalize),
		ServerPort:          getIntFromEnvOrConfig(common.EnvServerPort, config.Server.Port, common.DefaultServerPort),
		ServerURL:           getEnvOrDefault(common.EnvServerURL, orDefault(config.Server.URL, common.DefaultServerURL)),
		RequestTimeout:      getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		LogLevel:            getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		InputPath:           os.Getenv(common.EnvInputPath),
		LabelColumn:         getEnvOrDefault(common.EnvLabelColumn, common.DefaultLabelColumn),
		OutputPath:          os.Getenv(common.EnvOutputPath),
		DataPath:            os.Getenv(common.EnvDataPath), // optional
		Estimator:           getEnvOrDefault(common.EnvEstimator, common.DefaultEstimator),
		TreeMaxDepth:        getIntOrDefault(common.EnvTreeMaxDepth, common.DefaultTreeMaxDepth),
		TreeMinSamplesSplit: getIntOrDefault(common.EnvTreeMinSamplesSplit, common.DefaultTreeMinSamplesSplit),
		TreeMinSamplesLeaf:  getIntOrDefault(common.EnvTreeMinSamplesLeaf, common.DefaultTreeMinSamplesLeaf),
		Threshold:           getFloatOrDefault(common.EnvThreshold, common.DefaultThreshold),
		NumberLogs:          getIntOrDefault(common.EnvNumberLogs, 0),
		ApplyNormalization:  getBoolOrDefault(common.EnvApplyNormalization, common.DefaultApplyNormalization),
		ServerPort:          getIntOrDefault(common.EnvServerPort, common.DefaultServerPort),
		ServerURL:           getEnvOrDefault(common.EnvServerURL, common.DefaultServerURL),
		RequestTimeout:      getDurationOrDefault(common.EnvRequestTimeout, 30*time.Second),
		LogLevel:            getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// SelectorConfig returns the selector part of the settings.
func (s *Settings) SelectorConfig() selector.Config {
	return selector.Config{
		NumberLogs:         s.NumberLogs,
		Threshold:          s.Threshold,
		ApplyNormalization: s.ApplyNormalization,
	}
}

// EstimatorConfig returns the estimator hyperparameters.
func (s *Settings) EstimatorConfig() estimator.Config {
	return estimator.Config{
		MaxDepth:        s.TreeMaxDepth,
		MinSamplesSplit: s.TreeMinSamplesSplit,
		MinSamplesLeaf:  s.TreeMinSamplesLeaf,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if math.IsNaN(settings.Threshold) || math.IsInf(settings.Threshold, 0) {
		return fmt.Errorf("threshold must be finite, got %f", settings.Threshold)
	}
	if settings.NumberLogs < 0 {
		return fmt.Errorf("number of pairs must be zero (derive) or positive, got %d", settings.NumberLogs)
	}

	switch settings.Estimator {
	case estimator.KindTree, estimator.KindCorrelation:
	default:
		return fmt.Errorf("unknown estimator %q", settings.Estimator)
	}
	if settings.TreeMaxDepth < 0 || settings.TreeMaxDepth > common.MaxTreeDepth {
		return fmt.Errorf("tree max depth must be between 0 and %d, got %d", common.MaxTreeDepth, settings.TreeMaxDepth)
	}
	if settings.TreeMinSamplesSplit < 2 {
		return fmt.Errorf("tree min samples split must be at least 2, got %d", settings.TreeMinSamplesSplit)
	}
	if settings.TreeMinSamplesLeaf < 1 {
		return fmt.Errorf("tree min samples leaf must be at least 1, got %d", settings.TreeMinSamplesLeaf)
	}

	if settings.ServerPort < common.MinServerPort || settings.ServerPort > common.MaxServerPort {
		return fmt.Errorf("server port must be between %d and %d, got %d", common.MinServerPort, common.MaxServerPort, settings.ServerPort)
	}
	if settings.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	minTimeout := common.MinRequestTimeout * time.Second
	maxTimeout := common.MaxRequestTimeout * time.Second
	if settings.RequestTimeout < minTimeout || settings.RequestTimeout > maxTimeout {
		return fmt.Errorf("request timeout must be between %v and %v, got %v", minTimeout, maxTimeout, settings.RequestTimeout)
	}

	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
