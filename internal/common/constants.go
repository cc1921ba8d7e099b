package common

// Environment variable keys
const (
	EnvConfigFile          = "CONFIG_FILE"
	EnvInputPath           = "INPUT_PATH"
	EnvLabelColumn         = "LABEL_COLUMN"
	EnvOutputPath          = "OUTPUT_PATH"
	EnvDataPath            = "DATA_PATH"
	EnvEstimator           = "ESTIMATOR"
	EnvTreeMaxDepth        = "TREE_MAX_DEPTH"
	EnvTreeMinSamplesSplit = "TREE_MIN_SAMPLES_SPLIT"
	EnvTreeMinSamplesLeaf  = "TREE_MIN_SAMPLES_LEAF"
	EnvThreshold           = "THRESHOLD"
	EnvNumberLogs          = "NUMBER_LOGS"
	EnvApplyNormalization  = "APPLY_NORMALIZATION"
	EnvServerPort          = "SERVER_PORT"
	EnvServerURL           = "SERVER_URL"
	EnvRequestTimeout      = "REQUEST_TIMEOUT"
	EnvLogLevel            = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultLabelColumn         = "label"
	DefaultEstimator           = "tree"
	DefaultTreeMaxDepth        = 0
	DefaultTreeMinSamplesSplit = 2
	DefaultTreeMinSamplesLeaf  = 1
	DefaultThreshold           = 0.1
	DefaultApplyNormalization  = true
	DefaultServerPort          = 8080
	DefaultServerURL           = "http://localhost:8080"
	DefaultLogLevel            = "info"
	DefaultEnvFile             = ".env"
)

// Validation constants
const (
	MinServerPort     = 1024
	MaxServerPort     = 65535
	MaxTreeDepth      = 64
	MinRequestTimeout = 1   // seconds
	MaxRequestTimeout = 300 // seconds
)
