// Package config loads the static, environment-derived configuration read
// once at process startup: the snapshot data directory, the default index
// algorithm and metric, LSH tuning, the log level, and the embedding
// provider credential.
package config

import (
	"os"
	"strconv"
)

// Config is the complete set of startup configuration. It is immutable
// once loaded; there is no hot-reload path, it is read once at startup.
type Config struct {
	// DataDir is the directory snapshot files are written to and read from.
	DataDir string

	// DefaultMetric is used for a library's index when none is configured.
	DefaultMetric string

	// DefaultIndex is the algorithm used for a library's index when none
	// is configured.
	DefaultIndex string

	// LSHNumPlanes is the P parameter (bits per table signature) for LSH.
	LSHNumPlanes int

	// LSHNumTables is the T parameter (number of independent hash tables)
	// for LSH.
	LSHNumTables int

	// LogLevel is the external logger's verbosity (debug, info, warn, error).
	LogLevel string

	// CohereAPIKey enables the /embeddings endpoint when non-empty.
	CohereAPIKey string
}

// Default values used when the corresponding environment variable is unset.
const (
	DefaultDataDir      = "data"
	DefaultMetricName   = "cosine"
	DefaultIndexKind    = "linear"
	DefaultLSHNumPlanes = 16
	DefaultLSHNumTables = 4
	DefaultLogLevel     = "INFO"
)

// Load reads configuration from the process environment, falling back to
// the documented defaults for anything unset.
func Load() Config {
	return Config{
		DataDir:       getEnvString("DATA_DIR", DefaultDataDir),
		DefaultMetric: getEnvString("DEFAULT_METRIC", DefaultMetricName),
		DefaultIndex:  getEnvString("DEFAULT_INDEX", DefaultIndexKind),
		LSHNumPlanes:  getEnvInt("LSH_NUM_PLANES", DefaultLSHNumPlanes),
		LSHNumTables:  getEnvInt("LSH_NUM_TABLES", DefaultLSHNumTables),
		LogLevel:      getEnvString("LOG_LEVEL", DefaultLogLevel),
		CohereAPIKey:  getEnvString("COHERE_API_KEY", ""),
	}
}

// EmbeddingsEnabled reports whether the embeddings endpoint has a
// configured credential.
func (c Config) EmbeddingsEnabled() bool {
	return c.CohereAPIKey != ""
}

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
