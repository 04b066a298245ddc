package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration for the API, worker and exporter.
type Config struct {
	Port        string
	APIBase     string
	BearerToken string
	GeorefBase  string

	UpstreamTimeout time.Duration
	// UpstreamRPS caps outgoing requests per second; 0 disables the limiter.
	UpstreamRPS float64

	AggregateWorkers     int
	AggregateMaxAttempts int
	AggregateRetryDelay  time.Duration
	AggregateTimeout     time.Duration

	// CacheDir is the badger directory; empty keeps the cache in memory.
	CacheDir string
	// CacheTTL of zero disables response caching.
	CacheTTL time.Duration

	StaticDir   string
	LogLevel    string
	MetricsAddr string

	// TemporalAddress empty disables the snapshot routes in the API.
	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string
	SnapshotURIPrefix string
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// Existing environment variables win over the file.
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv loads configuration from environment variables.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Port:        getEnv("PORT", "5000"),
		APIBase:     getEnv("API_BASE", "https://resultados.mininterior.gob.ar/api"),
		BearerToken: os.Getenv("BEARER_TOKEN"),
		GeorefBase:  getEnv("GEOREF_BASE", "https://apis.datos.gob.ar/georef/api"),

		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 20*time.Second, &errs),
		UpstreamRPS:     getFloat("UPSTREAM_RPS", 0, &errs),

		AggregateWorkers:     getInt("AGGREGATE_WORKERS", 6, &errs),
		AggregateMaxAttempts: getInt("AGGREGATE_MAX_ATTEMPTS", 1, &errs),
		AggregateRetryDelay:  getDuration("AGGREGATE_RETRY_INITIAL", 250*time.Millisecond, &errs),
		AggregateTimeout:     getDuration("AGGREGATE_TIMEOUT", 60*time.Second, &errs),

		CacheDir: os.Getenv("CACHE_DIR"),
		CacheTTL: getDuration("CACHE_TTL", 0, &errs),

		StaticDir:   getEnv("STATIC_DIR", "./static"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		// Support both TEMPORAL_TARGET_HOST and TEMPORAL_ADDRESS for compatibility
		TemporalAddress:   getEnv("TEMPORAL_TARGET_HOST", os.Getenv("TEMPORAL_ADDRESS")),
		TemporalNamespace: getEnv("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:         getEnv("TEMPORAL_TASK_QUEUE", "elecciones"),
		SnapshotURIPrefix: getEnv("SNAPSHOT_URI_PREFIX", "file:///tmp/elecciones"),
	}
	if len(errs) > 0 {
		return Config{}, errs[0]
	}
	if cfg.AggregateWorkers < 1 {
		return Config{}, fmt.Errorf("AGGREGATE_WORKERS must be >= 1, got %d", cfg.AggregateWorkers)
	}
	if cfg.AggregateMaxAttempts < 1 {
		return Config{}, fmt.Errorf("AGGREGATE_MAX_ATTEMPTS must be >= 1, got %d", cfg.AggregateMaxAttempts)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return n
}

func getFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return f
}

// getDuration accepts Go durations ("20s") or bare seconds ("20").
func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}
