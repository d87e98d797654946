// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	TMDB      TMDBConfig              `mapstructure:"tmdb"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Selection SelectionConfig         `mapstructure:"selection"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
	Registry  RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// TMDBConfig describes the external metadata service.
type TMDBConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Language      string  `mapstructure:"language"`
	Region        string  `mapstructure:"region"`
	Timeout       int     `mapstructure:"timeout"` // milliseconds, per call
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	MaxRetries    int     `mapstructure:"max_retries"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// CacheConfig controls the redis response cache in front of the metadata service.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	GenreTTL    time.Duration `mapstructure:"genre_ttl"`
	DiscoverTTL time.Duration `mapstructure:"discover_ttl"`
	// PurgeOnStart drops every cached metadata response before workers start.
	PurgeOnStart bool `mapstructure:"purge_on_start"`
}

// SelectionConfig holds per-category engine parameters.
type SelectionConfig struct {
	Movie  CategoryConfig `mapstructure:"movie"`
	Series CategoryConfig `mapstructure:"series"`
	Anime  CategoryConfig `mapstructure:"anime"`
	// SessionIdleTTL is how long an idle selection slot is kept before it is evicted.
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"`
}

// CategoryConfig mirrors selection.Config; zero values fall back to the engine defaults.
type CategoryConfig struct {
	PagesToSearch     int     `mapstructure:"pages_to_search"`
	PageRange         int     `mapstructure:"page_range"`
	PriorStrength     float64 `mapstructure:"prior_strength"`
	PriorMean         float64 `mapstructure:"prior_mean"`
	MinWeightedScore  float64 `mapstructure:"min_weighted_score"`
	MinVoteCount      int     `mapstructure:"min_vote_count"`
	MinVoteAverage    float64 `mapstructure:"min_vote_average"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
	MaxProviderChecks int     `mapstructure:"max_provider_checks"`
	ExcludedGenres    []int   `mapstructure:"excluded_genres"`
	SortBy            string  `mapstructure:"sort_by"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// RegistryConfig points at the activity registry used for job input validation.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
