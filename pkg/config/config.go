package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lodestone-dev/lodestone/pkg/observability"
)

// Config holds all application configuration, loaded from LODESTONE_*
// environment variables.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Projects      ProjectsConfig
	Channels      ChannelsConfig
	Pages         PagesConfig
	Jobs          JobsConfig
	Forum         ForumConfig
	Cache         CacheConfig
	Observability ObservabilityConfig
}

// ServerConfig holds the HTTP server configuration. Port serves the API,
// HealthPort serves health probes and metrics.
type ServerConfig struct {
	Host            string
	Port            string
	HealthPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds postgres connection settings.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// ProjectsConfig holds project naming and file-area settings.
type ProjectsConfig struct {
	MaxNameLen  int
	NamePattern string
	FilesRoot   string
}

// CompiledNamePattern returns the compiled name pattern. Validate has
// already checked it compiles.
func (c ProjectsConfig) CompiledNamePattern() *regexp.Regexp {
	return regexp.MustCompile(c.NamePattern)
}

// ChannelsConfig holds the default release channel created with every
// project.
type ChannelsConfig struct {
	DefaultName  string
	DefaultColor string
}

// PagesConfig holds the home page created with every project.
type PagesConfig struct {
	HomeName    string
	HomeMessage string
}

// JobsConfig holds the queue scheduler and retry settings.
type JobsConfig struct {
	CheckInterval     time.Duration
	Concurrency       int
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	StaleAfter        time.Duration
}

// ForumConfig holds the external forum endpoint.
type ForumConfig struct {
	BaseURL string
	APIKey  string
	APIUser string
	Timeout time.Duration
}

// CacheConfig holds the listing cache settings. An empty RedisURL selects
// the in-process cache.
type CacheConfig struct {
	RedisURL        string
	TTL             time.Duration
	HomeListingSize int
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads and validates configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("LODESTONE_HOST", "0.0.0.0"),
			Port:            getEnv("LODESTONE_PORT", "8080"),
			HealthPort:      getEnv("LODESTONE_HEALTH_PORT", "9090"),
			ReadTimeout:     getEnvDuration("LODESTONE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("LODESTONE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("LODESTONE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("LODESTONE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:         getEnv("LODESTONE_POSTGRES_URL", ""),
			MaxConns:    getEnvInt("LODESTONE_POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("LODESTONE_POSTGRES_MIN_CONNS", 5),
			Timeout:     getEnvDuration("LODESTONE_POSTGRES_TIMEOUT", 10*time.Second),
			MaxLifetime: getEnvDuration("LODESTONE_POSTGRES_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime: getEnvDuration("LODESTONE_POSTGRES_MAX_IDLE_TIME", 5*time.Minute),
		},
		Projects: ProjectsConfig{
			MaxNameLen:  getEnvInt("LODESTONE_PROJECT_MAX_NAME_LEN", 28),
			NamePattern: getEnv("LODESTONE_PROJECT_NAME_PATTERN", `^[a-zA-Z0-9 _.-]+$`),
			FilesRoot:   getEnv("LODESTONE_FILES_ROOT", "/var/lib/lodestone/projects"),
		},
		Channels: ChannelsConfig{
			DefaultName:  getEnv("LODESTONE_CHANNEL_DEFAULT_NAME", "Release"),
			DefaultColor: getEnv("LODESTONE_CHANNEL_DEFAULT_COLOR", "00E1E1"),
		},
		Pages: PagesConfig{
			HomeName:    getEnv("LODESTONE_PAGE_HOME_NAME", "Home"),
			HomeMessage: getEnv("LODESTONE_PAGE_HOME_MESSAGE", "Welcome to your new project!"),
		},
		Jobs: JobsConfig{
			CheckInterval:     getEnvDuration("LODESTONE_JOBS_CHECK_INTERVAL", time.Minute),
			Concurrency:       getEnvInt("LODESTONE_JOBS_CONCURRENCY", 4),
			MaxRetries:        getEnvInt("LODESTONE_JOBS_MAX_RETRIES", 5),
			InitialDelay:      getEnvDuration("LODESTONE_JOBS_INITIAL_DELAY", 30*time.Second),
			MaxDelay:          getEnvDuration("LODESTONE_JOBS_MAX_DELAY", 30*time.Minute),
			BackoffMultiplier: getEnvFloat("LODESTONE_JOBS_BACKOFF_MULTIPLIER", 2.0),
			StaleAfter:        getEnvDuration("LODESTONE_JOBS_STALE_AFTER", 15*time.Minute),
		},
		Forum: ForumConfig{
			BaseURL: getEnv("LODESTONE_FORUM_BASE_URL", ""),
			APIKey:  getEnv("LODESTONE_FORUM_API_KEY", ""),
			APIUser: getEnv("LODESTONE_FORUM_API_USER", "system"),
			Timeout: getEnvDuration("LODESTONE_FORUM_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			RedisURL:        getEnv("LODESTONE_REDIS_URL", ""),
			TTL:             getEnvDuration("LODESTONE_CACHE_TTL", 5*time.Minute),
			HomeListingSize: getEnvInt("LODESTONE_HOME_LISTING_SIZE", 50),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("LODESTONE_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("LODESTONE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the process cannot start
// with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Projects.MaxNameLen <= 0 {
		return fmt.Errorf("project max name length must be positive")
	}
	if _, err := regexp.Compile(c.Projects.NamePattern); err != nil {
		return fmt.Errorf("invalid project name pattern: %w", err)
	}
	if c.Projects.FilesRoot == "" {
		return fmt.Errorf("project files root is required")
	}
	if c.Forum.BaseURL == "" {
		return fmt.Errorf("forum base URL is required")
	}
	if c.Jobs.CheckInterval <= 0 {
		return fmt.Errorf("jobs check interval must be positive")
	}
	if c.Jobs.MaxRetries <= 0 {
		return fmt.Errorf("jobs max retries must be positive")
	}
	if c.Cache.RedisURL != "" && !strings.HasPrefix(c.Cache.RedisURL, "redis://") && !strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
		return fmt.Errorf("redis URL must start with redis:// or rediss://")
	}
	return nil
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
