package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Logging LoggingConfig `mapstructure:"log"`
	Linkage LinkageConfig `mapstructure:"linkage"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	AllowedOriginsCSV string        `mapstructure:"allowed_origins"`
	// AllowCredentials cannot be combined with a "*" origin.
	AllowCredentials  bool          `mapstructure:"allow_credentials"`
}

// GraphConfig selects the graph backend and describes how to reach Neo4j.
type GraphConfig struct {
	Backend        string        `mapstructure:"backend"` // neo4j|memory
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	MaxConnections int           `mapstructure:"max_connections"`
	// AcquireTimeout bounds the wait for a pooled connection; zero keeps the driver default.
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"` // text|json
	IncludeCaller bool   `mapstructure:"include_caller"`
}

// LinkageConfig bounds linkage fan-out and neighborhood size.
type LinkageConfig struct {
	FanoutLimit          int `mapstructure:"fanout_limit"`
	BulkFanoutLimit      int `mapstructure:"bulk_fanout_limit"`
	SharedAttributeLimit int `mapstructure:"shared_attribute_limit"`
	LinkedLimit          int `mapstructure:"linked_limit"`
}

// Graph backends.
const (
	BackendNeo4j  = "neo4j"
	BackendMemory = "memory"
)

// Upper bounds for the linkage fan-out settings.
const (
	MaxFanoutLimit     = 50
	MaxBulkFanoutLimit = 20
)

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultSharedLimit      = 50
)

// envBindings maps config keys to environment variables. The first variable
// that is set wins; later names are accepted for older deployments.
var envBindings = map[string][]string{
	"http.host":                      {"SERVER_HOST"},
	"http.port":                      {"SERVER_PORT", "PORT"},
	"http.read_timeout":              {"SERVER_READ_TIMEOUT"},
	"http.write_timeout":             {"SERVER_WRITE_TIMEOUT"},
	"http.idle_timeout":              {"SERVER_IDLE_TIMEOUT"},
	"http.shutdown_timeout":          {"SERVER_SHUTDOWN_TIMEOUT"},
	"http.metrics_enabled":           {"SERVER_METRICS_ENABLED"},
	"http.allowed_origins":           {"SERVER_ALLOWED_ORIGINS"},
	"http.allow_credentials":         {"SERVER_ALLOW_CREDENTIALS"},
	"graph.backend":                  {"GRAPH_BACKEND"},
	"graph.uri":                      {"GRAPH_URI", "NEO4J_URI"},
	"graph.database":                 {"GRAPH_DATABASE"},
	"graph.username":                 {"GRAPH_USERNAME", "NEO4J_USER"},
	"graph.password":                 {"GRAPH_PASSWORD", "NEO4J_PASS"},
	"graph.max_connections":          {"GRAPH_MAX_CONNECTIONS"},
	"graph.acquire_timeout":          {"GRAPH_ACQUIRE_TIMEOUT"},
	"log.level":                      {"LOG_LEVEL"},
	"log.format":                     {"LOG_FORMAT"},
	"log.include_caller":             {"LOG_INCLUDE_CALLER"},
	"linkage.fanout_limit":           {"LINK_FANOUT_LIMIT"},
	"linkage.bulk_fanout_limit":      {"LINK_BULK_FANOUT_LIMIT"},
	"linkage.shared_attribute_limit": {"NEIGHBORHOOD_SHARED_LIMIT"},
	"linkage.linked_limit":           {"NEIGHBORHOOD_LINKED_LIMIT"},
}

// Load reads configuration from .env files, an optional YAML file and the
// environment, applying defaults. An empty path looks for fintrace.yaml in
// the working directory.
func Load(path string) (Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fintrace")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Graph.Backend = strings.ToLower(strings.TrimSpace(cfg.Graph.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.HTTP.ReadTimeout,
		"write_timeout":    c.HTTP.WriteTimeout,
		"idle_timeout":     c.HTTP.IdleTimeout,
		"shutdown_timeout": c.HTTP.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("http.%s must not be negative", name)
		}
	}
	if c.HTTP.AllowCredentials {
		for _, origin := range c.HTTP.AllowedOrigins() {
			if origin == "*" {
				return errors.New(`http.allow_credentials cannot be used with a "*" allowed origin`)
			}
		}
	}
	if c.Graph.AcquireTimeout < 0 {
		return errors.New("graph.acquire_timeout must not be negative")
	}

	switch c.Graph.Backend {
	case BackendNeo4j:
		if c.Graph.URI == "" {
			return errors.New("graph.uri (GRAPH_URI or NEO4J_URI) is required for the neo4j backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown graph backend %q", c.Graph.Backend)
	}

	if c.Linkage.FanoutLimit < 1 || c.Linkage.FanoutLimit > MaxFanoutLimit {
		return fmt.Errorf("linkage.fanout_limit must be between 1 and %d, got %d", MaxFanoutLimit, c.Linkage.FanoutLimit)
	}
	if c.Linkage.BulkFanoutLimit < 1 || c.Linkage.BulkFanoutLimit > MaxBulkFanoutLimit {
		return fmt.Errorf("linkage.bulk_fanout_limit must be between 1 and %d, got %d", MaxBulkFanoutLimit, c.Linkage.BulkFanoutLimit)
	}
	if c.Linkage.SharedAttributeLimit < 0 || c.Linkage.LinkedLimit < 0 {
		return errors.New("neighborhood limits must not be negative")
	}
	return nil
}

// AllowedOrigins splits the CSV origin list, dropping blanks.
func (c HTTPConfig) AllowedOrigins() []string {
	if strings.TrimSpace(c.AllowedOriginsCSV) == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOriginsCSV, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// Addr returns the host:port listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", defaultHost)
	v.SetDefault("http.port", defaultPort)
	v.SetDefault("http.read_timeout", defaultReadTimeout)
	v.SetDefault("http.write_timeout", defaultWriteTimeout)
	v.SetDefault("http.idle_timeout", defaultIdleTimeout)
	v.SetDefault("http.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("http.metrics_enabled", false)
	v.SetDefault("http.allowed_origins", "")
	v.SetDefault("http.allow_credentials", false)
	v.SetDefault("graph.backend", BackendNeo4j)
	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.database", "")
	v.SetDefault("graph.username", "")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.max_connections", defaultGraphMaxSessions)
	v.SetDefault("graph.acquire_timeout", time.Duration(0))
	v.SetDefault("log.level", defaultLoggingLevel)
	v.SetDefault("log.format", defaultLoggingFormat)
	v.SetDefault("log.include_caller", false)
	v.SetDefault("linkage.fanout_limit", MaxFanoutLimit)
	v.SetDefault("linkage.bulk_fanout_limit", MaxBulkFanoutLimit)
	v.SetDefault("linkage.shared_attribute_limit", defaultSharedLimit)
	v.SetDefault("linkage.linked_limit", 0)
}

// loadEnvFiles loads .env.local then .env when present. Variables already set
// in the environment are never overridden.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}
