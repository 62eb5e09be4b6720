package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache drivers.
const (
	CacheDriverNone   = "none"
	CacheDriverRedis  = "redis"
	CacheDriverValkey = "valkey"
)

// Config holds the recserve configuration.
type Config struct {
	HTTP      HTTPConfig     `yaml:"http"`
	Artifacts ArtifactConfig `yaml:"artifacts"`
	Scoring   ScoringConfig  `yaml:"scoring"`
	Cache     CacheConfig    `yaml:"cache"`
	CORS      CORSConfig     `yaml:"cors"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ArtifactConfig points at the model files produced by offline training.
// A model family whose paths are empty is not served.
type ArtifactConfig struct {
	FactorizationPath string `yaml:"factorization_path"`
	LinksPath         string `yaml:"links_path"`
	ValueWeightsPath  string `yaml:"value_weights_path"`
	ValueDataPath     string `yaml:"value_data_path"`
	MaxBytes          int64  `yaml:"max_bytes"` // per-file ceiling
}

// FactorizationEnabled reports whether the factorization model is configured.
func (a ArtifactConfig) FactorizationEnabled() bool { return a.FactorizationPath != "" }

// ValueEnabled reports whether the value network is configured.
func (a ArtifactConfig) ValueEnabled() bool { return a.ValueWeightsPath != "" || a.ValueDataPath != "" }

// ScoringConfig holds scoring and list-size settings.
type ScoringConfig struct {
	Workers     int `yaml:"workers"`    // 0 = GOMAXPROCS
	ChunkSize   int `yaml:"chunk_size"` // candidates per work unit
	DefaultTopN int `yaml:"default_top_n"`
	MaxTopN     int `yaml:"max_top_n"`
}

// CacheConfig holds recommendation cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	Namespace        string   `yaml:"namespace"`
	Breaker          Breaker  `yaml:"breaker"`
}

// Enabled reports whether a cache store is configured.
func (c CacheConfig) Enabled() bool { return c.Driver != CacheDriverNone }

// TTL returns the entry lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// Breaker holds circuit breaker settings for the cache.
type Breaker struct {
	MaxFailures    uint32 `yaml:"max_failures"`
	OpenTimeoutSec int    `yaml:"open_timeout_sec"`
}

// CORSConfig holds cross-origin settings for the web client.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Artifacts.MaxBytes <= 0 {
		c.Artifacts.MaxBytes = 1 << 30
	}
	if c.Scoring.ChunkSize <= 0 {
		c.Scoring.ChunkSize = 256
	}
	if c.Scoring.DefaultTopN <= 0 {
		c.Scoring.DefaultTopN = 10
	}
	if c.Scoring.MaxTopN <= 0 {
		c.Scoring.MaxTopN = 1000
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverNone
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.Breaker.MaxFailures == 0 {
		c.Cache.Breaker.MaxFailures = 5
	}
	if c.Cache.Breaker.OpenTimeoutSec <= 0 {
		c.Cache.Breaker.OpenTimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Artifacts.validate(); err != nil {
		return err
	}
	if c.Scoring.Workers < 0 {
		return fmt.Errorf("scoring.workers must not be negative, got %d", c.Scoring.Workers)
	}
	if c.Scoring.DefaultTopN > c.Scoring.MaxTopN {
		return fmt.Errorf(
			"scoring.default_top_n (%d) must not exceed scoring.max_top_n (%d)",
			c.Scoring.DefaultTopN, c.Scoring.MaxTopN,
		)
	}
	switch c.Cache.Driver {
	case CacheDriverNone:
	case CacheDriverRedis, CacheDriverValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"none\", \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	return nil
}

func (a *ArtifactConfig) validate() error {
	if !a.FactorizationEnabled() && !a.ValueEnabled() {
		return fmt.Errorf("artifacts: at least one of factorization_path or value_weights_path is required")
	}
	if a.LinksPath == "" {
		return fmt.Errorf("artifacts.links_path is required")
	}
	if a.ValueEnabled() && (a.ValueWeightsPath == "" || a.ValueDataPath == "") {
		return fmt.Errorf("artifacts.value_weights_path and artifacts.value_data_path must be set together")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
